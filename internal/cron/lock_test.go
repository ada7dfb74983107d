package cron

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type memoryStore struct {
	values map[string]string
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func TestRedisLockExclusive(t *testing.T) {
	store := &memoryStore{values: map[string]string{}}
	first, err := NewRedisLock(store, "cron-worker", time.Minute)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}
	second, _ := NewRedisLock(store, "cron-worker", time.Minute)
	ctx := context.Background()

	if ok, err := first.Acquire(ctx); err != nil || !ok {
		t.Fatalf("expected first acquire, got %v %v", ok, err)
	}
	if ok, _ := second.Acquire(ctx); ok {
		t.Fatal("second instance must not acquire a held lock")
	}
	if err := second.Release(ctx); err != nil {
		t.Fatalf("release by non-owner: %v", err)
	}
	if len(store.values) != 1 {
		t.Fatal("non-owner release removed the lock")
	}
	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := second.Acquire(ctx); !ok {
		t.Fatal("expected acquire after release")
	}
}

func TestRedisLockSkipsForeignValue(t *testing.T) {
	store := &memoryStore{values: map[string]string{}}
	lock, _ := NewRedisLock(store, "cron-worker", time.Minute)
	ctx := context.Background()
	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("expected acquire")
	}
	// lock expired and another instance took it
	for k := range store.values {
		store.values[k] = "other-instance"
	}
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if len(store.values) != 1 {
		t.Fatal("release deleted a lock held by another instance")
	}
}

func TestNewRedisLockValidates(t *testing.T) {
	if _, err := NewRedisLock(nil, "x", 0); err == nil {
		t.Fatal("expected error for nil client")
	}
	if _, err := NewRedisLock(&memoryStore{}, "", 0); err == nil {
		t.Fatal("expected error for empty name")
	}
}
