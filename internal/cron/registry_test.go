package cron

import (
	"context"
	"testing"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryStoresJobsInOrder(t *testing.T) {
	registry, err := NewRegistry(nil)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	jobA := &stubJob{name: "stale-payment-expiry"}
	jobB := &stubJob{name: "outbox-retention"}
	if err := registry.Register(jobA); err != nil {
		t.Fatalf("register a: %v", err)
	}
	if err := registry.Register(jobB); err != nil {
		t.Fatalf("register b: %v", err)
	}
	jobs := registry.Jobs()
	if len(jobs) != 2 || jobs[0] != jobA || jobs[1] != jobB {
		t.Fatalf("jobs returned out of order: %v", jobs)
	}
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatalf("internal slice leaked")
	}
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	if _, err := NewRegistry(&stubJob{name: "dup"}, &stubJob{name: "dup"}); err == nil {
		t.Fatalf("expected duplicate name error")
	}
}
