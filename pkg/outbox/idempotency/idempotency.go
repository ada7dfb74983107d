// Package idempotency records which payment events a consumer has already
// applied so Pub/Sub redeliveries become no-ops.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/instance"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/redis"
)

// DefaultTTL outlives the Pub/Sub retention window for payment events.
const DefaultTTL = 7 * 24 * time.Hour

// Manager claims event ids per consumer in Redis. A claim key reads
// lbn:idempotency:evt:processed:<consumer>:<event_id> and holds the id of the
// worker that claimed it.
type Manager struct {
	store  redis.IdempotencyStore
	ttl    time.Duration
	holder string
}

// NewManager builds a Manager. A zero ttl selects DefaultTTL.
func NewManager(store redis.IdempotencyStore, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		store:  store,
		ttl:    ttl,
		holder: instance.GetID() + ":" + uuid.NewString(),
	}, nil
}

// CheckAndMarkProcessed claims the event for consumer. It reports true when an
// earlier delivery already holds the claim.
func (m *Manager) CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	key, err := m.processedKey(consumer, eventID)
	if err != nil {
		return false, err
	}
	claimed, err := m.store.SetNX(ctx, key, m.holder, m.ttl)
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return !claimed, nil
}

// Delete releases a claim taken by this manager so a failed event can be
// redelivered. Claims held by another worker, or already expired, are left
// alone.
func (m *Manager) Delete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	key, err := m.processedKey(consumer, eventID)
	if err != nil {
		return err
	}
	current, err := m.store.Get(ctx, key)
	if err != nil {
		if redis.IsNil(err) {
			return nil
		}
		return fmt.Errorf("read claim %s: %w", key, err)
	}
	if current != m.holder {
		return nil
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) processedKey(consumer string, eventID uuid.UUID) (string, error) {
	if consumer == "" {
		return "", errors.New("consumer name is required")
	}
	if eventID == uuid.Nil {
		return "", errors.New("event id is required")
	}
	return m.store.IdempotencyKey("evt:processed:"+consumer, eventID.String()), nil
}
