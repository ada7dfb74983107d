package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/db/dbtest"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/db/models"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/enums"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/outbox/payloads"
)

func TestEmitWritesEnvelope(t *testing.T) {
	client := dbtest.Client(t)
	svc := NewService(NewRepository(client.DB()), nil)
	orderID := uuid.New()

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:   enums.EventOrderPaid,
			AggregateID: orderID,
			Actor:       &ActorRef{Kind: ActorProvider, ID: "tigo_pesa"},
			Data:        payloads.OrderPaidEvent{OrderID: orderID, ChannelReference: "TP-1"},
		})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, client.DB().Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, enums.AggregateOrder, rows[0].AggregateType)
	require.Equal(t, orderID, rows[0].AggregateID)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	require.Equal(t, 1, envelope.Version)
	require.NotEmpty(t, envelope.EventID)
	require.Equal(t, ActorProvider, envelope.Actor.Kind)

	var data payloads.OrderPaidEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	require.Equal(t, "TP-1", data.ChannelReference)
}

func TestEmitRollsBackWithCaller(t *testing.T) {
	client := dbtest.Client(t)
	svc := NewService(NewRepository(client.DB()), nil)

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, DomainEvent{
			EventType:   enums.EventOrderCreated,
			AggregateID: uuid.New(),
			Data:        payloads.OrderCreatedEvent{},
		}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, client.DB().Model(&models.OutboxEvent{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestEmitValidation(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	require.Error(t, svc.Emit(context.Background(), nil, DomainEvent{EventType: enums.EventOrderPaid}))

	client := dbtest.Client(t)
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{EventType: "refund_issued", AggregateID: uuid.New()})
	})
	require.Error(t, err)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	client := dbtest.Client(t)
	repo := NewRepository(client.DB())

	published := seedEvent(t, client.DB(), 0)
	failing := seedEvent(t, client.DB(), 0)
	exhausted := seedEvent(t, client.DB(), 5)

	var fetched []models.OutboxEvent
	require.NoError(t, client.WithTx(context.Background(), func(tx *gorm.DB) error {
		var err error
		fetched, err = repo.FetchUnpublishedForPublish(tx, 10, 5)
		return err
	}))
	require.Len(t, fetched, 2)
	for _, row := range fetched {
		require.NotEqual(t, exhausted, row.ID)
	}

	require.NoError(t, client.WithTx(context.Background(), func(tx *gorm.DB) error {
		if err := repo.MarkPublishedTx(tx, published); err != nil {
			return err
		}
		if err := repo.MarkFailedTx(tx, failing, errors.New("pubsub unavailable")); err != nil {
			return err
		}
		return repo.MarkTerminalTx(tx, exhausted, errors.New("gave up"), 5)
	}))

	var row models.OutboxEvent
	require.NoError(t, client.DB().First(&row, "id = ?", failing).Error)
	require.Equal(t, 1, row.AttemptCount)
	require.NotNil(t, row.LastError)
	require.Equal(t, "pubsub unavailable", *row.LastError)

	require.NoError(t, client.DB().First(&row, "id = ?", exhausted).Error)
	require.NotNil(t, row.TerminalAt)

	require.NoError(t, client.WithTx(context.Background(), func(tx *gorm.DB) error {
		var err error
		fetched, err = repo.FetchUnpublishedForPublish(tx, 10, 5)
		return err
	}))
	require.Len(t, fetched, 1)
	require.Equal(t, failing, fetched[0].ID)

	removed, err := repo.DeletePublishedBefore(context.Background(), time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)
}

func seedEvent(t *testing.T, conn *gorm.DB, attempts int) uuid.UUID {
	t.Helper()
	row := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"version":1}`),
		AttemptCount:  attempts,
	}
	require.NoError(t, conn.Create(&row).Error)
	return row.ID
}
