// Package dbtest opens isolated in-memory sqlite databases carrying the ledger
// schema, for repository and service tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/db"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/db/models"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/enums"
)

// Open returns a gorm handle on a fresh database named after the test. The
// pool is pinned to one connection so transactions and reads see the same
// in-memory database; goroutines sharing it run their transactions one at a
// time. Use OpenPostgres where interleaving matters.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.EnsureSQLiteSchema(conn))
	return conn
}

// Client wraps Open in the shared db.Client.
func Client(t *testing.T) *db.Client {
	t.Helper()
	return db.FromGorm(Open(t))
}

// SeedProduct inserts an active catalog row.
func SeedProduct(t *testing.T, conn *gorm.DB, name string, priceCents int64) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:            uuid.New(),
		Name:          name,
		Slug:          strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		PriceCents:    priceCents,
		StockQuantity: 100,
		IsActive:      true,
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}

// SeedOrder inserts a pending guest order with one line; mutate adjusts the
// row before insert.
func SeedOrder(t *testing.T, conn *gorm.DB, mutate func(*models.Order)) *models.Order {
	t.Helper()
	guest := "guest-token-0001"
	now := time.Now().UTC()
	order := &models.Order{
		ID:              uuid.New(),
		GuestToken:      &guest,
		OrderNumber:     fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), uuid.NewString()[:4]),
		TotalCents:      2500000,
		Currency:        "TZS",
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusPending,
		ContactNumber:   "+255700000001",
		DeliveryAddress: "Plot 7, Msasani, Dar es Salaam",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if mutate != nil {
		mutate(order)
	}
	require.NoError(t, conn.Omit("Lines").Create(order).Error)

	line := models.OrderLine{
		ID:             uuid.New(),
		OrderID:        order.ID,
		ProductName:    "Seed item",
		UnitPriceCents: order.TotalCents,
		Quantity:       1,
		SubtotalCents:  order.TotalCents,
		CreatedAt:      now,
	}
	require.NoError(t, conn.Create(&line).Error)
	order.Lines = []models.OrderLine{line}
	return order
}
