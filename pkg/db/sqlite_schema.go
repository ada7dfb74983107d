package db

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// sqliteSchema mirrors the goose migrations for local sqlite runs and tests.
// Enums become TEXT and uuids are stored as strings.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  price_cents INTEGER NOT NULL,
  image_url TEXT,
  stock_quantity INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS cart_lines (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  guest_token TEXT,
  product_id TEXT NOT NULL REFERENCES products(id),
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  created_at DATETIME,
  updated_at DATETIME,
  CHECK ((user_id IS NULL) <> (guest_token IS NULL))
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_cart_lines_user_product ON cart_lines (user_id, product_id);
CREATE UNIQUE INDEX IF NOT EXISTS ux_cart_lines_guest_product ON cart_lines (guest_token, product_id);
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  guest_token TEXT,
  order_number TEXT NOT NULL UNIQUE,
  total_cents INTEGER NOT NULL,
  currency TEXT NOT NULL,
  status TEXT NOT NULL,
  payment_status TEXT NOT NULL,
  channel TEXT,
  channel_reference TEXT UNIQUE,
  contact_number TEXT NOT NULL,
  delivery_address TEXT NOT NULL,
  notes TEXT,
  payment_instructions TEXT,
  paid_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS order_lines (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL REFERENCES orders(id),
  product_id TEXT,
  product_name TEXT NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  quantity INTEGER NOT NULL,
  subtotal_cents INTEGER NOT NULL,
  created_at DATETIME
);
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT,
  terminal_at DATETIME
);`

// EnsureSQLiteSchema creates the ledger tables on a sqlite handle if missing.
func EnsureSQLiteSchema(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db handle required")
	}
	for _, stmt := range strings.Split(sqliteSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if err := conn.Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply sqlite schema: %w", err)
		}
	}
	return nil
}
