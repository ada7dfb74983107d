package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}

func TestLedgerMigrationCarriesConstraints(t *testing.T) {
	checks := map[string][]string{
		"*_create_catalog_and_carts.sql": {
			"CREATE TABLE IF NOT EXISTS cart_lines",
			"CONSTRAINT ck_cart_lines_owner CHECK ((user_id IS NULL) <> (guest_token IS NULL))",
			"CREATE UNIQUE INDEX IF NOT EXISTS ux_cart_lines_user_product ON cart_lines (user_id, product_id)",
			"CREATE UNIQUE INDEX IF NOT EXISTS ux_cart_lines_guest_product ON cart_lines (guest_token, product_id)",
		},
		"*_create_orders.sql": {
			"CREATE TYPE payment_status_enum AS ENUM ('pending', 'paid', 'failed')",
			"CONSTRAINT ux_orders_order_number UNIQUE (order_number)",
			"CONSTRAINT ux_orders_channel_reference UNIQUE (channel_reference)",
			"CREATE TABLE IF NOT EXISTS order_lines",
		},
		"*_create_outbox_events.sql": {
			"CREATE TABLE IF NOT EXISTS outbox_events",
		},
	}

	for pattern, statements := range checks {
		matches, err := filepath.Glob(filepath.Join("migrations", pattern))
		if err != nil || len(matches) != 1 {
			t.Fatalf("expected one migration for %s, got %v (err=%v)", pattern, matches, err)
		}
		data, err := os.ReadFile(matches[0])
		if err != nil {
			t.Fatalf("read %s: %v", matches[0], err)
		}
		for _, stmt := range statements {
			if !strings.Contains(string(data), stmt) {
				t.Errorf("%s missing %q", matches[0], stmt)
			}
		}
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 4, 1, 12, 30, 0, 0, time.UTC)

	path, err := CreateSQLMigration(dir, "Add Refunds Table!", now)
	if err != nil {
		t.Fatalf("CreateSQLMigration: %v", err)
	}
	if filepath.Base(path) != "20250401123000_add_refunds_table.sql" {
		t.Fatalf("unexpected filename %s", filepath.Base(path))
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}
	if _, err := CreateSQLMigration(dir, "add refunds table", now); err == nil {
		t.Fatal("expected duplicate migration to fail")
	}
	if _, err := CreateSQLMigration(dir, "!!!", now); err == nil {
		t.Fatal("expected empty sanitized name to fail")
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "001_init.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename to be rejected")
	}
}
