package repo

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	return conn
}

func TestNewBaseStoresConnection(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	if base.Raw() != db {
		t.Fatalf("expected base db to match provided connection")
	}
}

func TestBaseDBBindsContext(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "value")
	withCtx := base.DB(ctx)

	if withCtx == nil || withCtx.Statement == nil {
		t.Fatalf("expected statement created after WithContext")
	}
	if withCtx.Statement.Context != ctx {
		t.Fatalf("expected context to flow through, got %v", withCtx.Statement.Context)
	}

	//nolint:staticcheck // nil context returns the raw connection
	if base.DB(nil) != db {
		t.Fatalf("expected nil context to return raw connection")
	}
}

func TestBindSwapsConnection(t *testing.T) {
	db := newTestDB(t)
	other := newTestDB(t)
	base := NewBase(db)

	if got := base.Bind(nil); got.Raw() != db {
		t.Fatalf("nil tx should keep original connection")
	}
	if got := base.Bind(other); got.Raw() != other {
		t.Fatalf("expected bound connection to be the tx")
	}
	if base.Raw() != db {
		t.Fatalf("bind must not mutate the receiver")
	}
}
