// Package repo holds the connection plumbing shared by the GORM repositories.
package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base carries the connection a repository reads and writes through. A Base
// bound to a transaction shares that transaction's connection.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx. A nil ctx returns it unbound.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Bind returns a Base using tx, or b unchanged when tx is nil.
func (b Base) Bind(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}

// Raw exposes the underlying connection, used when a caller opens its own
// transaction.
func (b Base) Raw() *gorm.DB {
	return b.db
}
