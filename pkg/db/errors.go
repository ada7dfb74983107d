package db

import (
	"errors"
	"strings"

	pkgerrors "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/errors"
	"gorm.io/gorm"
)

const sqlStateUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint violation. When
// constraint is set, the violation must name it (Postgres constraint/index name,
// or the column list sqlite reports).
func IsUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) && constraint == "" {
		return true
	}
	if code, name := pkgerrors.SQLState(err); code != "" {
		if code != sqlStateUniqueViolation {
			return false
		}
		return constraint == "" || name == constraint
	}

	msg := err.Error()
	unique := strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
	if !unique {
		return false
	}
	return constraint == "" || strings.Contains(msg, constraint)
}

// IsNotFound reports whether err is gorm's record-not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
