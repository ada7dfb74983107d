package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultLimit is the order history page size when a limit is not provided.
const DefaultLimit = 20

// Params holds cursor pagination inputs from controllers or services.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor is the (created_at, id) keyset position of the last row returned.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// Page is a window of rows plus the cursor for the next one, if any.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// NormalizeLimit applies the default and caps the limit at max (when max > 0).
func NormalizeLimit(limit, max int) int {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

// EncodeCursor builds a URL-safe cursor string.
func EncodeCursor(cursor Cursor) string {
	payload := fmt.Sprintf("%s|%s", cursor.CreatedAt.UTC().Format(time.RFC3339Nano), cursor.ID.String())
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor decodes a cursor; an empty value means the first page.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	createdAt, id, ok := strings.Cut(string(decoded), "|")
	if !ok {
		return nil, fmt.Errorf("invalid cursor format")
	}

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp: %w", err)
	}
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor id: %w", err)
	}
	return &Cursor{CreatedAt: t, ID: parsedID}, nil
}

// Paginate trims a limit+1 result set and derives the next cursor from the
// last kept row.
func Paginate[T any](rows []T, limit int, position func(T) Cursor) Page[T] {
	if len(rows) <= limit {
		return Page[T]{Items: rows}
	}
	kept := rows[:limit]
	return Page[T]{
		Items:      kept,
		NextCursor: EncodeCursor(position(kept[len(kept)-1])),
	}
}
