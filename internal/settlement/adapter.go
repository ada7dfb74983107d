// Package settlement holds the per-channel payment adapters and the registry
// that resolves them. Adapters talk to providers; they never touch the ledger.
package settlement

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/enums"
)

// Adapter is one settlement channel.
type Adapter interface {
	Channel() enums.Channel
	// Initiate begins a payment. Each call mints its own reference and
	// idempotency key, so retries are safe.
	Initiate(ctx context.Context, order InitiateOrder, contact string) (*Initiation, error)
	// HandleCallback parses and verifies a provider notification.
	HandleCallback(ctx context.Context, payload []byte, headers http.Header) (*CallbackResult, error)
}

// InitiateOrder is the ledger data an adapter needs to start a payment.
type InitiateOrder struct {
	ID          uuid.UUID
	OrderNumber string
	TotalCents  int64
	Currency    string
}

// Initiation modes.
const (
	ModeLive   = "live"
	ModeManual = "manual"
)

type Initiation struct {
	Reference    string
	Instructions string
	Mode         string
}

// CallbackResult is a parsed provider notification. SignatureMismatch is set
// when a signature was present and wrong; the callback is still applied.
type CallbackResult struct {
	Reference         string
	Outcome           enums.CallbackOutcome
	DeclaredChannel   *enums.Channel
	Verified          bool
	SignatureMismatch bool
}
