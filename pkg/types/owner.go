package types

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	MinGuestTokenLen = 8
	MaxGuestTokenLen = 128
)

// Owner identifies whose cart or order a request acts on. Exactly one of
// UserID and GuestToken is set.
type Owner struct {
	UserID     *uuid.UUID
	GuestToken string
}

func UserOwner(id uuid.UUID) Owner {
	return Owner{UserID: &id}
}

func GuestOwner(token string) Owner {
	return Owner{GuestToken: strings.TrimSpace(token)}
}

func (o Owner) IsGuest() bool {
	return o.UserID == nil
}

// Validate enforces the exactly-one-owner rule and the guest token bounds.
func (o Owner) Validate() error {
	switch {
	case o.UserID != nil && o.GuestToken != "":
		return fmt.Errorf("owner must be a user or a guest, not both")
	case o.UserID != nil:
		if *o.UserID == uuid.Nil {
			return fmt.Errorf("user id is required")
		}
		return nil
	default:
		return ValidateGuestToken(o.GuestToken)
	}
}

// Key is a stable string form used for idempotency scopes and logs.
func (o Owner) Key() string {
	if o.UserID != nil {
		return "user:" + o.UserID.String()
	}
	return "guest:" + o.GuestToken
}

func ValidateGuestToken(token string) error {
	n := len(strings.TrimSpace(token))
	if n < MinGuestTokenLen || n > MaxGuestTokenLen {
		return fmt.Errorf("guest token must be %d-%d characters", MinGuestTokenLen, MaxGuestTokenLen)
	}
	return nil
}
