package middleware

import (
	"context"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/types"
)

type contextKey string

const ctxOwner contextKey = "owner"

// OwnerFromContext returns the resolved cart/order owner, if any.
func OwnerFromContext(ctx context.Context) (types.Owner, bool) {
	if ctx == nil {
		return types.Owner{}, false
	}
	owner, ok := ctx.Value(ctxOwner).(types.Owner)
	return owner, ok
}

// UserIDFromContext returns the principal id, or "" for guests.
func UserIDFromContext(ctx context.Context) string {
	owner, ok := OwnerFromContext(ctx)
	if !ok || owner.UserID == nil {
		return ""
	}
	return owner.UserID.String()
}

// WithOwner injects the owner into the context.
func WithOwner(ctx context.Context, owner types.Owner) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxOwner, owner)
}
