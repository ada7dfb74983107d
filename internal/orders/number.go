package orders

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// NewOrderNumber returns ORD-<unix-ms>-<0..9999>. Uniqueness is enforced by
// ux_orders_order_number; callers retry on collision.
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%d", now.UnixMilli(), rand.IntN(10000))
}

// CardOrderNumber names the order created from a paid card session.
func CardOrderNumber(sessionID string) string {
	return "STRIPE-" + sessionID
}
