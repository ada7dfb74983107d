package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/api/responses"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/api/validators"
	checkoutsvc "github.com/TheBeardedParaTrooper/LiveBuyNow/internal/checkout"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/db/models"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/enums"
	pkgerrors "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/errors"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/logger"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/money"
)

const (
	maxAddressLen = 500
	maxNotesLen   = 1000
)

// Checkout turns the owner's cart into a pending order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		owner, err := ownerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		delivery := checkoutsvc.DeliveryInfo{
			Address: validators.SanitizeString(payload.DeliveryAddress, maxAddressLen),
			Contact: validators.SanitizeString(payload.ContactNumber, 32),
		}
		if payload.Notes != nil {
			notes := validators.SanitizeString(*payload.Notes, maxNotesLen)
			delivery.Notes = &notes
		}

		order, err := svc.CreateOrder(r.Context(), owner, delivery, payload.Channel)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutResponse(order))
	}
}

type checkoutRequest struct {
	DeliveryAddress string  `json:"delivery_address" validate:"required"`
	ContactNumber   string  `json:"contact_number" validate:"required"`
	Notes           *string `json:"notes,omitempty"`
	Channel         string  `json:"channel,omitempty"`
}

type checkoutResponse struct {
	OrderID       uuid.UUID           `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	TotalCents    int64               `json:"total_cents"`
	TotalDisplay  string              `json:"total_display"`
	Currency      string              `json:"currency"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	Channel       *enums.Channel      `json:"channel,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

func newCheckoutResponse(order *models.Order) checkoutResponse {
	return checkoutResponse{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		TotalCents:    order.TotalCents,
		TotalDisplay:  money.Label(order.Currency, order.TotalCents),
		Currency:      order.Currency,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Channel:       order.Channel,
		CreatedAt:     order.CreatedAt,
	}
}
