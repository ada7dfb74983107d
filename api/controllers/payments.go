package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/api/responses"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/api/validators"
	paymentsvc "github.com/TheBeardedParaTrooper/LiveBuyNow/internal/payments"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/enums"
	pkgerrors "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/errors"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/logger"
)

type channelView struct {
	Channel     enums.Channel `json:"channel"`
	DisplayName string        `json:"display_name"`
	Mobile      bool          `json:"mobile"`
}

// PaymentChannels lists the channels with a registered adapter.
func PaymentChannels(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}
		channels := svc.Channels()
		out := make([]channelView, 0, len(channels))
		for _, ch := range channels {
			out = append(out, channelView{Channel: ch, DisplayName: ch.DisplayName(), Mobile: ch.IsMobile()})
		}
		responses.WriteSuccess(w, map[string]any{"channels": out})
	}
}

type initiateRequest struct {
	OrderID       uuid.UUID `json:"order_id" validate:"required"`
	Channel       string    `json:"channel" validate:"required"`
	ContactNumber string    `json:"contact_number,omitempty"`
}

// InitiatePayment starts a mobile-money settlement for an order.
func InitiatePayment(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		var payload initiateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, payload.OrderID.String())
		}

		initiation, err := svc.InitiatePayment(ctx, payload.OrderID, strings.TrimSpace(payload.Channel), validators.SanitizeString(payload.ContactNumber, 32))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, initiation)
	}
}

// PaymentStatus resolves an order by id or channel reference.
func PaymentStatus(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		orderID, err := validators.ParseQueryUUID(r, "order_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		// provider_tx_id is the provider-facing name for the same reference.
		reference := r.URL.Query().Get("reference")
		if reference == "" {
			reference = r.URL.Query().Get("provider_tx_id")
		}
		query := paymentsvc.StatusQuery{
			OrderID:   orderID,
			Reference: validators.SanitizeString(reference, 128),
		}

		status, err := svc.GetStatus(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}
