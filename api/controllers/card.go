package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/api/responses"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/api/validators"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/internal/cardcheckout"
	ordersvc "github.com/TheBeardedParaTrooper/LiveBuyNow/internal/orders"
	pkgerrors "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/errors"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/logger"
)

type cardItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int64     `json:"quantity" validate:"gte=1,lte=1000"`
}

type cardSessionRequest struct {
	Items           []cardItemRequest `json:"items" validate:"required,min=1,dive"`
	DeliveryAddress string            `json:"delivery_address,omitempty"`
	ContactNumber   string            `json:"contact_number,omitempty"`
	Notes           string            `json:"notes,omitempty"`
}

type cardFulfillRequest struct {
	SessionID string `json:"session_id" validate:"required,max=255"`
}

// CardSession opens a hosted Stripe Checkout session.
func CardSession(svc cardcheckout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeChannelUnavailable, "card payments are not configured"))
			return
		}
		owner, err := ownerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cardSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := cardcheckout.SessionInput{
			DeliveryAddress: validators.SanitizeString(payload.DeliveryAddress, maxAddressLen),
			ContactNumber:   validators.SanitizeString(payload.ContactNumber, 32),
			Notes:           validators.SanitizeString(payload.Notes, maxNotesLen),
			Items:           make([]cardcheckout.Item, 0, len(payload.Items)),
		}
		for _, item := range payload.Items {
			input.Items = append(input.Items, cardcheckout.Item{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}

		session, err := svc.CreateSession(r.Context(), owner, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

// CardFulfill records the paid order for a completed session.
func CardFulfill(svc cardcheckout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeChannelUnavailable, "card payments are not configured"))
			return
		}
		owner, err := ownerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cardFulfillRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Fulfill(r.Context(), owner, validators.SanitizeString(payload.SessionID, 255))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ordersvc.NewOrderSummary(order))
	}
}
