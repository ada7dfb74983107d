package controllers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/api/responses"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/internal/reconciler"
	pkgerrors "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/errors"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/logger"
)

const maxCallbackBytes = 64 << 10

// SettlementCallback hands the raw provider body and headers to the
// reconciler; signature checks need the exact bytes.
func SettlementCallback(svc reconciler.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reconciler unavailable"))
			return
		}

		channel := chi.URLParam(r, "channel")
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithChannel(ctx, channel, "")
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBytes+1))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read callback body"))
			return
		}
		if len(payload) > maxCallbackBytes {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "callback body too large"))
			return
		}

		ack, err := svc.HandleCallback(ctx, channel, payload, r.Header)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, ack)
	}
}
