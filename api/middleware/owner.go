package middleware

import (
	"net/http"
	"strings"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/api/responses"
	pkgAuth "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/auth"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/config"
	pkgerrors "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/errors"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/logger"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/types"
)

const GuestTokenHeader = "X-Guest-Token"

// ResolveOwner seeds the context with the request owner. A bearer token wins
// over the guest header; a bearer token that fails validation is rejected
// rather than silently downgraded to guest.
func ResolveOwner(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if raw := strings.TrimSpace(r.Header.Get("Authorization")); raw != "" {
				token := raw
				if strings.HasPrefix(strings.ToLower(token), "bearer ") {
					token = strings.TrimSpace(token[7:])
				}
				if token == "" {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
					return
				}
				claims, err := pkgAuth.ParseAccessToken(cfg, token)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
					return
				}
				ctx = WithOwner(ctx, types.UserOwner(claims.UserID))
				if logg != nil {
					ctx = logg.WithUserID(ctx, claims.UserID.String())
				}
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if guest := strings.TrimSpace(r.Header.Get(GuestTokenHeader)); guest != "" {
				if err := types.ValidateGuestToken(guest); err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid guest token"))
					return
				}
				ctx = WithOwner(ctx, types.GuestOwner(guest))
				if logg != nil {
					ctx = logg.WithField(ctx, "guest", true)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireOwner rejects requests that resolved neither a principal nor a guest.
func RequireOwner(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := OwnerFromContext(r.Context()); !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "bearer token or guest token required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePrincipal rejects guests.
func RequirePrincipal(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserIDFromContext(r.Context()) == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "signed-in user required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
