package controllers

import (
	"net/http"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/api/middleware"
	pkgerrors "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/errors"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/types"
)

func ownerFromRequest(r *http.Request) (types.Owner, error) {
	owner, ok := middleware.OwnerFromContext(r.Context())
	if !ok {
		return types.Owner{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "bearer token or guest token required")
	}
	return owner, nil
}
