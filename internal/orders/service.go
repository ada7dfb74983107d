package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/db"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/db/models"
	pkgerrors "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/errors"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/pagination"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/types"
)

// Service serves order history to the order's owner.
type Service interface {
	Get(ctx context.Context, owner types.Owner, orderID uuid.UUID) (*OrderSummary, error)
	List(ctx context.Context, owner types.Owner, params pagination.Params) (*OrderList, error)
}

type service struct {
	repo      Repository
	pageLimit int
}

// NewService builds the order history service. pageLimit caps list pages.
func NewService(repo Repository, pageLimit int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo, pageLimit: pageLimit}, nil
}

// Get returns NOT_FOUND for orders owned by someone else so ids cannot be probed.
func (s *service) Get(ctx context.Context, owner types.Owner, orderID uuid.UUID) (*OrderSummary, error) {
	if err := owner.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "owner required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if !OwnedBy(order, owner) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	summary := NewOrderSummary(order)
	return &summary, nil
}

func (s *service) List(ctx context.Context, owner types.Owner, params pagination.Params) (*OrderList, error) {
	if err := owner.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "owner required")
	}
	params.Limit = pagination.NormalizeLimit(params.Limit, s.pageLimit)

	page, err := s.repo.ListByOwner(ctx, owner, params)
	if err != nil {
		if _, cursorErr := pagination.ParseCursor(params.Cursor); cursorErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, cursorErr, "invalid cursor")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	out := &OrderList{Orders: make([]OrderSummary, 0, len(page.Items)), NextCursor: page.NextCursor}
	for i := range page.Items {
		out.Orders = append(out.Orders, NewOrderSummary(&page.Items[i]))
	}
	return out, nil
}

// OwnedBy reports whether owner placed order.
func OwnedBy(order *models.Order, owner types.Owner) bool {
	if order == nil {
		return false
	}
	if owner.UserID != nil {
		return order.UserID != nil && *order.UserID == *owner.UserID
	}
	return order.GuestToken != nil && owner.GuestToken != "" && *order.GuestToken == owner.GuestToken
}
