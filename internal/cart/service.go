package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	product "github.com/TheBeardedParaTrooper/LiveBuyNow/internal/products"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/checkout"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/db"
	pkgerrors "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/errors"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/logger"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes cart operations for users and guests.
type Service interface {
	Get(ctx context.Context, owner types.Owner) (*View, error)
	Add(ctx context.Context, owner types.Owner, input AddInput) (*View, error)
	SetQuantity(ctx context.Context, owner types.Owner, lineID uuid.UUID, quantity int) (*View, error)
	Remove(ctx context.Context, owner types.Owner, lineID uuid.UUID) (*View, error)
	Clear(ctx context.Context, owner types.Owner) error
	Merge(ctx context.Context, guestToken string, userID uuid.UUID) (int, error)
}

type AddInput struct {
	ProductID uuid.UUID
	Quantity  int
}

type service struct {
	repo     Repository
	products product.Repository
	tx       txRunner
	currency string
	logg     *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo Repository, products product.Repository, tx txRunner, currency string, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, products: products, tx: tx, currency: currency, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, owner types.Owner) (*View, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListDetailed(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return buildView(rows, s.currency), nil
}

func (s *service) Add(ctx context.Context, owner types.Owner, input AddInput) (*View, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	qty := input.Quantity
	if qty == 0 {
		qty = 1
	}

	check := checkout.LineCheck{ProductID: input.ProductID, Quantity: qty}
	p, err := s.products.FindByID(ctx, input.ProductID)
	switch {
	case err == nil:
		check.Found, check.Active, check.ProductName = true, p.IsActive, p.Name
	case !db.IsNotFound(err):
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if err := checkout.ValidateLines([]checkout.LineCheck{check}); err != nil {
		return nil, err
	}

	if _, err := s.repo.Upsert(ctx, owner, input.ProductID, qty); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add cart line")
	}
	return s.Get(ctx, owner)
}

// SetQuantity removes the line when quantity drops below one.
func (s *service) SetQuantity(ctx context.Context, owner types.Owner, lineID uuid.UUID, quantity int) (*View, error) {
	if quantity < 1 {
		return s.Remove(ctx, owner, lineID)
	}
	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	rows, err := s.repo.UpdateQuantity(ctx, owner, lineID, quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return s.Get(ctx, owner)
}

func (s *service) Remove(ctx context.Context, owner types.Owner, lineID uuid.UUID) (*View, error) {
	if err := validateOwner(owner); err != nil {
		return nil, err
	}
	rows, err := s.repo.Delete(ctx, owner, lineID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart line")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return s.Get(ctx, owner)
}

func (s *service) Clear(ctx context.Context, owner types.Owner) error {
	if err := validateOwner(owner); err != nil {
		return err
	}
	if _, err := s.repo.DeleteAll(ctx, owner); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}

// Merge claims the guest lines and folds them into the user's cart with the
// add-sum rule in one transaction. A concurrent or repeated merge claims
// nothing and migrates nothing.
func (s *service) Merge(ctx context.Context, guestToken string, userID uuid.UUID) (int, error) {
	guest := types.GuestOwner(guestToken)
	if err := guest.Validate(); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid guest token")
	}
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "authenticated user required")
	}
	user := types.UserOwner(userID)

	migrated := 0
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		lines, err := repo.Claim(ctx, guest)
		if err != nil {
			return err
		}
		for _, line := range lines {
			if _, err := repo.Upsert(ctx, user, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}
		migrated = len(lines)
		return nil
	})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "merge cart")
	}

	if migrated > 0 && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"user_id": userID.String(), "migrated_lines": migrated})
		s.logg.Info(logCtx, "cart.merged")
	}
	return migrated, nil
}

func validateOwner(owner types.Owner) error {
	if err := owner.Validate(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "cart owner required")
	}
	return nil
}
