// Package cardcheckout runs the hosted card checkout: the order is created
// only after the gateway reports the session paid.
package cardcheckout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/internal/orders"
	product "github.com/TheBeardedParaTrooper/LiveBuyNow/internal/products"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/checkout"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/db"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/db/models"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/enums"
	pkgerrors "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/errors"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/logger"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/metrics"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/outbox"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/outbox/payloads"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/types"
)

const (
	defaultGatewayTimeout = 15 * time.Second

	metaDeliveryAddress = "delivery_address"
	metaContactNumber   = "contact_number"
	metaNotes           = "notes"
	metaUserID          = "user_id"
	metaGuestToken      = "guest_token"
	metaProductID       = "product_id"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type Service interface {
	CreateSession(ctx context.Context, owner types.Owner, input SessionInput) (*Session, error)
	Fulfill(ctx context.Context, owner types.Owner, sessionID string) (*models.Order, error)
}

// Item names a catalog product; the name and unit price come from the catalog.
type Item struct {
	ProductID uuid.UUID
	Quantity  int64
}

// SessionInput carries the items to charge and the delivery details that are
// echoed back through session metadata at fulfillment.
type SessionInput struct {
	Items           []Item
	DeliveryAddress string
	ContactNumber   string
	Notes           string
}

type Session struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

type Config struct {
	BaseURL  string
	Currency string
	Timeout  time.Duration
}

type service struct {
	client   SessionClient
	products product.Repository
	tx       txRunner
	orders   orders.Repository
	outbox   outboxPublisher
	metrics  *metrics.PaymentMetrics
	logg     *logger.Logger
	cfg      Config
	now      func() time.Time
}

func NewService(client SessionClient, products product.Repository, tx txRunner, ordersRepo orders.Repository, publisher outboxPublisher, m *metrics.PaymentMetrics, logg *logger.Logger, cfg Config) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("stripe session client required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("public base url required")
	}
	cfg.Currency = strings.ToLower(strings.TrimSpace(cfg.Currency))
	if cfg.Currency == "" {
		return nil, fmt.Errorf("currency required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultGatewayTimeout
	}
	return &service{
		client:   client,
		products: products,
		tx:       tx,
		orders:   ordersRepo,
		outbox:   publisher,
		metrics:  m,
		logg:     logg,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) CreateSession(ctx context.Context, owner types.Owner, input SessionInput) (*Session, error) {
	if err := owner.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "checkout owner required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(s.cfg.BaseURL + "/payment-success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:          stripe.String(s.cfg.BaseURL + "/checkout"),
	}
	priced, err := s.priceItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}
	for _, line := range priced {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(s.cfg.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:     stripe.String(line.product.Name),
					Metadata: map[string]string{metaProductID: line.product.ID.String()},
				},
				UnitAmount: stripe.Int64(line.product.PriceCents),
			},
			Quantity: stripe.Int64(line.quantity),
		})
	}
	params.AddMetadata(metaDeliveryAddress, strings.TrimSpace(input.DeliveryAddress))
	params.AddMetadata(metaContactNumber, strings.TrimSpace(input.ContactNumber))
	if notes := strings.TrimSpace(input.Notes); notes != "" {
		params.AddMetadata(metaNotes, notes)
	}
	if owner.UserID != nil {
		params.AddMetadata(metaUserID, owner.UserID.String())
	} else {
		params.AddMetadata(metaGuestToken, owner.GuestToken)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	sess, err := s.client.Create(callCtx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}
	return &Session{SessionID: sess.ID, URL: sess.URL}, nil
}

// Fulfill turns a paid session into a processing order. Repeated calls for
// the same session return the order created by the first.
func (s *service) Fulfill(ctx context.Context, owner types.Owner, sessionID string) (*models.Order, error) {
	if err := owner.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "checkout owner required")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session_id is required")
	}
	number := orders.CardOrderNumber(sessionID)

	if existing, err := s.existing(ctx, owner, number); existing != nil || err != nil {
		return existing, err
	}

	params := &stripe.CheckoutSessionParams{}
	params.AddExpand("line_items.data.price.product")
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	sess, err := s.client.Get(callCtx, sessionID, params)
	cancel()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retrieve checkout session")
	}
	if !sessionOwnedBy(sess, owner) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found")
	}
	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment not completed")
	}

	order := s.orderFromSession(owner, number, sess)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.orders.WithTx(tx).Create(ctx, order)
		if err != nil {
			return err
		}
		order = created
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:   enums.EventOrderPaid,
			AggregateID: created.ID,
			Actor:       &outbox.ActorRef{Kind: outbox.ActorProvider, ID: string(enums.ChannelCard)},
			Data: payloads.OrderPaidEvent{
				OrderID:          created.ID,
				OrderNumber:      created.OrderNumber,
				Channel:          enums.ChannelCard,
				ChannelReference: sessionID,
				TotalCents:       created.TotalCents,
				Currency:         created.Currency,
				PaidAt:           *created.PaidAt,
			},
		})
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			// a concurrent fulfill won the insert
			if existing, findErr := s.existing(ctx, owner, number); existing != nil || findErr != nil {
				return existing, findErr
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create card order")
	}

	s.metrics.IncTransition(string(enums.ChannelCard), string(enums.PaymentStatusPaid))
	logCtx := s.logg.WithChannel(s.logg.WithOrderID(ctx, order.ID.String()), string(enums.ChannelCard), sessionID)
	s.logg.Info(logCtx, "card.order_fulfilled")
	return order, nil
}

type pricedItem struct {
	product  models.Product
	quantity int64
}

// priceItems resolves every item against the active catalog. Violations are
// reported together, the same way checkout reports stale cart lines.
func (s *service) priceItems(ctx context.Context, items []Item) ([]pricedItem, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	catalog, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}

	checks := make([]checkout.LineCheck, 0, len(items))
	priced := make([]pricedItem, 0, len(items))
	for _, item := range items {
		p, found := catalog[item.ProductID]
		checks = append(checks, checkout.LineCheck{
			ProductID:   item.ProductID,
			ProductName: p.Name,
			Found:       found,
			Active:      p.IsActive,
			Quantity:    int(item.Quantity),
		})
		priced = append(priced, pricedItem{product: p, quantity: item.Quantity})
	}
	if err := checkout.ValidateLines(checks); err != nil {
		return nil, err
	}
	return priced, nil
}

// sessionOwnedBy compares the owner recorded at session creation. Sessions
// without an owner in metadata are accepted.
func sessionOwnedBy(sess *stripe.CheckoutSession, owner types.Owner) bool {
	if uid := sess.Metadata[metaUserID]; uid != "" {
		return owner.UserID != nil && owner.UserID.String() == uid
	}
	if token := sess.Metadata[metaGuestToken]; token != "" {
		return owner.UserID == nil && owner.GuestToken == token
	}
	return true
}

func (s *service) existing(ctx context.Context, owner types.Owner, number string) (*models.Order, error) {
	order, err := s.orders.FindByNumber(ctx, number)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load card order")
	}
	if !orders.OwnedBy(order, owner) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) orderFromSession(owner types.Owner, number string, sess *stripe.CheckoutSession) *models.Order {
	paidAt := s.now()
	channel := enums.ChannelCard
	reference := sess.ID
	currency := strings.ToUpper(string(sess.Currency))
	if currency == "" {
		currency = strings.ToUpper(s.cfg.Currency)
	}

	order := &models.Order{
		ID:               uuid.New(),
		OrderNumber:      number,
		TotalCents:       sess.AmountTotal,
		Currency:         currency,
		Status:           enums.OrderStatusProcessing,
		PaymentStatus:    enums.PaymentStatusPaid,
		Channel:          &channel,
		ChannelReference: &reference,
		ContactNumber:    sess.Metadata[metaContactNumber],
		DeliveryAddress:  sess.Metadata[metaDeliveryAddress],
		PaidAt:           &paidAt,
	}
	if notes := sess.Metadata[metaNotes]; notes != "" {
		order.Notes = &notes
	}
	if owner.UserID != nil {
		order.UserID = owner.UserID
	} else {
		token := owner.GuestToken
		order.GuestToken = &token
	}

	if sess.LineItems != nil {
		for _, li := range sess.LineItems.Data {
			if li == nil {
				continue
			}
			line := models.OrderLine{
				ProductName:   li.Description,
				Quantity:      int(li.Quantity),
				SubtotalCents: li.AmountTotal,
			}
			if li.Price != nil {
				line.UnitPriceCents = li.Price.UnitAmount
				if li.Price.Product != nil {
					if id, err := uuid.Parse(li.Price.Product.Metadata[metaProductID]); err == nil {
						line.ProductID = &id
					}
				}
			}
			order.Lines = append(order.Lines, line)
		}
	}
	return order
}
