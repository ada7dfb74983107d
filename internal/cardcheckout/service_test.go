package cardcheckout

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/internal/orders"
	product "github.com/TheBeardedParaTrooper/LiveBuyNow/internal/products"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/db"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/db/dbtest"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/db/models"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/enums"
	pkgerrors "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/errors"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/outbox"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/types"
)

type fakeSessions struct {
	created  *stripe.CheckoutSessionParams
	sessions map[string]*stripe.CheckoutSession
	gets     int
	err      error
}

func (f *fakeSessions) Create(_ context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = params
	return &stripe.CheckoutSession{ID: "cs_test_new", URL: "https://checkout.stripe.com/c/pay/cs_test_new"}, nil
}

func (f *fakeSessions) Get(_ context.Context, id string, _ *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.gets++
	if f.err != nil {
		return nil, f.err
	}
	sess, ok := f.sessions[id]
	if !ok {
		return nil, errors.New("no such checkout session")
	}
	return sess, nil
}

var coffeeProductID = uuid.MustParse("3f6d2c1a-8b4e-4f7a-9c2d-5e1b0a9f8c7d")

func paidSession(id string) *stripe.CheckoutSession {
	return &stripe.CheckoutSession{
		ID:            id,
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		AmountTotal:   4500000,
		Currency:      stripe.Currency("tzs"),
		Metadata: map[string]string{
			metaDeliveryAddress: "Kariakoo, Dar es Salaam",
			metaContactNumber:   "+255712000000",
		},
		LineItems: &stripe.LineItemList{
			Data: []*stripe.LineItem{
				{Description: "Maasai Blanket", Quantity: 1, AmountTotal: 3000000, Price: &stripe.Price{UnitAmount: 3000000}},
				{Description: "Coffee Beans", Quantity: 2, AmountTotal: 1500000, Price: &stripe.Price{
					UnitAmount: 750000,
					Product:    &stripe.Product{Metadata: map[string]string{metaProductID: coffeeProductID.String()}},
				}},
			},
		},
	}
}

func newService(t *testing.T, client *fakeSessions) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(
		client,
		product.NewRepository(conn),
		db.FromGorm(conn),
		orders.NewRepository(conn),
		outbox.NewService(outbox.NewRepository(conn), nil),
		nil,
		nil,
		Config{BaseURL: "https://shop.example.com/", Currency: "TZS"},
	)
	require.NoError(t, err)
	return svc, conn
}

func TestCreateSessionBuildsParams(t *testing.T) {
	client := &fakeSessions{}
	svc, conn := newService(t, client)
	userID := uuid.New()
	kitenge := dbtest.SeedProduct(t, conn, "Kitenge", 1500000)

	sess, err := svc.CreateSession(context.Background(), types.UserOwner(userID), SessionInput{
		Items:           []Item{{ProductID: kitenge.ID, Quantity: 2}},
		DeliveryAddress: "Mbezi Beach",
		ContactNumber:   "+255700000000",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_new", sess.SessionID)

	p := client.created
	require.NotNil(t, p)
	assert.Equal(t, "payment", *p.Mode)
	assert.Equal(t, "https://shop.example.com/payment-success?session_id={CHECKOUT_SESSION_ID}", *p.SuccessURL)
	assert.Equal(t, "https://shop.example.com/checkout", *p.CancelURL)
	require.Len(t, p.LineItems, 1)
	assert.Equal(t, "tzs", *p.LineItems[0].PriceData.Currency)
	assert.Equal(t, int64(1500000), *p.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, "Kitenge", *p.LineItems[0].PriceData.ProductData.Name)
	assert.Equal(t, kitenge.ID.String(), p.LineItems[0].PriceData.ProductData.Metadata[metaProductID])
	assert.Equal(t, int64(2), *p.LineItems[0].Quantity)
	assert.Equal(t, "Mbezi Beach", p.Metadata[metaDeliveryAddress])
	assert.Equal(t, userID.String(), p.Metadata[metaUserID])
	assert.Empty(t, p.Metadata[metaGuestToken])
}

func TestCreateSessionPricesFromCatalog(t *testing.T) {
	client := &fakeSessions{}
	svc, conn := newService(t, client)
	ctx := context.Background()
	owner := types.GuestOwner("guest-token-card")
	basket := dbtest.SeedProduct(t, conn, "Basket", 820000)

	require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", basket.ID).Update("price_cents", 990000).Error)
	_, err := svc.CreateSession(ctx, owner, SessionInput{Items: []Item{{ProductID: basket.ID, Quantity: 1}}})
	require.NoError(t, err)
	assert.Equal(t, int64(990000), *client.created.LineItems[0].PriceData.UnitAmount, "current catalog price")
	assert.Equal(t, "guest-token-card", client.created.Metadata[metaGuestToken])

	retired := dbtest.SeedProduct(t, conn, "Retired", 100)
	require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", retired.ID).Update("is_active", false).Error)
	client.created = nil
	_, err = svc.CreateSession(ctx, owner, SessionInput{Items: []Item{{ProductID: basket.ID, Quantity: 1}, {ProductID: retired.ID, Quantity: 1}, {ProductID: uuid.New(), Quantity: 1}}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Nil(t, client.created, "no session opened for unorderable items")
}

func TestCreateSessionValidation(t *testing.T) {
	svc, _ := newService(t, &fakeSessions{})
	owner := types.GuestOwner("guest-token-card")

	_, err := svc.CreateSession(context.Background(), owner, SessionInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.CreateSession(context.Background(), owner, SessionInput{Items: []Item{{ProductID: uuid.New(), Quantity: 0}}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	failing, conn := newService(t, &fakeSessions{err: errors.New("stripe down")})
	p := dbtest.SeedProduct(t, conn, "Mat", 10)
	_, err = failing.CreateSession(context.Background(), owner, SessionInput{Items: []Item{{ProductID: p.ID, Quantity: 1}}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestFulfillCreatesPaidOrderOnce(t *testing.T) {
	client := &fakeSessions{sessions: map[string]*stripe.CheckoutSession{"cs_paid": paidSession("cs_paid")}}
	svc, conn := newService(t, client)
	owner := types.GuestOwner("guest-token-card")
	ctx := context.Background()

	order, err := svc.Fulfill(ctx, owner, "cs_paid")
	require.NoError(t, err)
	assert.Equal(t, "STRIPE-cs_paid", order.OrderNumber)
	assert.Equal(t, enums.OrderStatusProcessing, order.Status)
	assert.Equal(t, enums.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, "card", order.ChannelName())
	assert.Equal(t, "cs_paid", order.Reference())
	assert.Equal(t, int64(4500000), order.TotalCents)
	assert.Equal(t, "TZS", order.Currency)
	assert.Equal(t, "Kariakoo, Dar es Salaam", order.DeliveryAddress)
	require.Len(t, order.Lines, 2)
	assert.Nil(t, order.Lines[0].ProductID)
	require.NotNil(t, order.Lines[1].ProductID)
	assert.Equal(t, coffeeProductID, *order.Lines[1].ProductID)

	again, err := svc.Fulfill(ctx, owner, "cs_paid")
	require.NoError(t, err)
	assert.Equal(t, order.ID, again.ID)
	assert.Equal(t, 1, client.gets, "existing orders are returned without calling the gateway")

	var n int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventOrderPaid).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	_, err = svc.Fulfill(ctx, types.GuestOwner("someone-else-1"), "cs_paid")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestFulfillUnpaidSession(t *testing.T) {
	unpaid := paidSession("cs_open")
	unpaid.PaymentStatus = stripe.CheckoutSessionPaymentStatusUnpaid
	svc, conn := newService(t, &fakeSessions{sessions: map[string]*stripe.CheckoutSession{"cs_open": unpaid}})

	_, err := svc.Fulfill(context.Background(), types.GuestOwner("guest-token-card"), "cs_open")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	var n int64
	require.NoError(t, conn.Model(&models.Order{}).Count(&n).Error)
	assert.Equal(t, int64(0), n, "abandoned sessions leave no order")

	_, err = svc.Fulfill(context.Background(), types.GuestOwner("guest-token-card"), "cs_missing")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestFulfillRejectsAnotherOwnersSession(t *testing.T) {
	userID := uuid.New()
	byUser := paidSession("cs_user")
	byUser.Metadata[metaUserID] = userID.String()
	byGuest := paidSession("cs_guest")
	byGuest.Metadata[metaGuestToken] = "guest-token-card"
	client := &fakeSessions{sessions: map[string]*stripe.CheckoutSession{"cs_user": byUser, "cs_guest": byGuest}}
	svc, conn := newService(t, client)
	ctx := context.Background()

	_, err := svc.Fulfill(ctx, types.UserOwner(uuid.New()), "cs_user")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = svc.Fulfill(ctx, types.GuestOwner("guest-token-card"), "cs_user")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = svc.Fulfill(ctx, types.GuestOwner("other-guest-token"), "cs_guest")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	var n int64
	require.NoError(t, conn.Model(&models.Order{}).Count(&n).Error)
	assert.Equal(t, int64(0), n)

	order, err := svc.Fulfill(ctx, types.UserOwner(userID), "cs_user")
	require.NoError(t, err)
	assert.Equal(t, userID, *order.UserID)
	_, err = svc.Fulfill(ctx, types.GuestOwner("guest-token-card"), "cs_guest")
	require.NoError(t, err)
}
