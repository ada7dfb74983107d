package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/config"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/enums"
	pkgerrors "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/errors"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/logger"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/money"
)

const (
	defaultProviderTimeout       = 8 * time.Second
	responseBodyReadLimit  int64 = 64 * 1024
)

type httpDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// MobileAdapter speaks the shared mobile-money provider contract. One
// instance serves one network.
type MobileAdapter struct {
	channel  enums.Channel
	cfg      config.MobileChannelConfig
	currency string
	http     httpDoer
	logg     *logger.Logger
	newID    func() string
}

// MobileOption configures optional adapter behavior.
type MobileOption func(*MobileAdapter)

// WithHTTPClient overrides the provider HTTP client.
func WithHTTPClient(client httpDoer) MobileOption {
	return func(a *MobileAdapter) {
		if client != nil {
			a.http = client
		}
	}
}

// WithLogger attaches a logger for signature and provider warnings.
func WithLogger(logg *logger.Logger) MobileOption {
	return func(a *MobileAdapter) {
		a.logg = logg
	}
}

func withIDSource(fn func() string) MobileOption {
	return func(a *MobileAdapter) {
		if fn != nil {
			a.newID = fn
		}
	}
}

func NewMobileAdapter(channel enums.Channel, cfg config.MobileChannelConfig, currency string, opts ...MobileOption) (*MobileAdapter, error) {
	if !channel.IsMobile() {
		return nil, fmt.Errorf("%q is not a mobile channel", channel)
	}
	if strings.TrimSpace(cfg.MerchantNumber) == "" {
		return nil, fmt.Errorf("%s merchant number is required", channel)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}

	a := &MobileAdapter{
		channel:  channel,
		cfg:      cfg,
		currency: strings.ToUpper(strings.TrimSpace(currency)),
		http:     &http.Client{Timeout: timeout},
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

func (a *MobileAdapter) Channel() enums.Channel {
	return a.channel
}

// providerRequest carries the amount in major units as a JSON number.
type providerRequest struct {
	MerchantNumber string      `json:"merchant_number"`
	Amount         json.Number `json:"amount"`
	Currency       string      `json:"currency"`
	PhoneNumber    string      `json:"phone_number"`
	OrderID        string      `json:"order_id"`
	Reference      string      `json:"reference"`
	Sandbox        bool        `json:"sandbox"`
}

type providerResponse struct {
	ProviderTxID string `json:"provider_tx_id"`
	Reference    string `json:"reference"`
	Instructions string `json:"instructions"`
}

// Initiate calls the provider when an endpoint is configured; otherwise it
// hands back merchant instructions with a locally minted reference.
func (a *MobileAdapter) Initiate(ctx context.Context, order InitiateOrder, contact string) (*Initiation, error) {
	reference := a.newID()
	if !a.cfg.Live() {
		return &Initiation{
			Reference:    reference,
			Instructions: ManualInstructions(a.channel, a.cfg.Sandbox, a.currencyFor(order), order.TotalCents, contact, a.cfg.MerchantNumber, reference),
			Mode:         ModeManual,
		}, nil
	}

	body, err := json.Marshal(providerRequest{
		MerchantNumber: a.cfg.MerchantNumber,
		Amount:         json.Number(money.FromCents(order.TotalCents).String()),
		Currency:       a.currencyFor(order),
		PhoneNumber:    contact,
		OrderID:        order.ID.String(),
		Reference:      reference,
		Sandbox:        a.cfg.Sandbox,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal provider request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSpace(a.cfg.APIURL), bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build provider request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", a.newID())
	if key := strings.TrimSpace(a.cfg.APIKey); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s provider unreachable", a.channel))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read provider response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, pkgerrors.Newf(pkgerrors.CodeDependency, "%s provider returned status %d", a.channel, resp.StatusCode).
			WithDetails(map[string]any{"status": resp.StatusCode})
	}

	var decoded providerResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode provider response")
	}
	providerRef := strings.TrimSpace(decoded.ProviderTxID)
	if providerRef == "" {
		providerRef = strings.TrimSpace(decoded.Reference)
	}
	if providerRef == "" {
		return nil, pkgerrors.Newf(pkgerrors.CodeDependency, "%s provider response carried no reference", a.channel)
	}

	instructions := strings.TrimSpace(decoded.Instructions)
	if instructions == "" {
		instructions = GenericInstructions(a.channel, a.currencyFor(order), order.TotalCents)
	}
	return &Initiation{
		Reference:    providerRef,
		Instructions: instructions,
		Mode:         ModeLive,
	}, nil
}

// HandleCallback parses the body and checks the signature when a secret is
// configured and a signature header is present. A mismatch is logged and
// flagged but not rejected.
func (a *MobileAdapter) HandleCallback(ctx context.Context, payload []byte, headers http.Header) (*CallbackResult, error) {
	result, err := ParseCallback(payload)
	if err != nil {
		return nil, err
	}
	if result.DeclaredChannel == nil {
		channel := a.channel
		result.DeclaredChannel = &channel
	}

	secret := strings.TrimSpace(a.cfg.CallbackSecret)
	signature := FindSignature(a.channel, headers)
	if secret == "" || signature == "" {
		return result, nil
	}

	if VerifySignature(secret, payload, signature) {
		result.Verified = true
		return result, nil
	}

	result.SignatureMismatch = true
	if a.logg != nil {
		logCtx := a.logg.WithChannel(ctx, string(a.channel), result.Reference)
		a.logg.Warn(logCtx, "callback signature mismatch, continuing")
	}
	return result, nil
}

func (a *MobileAdapter) currencyFor(order InitiateOrder) string {
	if c := strings.TrimSpace(order.Currency); c != "" {
		return strings.ToUpper(c)
	}
	return a.currency
}
