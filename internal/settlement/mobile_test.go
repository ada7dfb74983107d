package settlement

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/config"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/enums"
	pkgerrors "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/errors"
)

func testOrder() InitiateOrder {
	return InitiateOrder{
		ID:          uuid.MustParse("7b0c5d2e-2f0a-4b7e-9a53-4f9f0a2d1c11"),
		OrderNumber: "ORD-1700000000000-42",
		TotalCents:  2500000,
		Currency:    "TZS",
	}
}

func fixedID(v string) MobileOption {
	return withIDSource(func() string { return v })
}

func TestMobileAdapterManualMode(t *testing.T) {
	cfg := config.MobileChannelConfig{Enabled: true, MerchantNumber: "555123", Sandbox: true}
	adapter, err := NewMobileAdapter(enums.ChannelTigoPesa, cfg, "TZS", fixedID("REF-1"))
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}

	got, err := adapter.Initiate(context.Background(), testOrder(), "+255700000001")
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if got.Mode != ModeManual {
		t.Fatalf("expected manual mode, got %s", got.Mode)
	}
	if got.Reference != "REF-1" {
		t.Fatalf("unexpected reference %q", got.Reference)
	}
	want := "SANDBOX: Send TZS 25,000 from +255700000001 to TigoPesa merchant 555123 and use ref REF-1"
	if got.Instructions != want {
		t.Fatalf("instructions mismatch:\n got %q\nwant %q", got.Instructions, want)
	}
}

func TestMobileAdapterLiveMode(t *testing.T) {
	var captured providerRequest
	var authHeader, idemHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		idemHeader = r.Header.Get("Idempotency-Key")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"provider_tx_id":"AIR-998","instructions":"Approve the prompt on your phone"}`))
	}))
	defer srv.Close()

	cfg := config.MobileChannelConfig{
		Enabled:        true,
		MerchantNumber: "777",
		APIURL:         srv.URL,
		APIKey:         "k-123",
	}
	adapter, err := NewMobileAdapter(enums.ChannelAirtelMoney, cfg, "TZS", WithHTTPClient(srv.Client()), fixedID("local-ref"))
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}

	got, err := adapter.Initiate(context.Background(), testOrder(), "+255711111111")
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if got.Mode != ModeLive || got.Reference != "AIR-998" {
		t.Fatalf("unexpected initiation %+v", got)
	}
	if got.Instructions != "Approve the prompt on your phone" {
		t.Fatalf("unexpected instructions %q", got.Instructions)
	}
	if authHeader != "Bearer k-123" {
		t.Fatalf("unexpected auth header %q", authHeader)
	}
	if idemHeader == "" {
		t.Fatal("expected idempotency key header")
	}
	if captured.Amount != "25000" || captured.MerchantNumber != "777" || captured.PhoneNumber != "+255711111111" {
		t.Fatalf("unexpected provider request %+v", captured)
	}
	if captured.OrderID != testOrder().ID.String() {
		t.Fatalf("unexpected order id %s", captured.OrderID)
	}
}

func TestMobileAdapterSendsMajorUnitAmount(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{cents: 200000, want: `"amount":2000,`},
		{cents: 200050, want: `"amount":2000.5,`},
	}
	for _, tc := range cases {
		var body []byte
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ = io.ReadAll(r.Body)
			_, _ = w.Write([]byte(`{"provider_tx_id":"TIGO-1"}`))
		}))

		cfg := config.MobileChannelConfig{Enabled: true, MerchantNumber: "555", APIURL: srv.URL}
		adapter, err := NewMobileAdapter(enums.ChannelTigoPesa, cfg, "TZS", WithHTTPClient(srv.Client()))
		if err != nil {
			t.Fatalf("new adapter: %v", err)
		}
		order := testOrder()
		order.TotalCents = tc.cents
		if _, err := adapter.Initiate(context.Background(), order, "+255700000001"); err != nil {
			t.Fatalf("initiate: %v", err)
		}
		srv.Close()

		if !strings.Contains(string(body), tc.want) {
			t.Fatalf("cents %d: expected %s in %s", tc.cents, tc.want, body)
		}
	}
}

func TestMobileAdapterLiveModeFallsBackToReferenceField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"reference":"VOD-1"}`))
	}))
	defer srv.Close()

	cfg := config.MobileChannelConfig{Enabled: true, MerchantNumber: "1", APIURL: srv.URL}
	adapter, err := NewMobileAdapter(enums.ChannelVodacom, cfg, "TZS", WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	got, err := adapter.Initiate(context.Background(), testOrder(), "")
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if got.Reference != "VOD-1" {
		t.Fatalf("unexpected reference %q", got.Reference)
	}
	if !strings.Contains(got.Instructions, "TZS 25,000") {
		t.Fatalf("expected generic instructions with amount, got %q", got.Instructions)
	}
}

func TestMobileAdapterLiveModeErrors(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"non-2xx": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		},
		"missing reference": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"instructions":"x"}`))
		},
		"bad json": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not-json`))
		},
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()

			cfg := config.MobileChannelConfig{Enabled: true, MerchantNumber: "1", APIURL: srv.URL}
			adapter, err := NewMobileAdapter(enums.ChannelHaloPesa, cfg, "TZS", WithHTTPClient(srv.Client()))
			if err != nil {
				t.Fatalf("new adapter: %v", err)
			}
			_, err = adapter.Initiate(context.Background(), testOrder(), "")
			if err == nil {
				t.Fatal("expected error")
			}
			if code := pkgerrors.CodeOf(err); code != pkgerrors.CodeDependency {
				t.Fatalf("expected dependency error, got %s", code)
			}
		})
	}
}

func TestNewMobileAdapterRejectsBadInput(t *testing.T) {
	if _, err := NewMobileAdapter(enums.ChannelCard, config.MobileChannelConfig{MerchantNumber: "1"}, "TZS"); err == nil {
		t.Fatal("expected card channel to be rejected")
	}
	if _, err := NewMobileAdapter(enums.ChannelTigoPesa, config.MobileChannelConfig{}, "TZS"); err == nil {
		t.Fatal("expected missing merchant number to be rejected")
	}
}

func TestMobileAdapterHandleCallbackSignature(t *testing.T) {
	body := []byte(`{"provider_tx_id":"REF-9","status":"SUCCESS"}`)
	cfg := config.MobileChannelConfig{Enabled: true, MerchantNumber: "1", CallbackSecret: "shh"}
	adapter, err := NewMobileAdapter(enums.ChannelTigoPesa, cfg, "TZS")
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}

	t.Run("valid", func(t *testing.T) {
		headers := http.Header{}
		headers.Set("X-Tigo-Signature", Sign("shh", body))
		res, err := adapter.HandleCallback(context.Background(), body, headers)
		if err != nil {
			t.Fatalf("handle: %v", err)
		}
		if !res.Verified || res.SignatureMismatch {
			t.Fatalf("expected verified result, got %+v", res)
		}
		if res.Outcome != enums.OutcomeSuccess || res.Reference != "REF-9" {
			t.Fatalf("unexpected result %+v", res)
		}
		if res.DeclaredChannel == nil || *res.DeclaredChannel != enums.ChannelTigoPesa {
			t.Fatalf("expected adapter channel to be declared, got %v", res.DeclaredChannel)
		}
	})

	t.Run("mismatch is applied", func(t *testing.T) {
		headers := http.Header{}
		headers.Set("X-Signature", Sign("other", body))
		res, err := adapter.HandleCallback(context.Background(), body, headers)
		if err != nil {
			t.Fatalf("handle: %v", err)
		}
		if res.Verified || !res.SignatureMismatch {
			t.Fatalf("expected mismatch flag, got %+v", res)
		}
	})

	t.Run("unsigned", func(t *testing.T) {
		res, err := adapter.HandleCallback(context.Background(), body, http.Header{})
		if err != nil {
			t.Fatalf("handle: %v", err)
		}
		if res.Verified || res.SignatureMismatch {
			t.Fatalf("expected unverified result, got %+v", res)
		}
	})
}
