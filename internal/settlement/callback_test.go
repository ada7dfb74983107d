package settlement

import (
	"net/http"
	"testing"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/enums"
	pkgerrors "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/errors"
)

func TestParseCallback(t *testing.T) {
	res, err := ParseCallback([]byte(`{"provider_tx_id":" T-1 ","status":"failed","provider":"airtel_money"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Reference != "T-1" || res.Outcome != enums.OutcomeFailed {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.DeclaredChannel == nil || *res.DeclaredChannel != enums.ChannelAirtelMoney {
		t.Fatalf("unexpected declared channel %v", res.DeclaredChannel)
	}

	res, err = ParseCallback([]byte(`{"reference":"T-2","status":"paid"}`))
	if err != nil {
		t.Fatalf("parse fallback reference: %v", err)
	}
	if res.Reference != "T-2" || res.Outcome != enums.OutcomeSuccess || res.DeclaredChannel != nil {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestParseCallbackRejectsMalformed(t *testing.T) {
	bodies := []string{
		`not json`,
		`{"status":"success"}`,
		`{"provider_tx_id":"x","status":"maybe"}`,
		`{"provider_tx_id":"x","status":"success","provider":"card"}`,
		`{"provider_tx_id":"x","status":"success","provider":"mpesa-ke"}`,
	}
	for _, body := range bodies {
		_, err := ParseCallback([]byte(body))
		if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("body %s: expected validation error, got %v", body, err)
		}
	}
}

func TestSignatureHelpers(t *testing.T) {
	body := []byte(`{"a":1}`)
	sig := Sign("secret", body)
	if !VerifySignature("secret", body, sig) {
		t.Fatal("expected signature to verify")
	}
	if VerifySignature("secret", body, "zz-not-hex") {
		t.Fatal("expected non-hex signature to fail")
	}
	if VerifySignature("secret", []byte(`{"a":2}`), sig) {
		t.Fatal("expected tampered body to fail")
	}

	headers := http.Header{}
	headers.Set("X-Signature", "generic")
	headers.Set("X-Halo-Signature", "specific")
	if got := FindSignature(enums.ChannelHaloPesa, headers); got != "specific" {
		t.Fatalf("expected channel header to win over generic, got %q", got)
	}
	headers.Set("X-Provider-Signature", "provider")
	if got := FindSignature(enums.ChannelHaloPesa, headers); got != "provider" {
		t.Fatalf("expected provider header first, got %q", got)
	}
}

func TestInstructions(t *testing.T) {
	got := ManualInstructions(enums.ChannelVodacom, false, "TZS", 1000000, "+255", "M1", "R1")
	if got != "M-Pesa: send TZS 10,000 from +255 to M1 and reference R1" {
		t.Fatalf("unexpected manual instructions %q", got)
	}
	got = GenericInstructions(enums.ChannelTigoPesa, "TZS", 2500000)
	if got != "Send TZS 25,000 to Tigo Pesa business number or follow provider prompt." {
		t.Fatalf("unexpected generic instructions %q", got)
	}
}
