package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/errors"
)

type sampleBody struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
	Channel   string `json:"channel,omitempty" validate:"omitempty,oneof=card tigo_pesa"`
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":"nope","quantity":0,"channel":"cash"}`))
	var body sampleBody
	err := DecodeJSONBody(req, &body)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error")
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", typed.Details())
	}
	if details["product_id"] != "must be a valid uuid" {
		t.Fatalf("unexpected product_id message %q", details["product_id"])
	}
	if details["quantity"] != "must be at least 1" {
		t.Fatalf("unexpected quantity message %q", details["quantity"])
	}
	if !strings.HasPrefix(details["channel"], "must be one of") {
		t.Fatalf("unexpected channel message %q", details["channel"])
	}
}

func TestDecodeJSONBodyRejectsUnknownAndEmpty(t *testing.T) {
	var body sampleBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"extra":1}`))
	if err := DecodeJSONBody(req, &body); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for unknown field, got %v", err)
	}

	empty := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if err := DecodeJSONBody(empty, &body); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty body, got %v", err)
	}
}

func TestParseQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&order_id=bad", nil)
	if _, err := ParseQueryInt(req, "limit", 20, 1, 100); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected range error, got %v", err)
	}
	if v, err := ParseQueryInt(req, "missing", 20, 1, 100); err != nil || v != 20 {
		t.Fatalf("expected default 20, got %d %v", v, err)
	}
	if _, err := ParseQueryUUID(req, "order_id"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected uuid error, got %v", err)
	}
	if id, err := ParseQueryUUID(req, "reference"); err != nil || id != nil {
		t.Fatalf("expected nil for absent param, got %v %v", id, err)
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  hello world  ", 5); got != "hello" {
		t.Fatalf("unexpected sanitize result %q", got)
	}
}

func TestSanitizeStringKeepsRunesWhole(t *testing.T) {
	// "Nairobi é" is 10 bytes; a 9 byte cap lands inside the last rune.
	if got := SanitizeString("Nairobi é", 9); got != "Nairobi" {
		t.Fatalf("unexpected truncation %q", got)
	}
}

func TestSanitizeStringDropsControlCharacters(t *testing.T) {
	if got := SanitizeString("Plot 12\x00\x07\nGate B", 0); got != "Plot 12\nGate B" {
		t.Fatalf("unexpected sanitize result %q", got)
	}
}
