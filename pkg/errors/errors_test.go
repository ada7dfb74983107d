package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeChannelUnavailable, status: http.StatusServiceUnavailable, publicMsg: "payment channel unavailable", retryable: true, detailsOK: true},
		{code: CodeIntegrity, status: http.StatusInternalServerError, publicMsg: "internal server error"},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusBadGateway, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("duplicate key value")
	err := Wrap(CodeIntegrity, cause, "assign reference")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable")
	}
	if err.Error() != "INTEGRITY_ERROR: assign reference: duplicate key value" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}

func TestAsAndCodeOf(t *testing.T) {
	typed := New(CodeNotFound, "order not found").WithDetails(map[string]string{"order_id": "x"})
	wrapped := fmt.Errorf("lookup: %w", typed)

	got := As(wrapped)
	if got == nil || got.Code() != CodeNotFound {
		t.Fatalf("expected not found error, got %v", got)
	}
	if got.Details() == nil {
		t.Fatal("expected details to survive wrapping")
	}
	if CodeOf(stdErrors.New("plain")) != CodeInternal {
		t.Fatal("plain errors should map to internal")
	}
	if As(nil) != nil {
		t.Fatal("As(nil) should be nil")
	}
}

func TestIsCodeWalksChain(t *testing.T) {
	inner := New(CodeChannelUnavailable, "tigo_pesa not configured")
	outer := Wrap(CodeDependency, inner, "initiate")

	if !IsCode(outer, CodeChannelUnavailable) {
		t.Fatal("expected inner code to be found")
	}
	if !IsCode(outer, CodeDependency) {
		t.Fatal("expected outer code to be found")
	}
	if IsCode(outer, CodeNotFound) {
		t.Fatal("did not expect not found code")
	}
}

func TestDumpIncludesChain(t *testing.T) {
	err := Wrap(CodeInternal, stdErrors.New("tx aborted"), "create order")
	d := Dump(err)
	if d.Code != CodeInternal {
		t.Fatalf("expected internal code, got %s", d.Code)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %v", d.Chain)
	}
}

func TestSQLStateFromDrivers(t *testing.T) {
	pgx := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "ux_orders_channel_reference"})
	code, constraint := SQLState(pgx)
	if code != "23505" || constraint != "ux_orders_channel_reference" {
		t.Fatalf("unexpected pgx state %q %q", code, constraint)
	}

	pqErr := &pq.Error{Code: "23514", Constraint: "ck_cart_lines_owner"}
	code, constraint = SQLState(pqErr)
	if code != "23514" || constraint != "ck_cart_lines_owner" {
		t.Fatalf("unexpected pq state %q %q", code, constraint)
	}

	if code, _ := SQLState(stdErrors.New("plain")); code != "" {
		t.Fatalf("expected no code, got %q", code)
	}

	d := Dump(pgx)
	if d.PGConstraint != "ux_orders_channel_reference" {
		t.Fatalf("expected constraint in dump, got %+v", d)
	}
}
