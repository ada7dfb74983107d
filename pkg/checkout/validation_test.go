package checkout

import (
	"testing"

	"github.com/google/uuid"

	pkgerrors "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/errors"
)

func TestValidateLinesAllValid(t *testing.T) {
	err := ValidateLines([]LineCheck{
		{ProductID: uuid.New(), Found: true, Active: true, Quantity: 1},
		{ProductID: uuid.New(), Found: true, Active: true, Quantity: 4},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateLinesCollectsViolations(t *testing.T) {
	missing := uuid.New()
	inactive := uuid.New()
	err := ValidateLines([]LineCheck{
		{ProductID: missing, Quantity: 1},
		{ProductID: inactive, ProductName: "Kanga", Found: true, Quantity: 2},
		{ProductID: uuid.New(), Found: true, Active: true, Quantity: 0},
		{ProductID: uuid.New(), Found: true, Active: true, Quantity: 1},
	})
	if err == nil {
		t.Fatal("expected validation error")
	}

	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("unexpected details type %T", typed.Details())
	}
	violations, ok := details["violations"].([]LineViolation)
	if !ok || len(violations) != 3 {
		t.Fatalf("expected 3 violations, got %#v", details["violations"])
	}
	if violations[0].ProductID != missing || violations[0].Reason != ReasonMissing {
		t.Fatalf("unexpected first violation %+v", violations[0])
	}
	if violations[1].ProductID != inactive || violations[1].Reason != ReasonInactive {
		t.Fatalf("unexpected second violation %+v", violations[1])
	}
	if violations[2].Reason != ReasonQuantity {
		t.Fatalf("unexpected third violation %+v", violations[2])
	}
}
