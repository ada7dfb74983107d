package checkout

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/errors"
)

// LineCheck describes one claimed cart line and the catalog row it resolved to.
type LineCheck struct {
	ProductID   uuid.UUID
	ProductName string
	Found       bool
	Active      bool
	Quantity    int
}

// LineViolation is returned to callers when a line cannot be ordered.
type LineViolation struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name,omitempty"`
	Reason      string    `json:"reason"`
}

const (
	ReasonMissing  = "product_not_found"
	ReasonInactive = "product_inactive"
	ReasonQuantity = "invalid_quantity"
)

// ValidateLines ensures every claimed line points at an active product with a
// positive quantity. All violations are reported together.
func ValidateLines(lines []LineCheck) error {
	var violations []LineViolation
	for _, line := range lines {
		reason := ""
		switch {
		case !line.Found:
			reason = ReasonMissing
		case !line.Active:
			reason = ReasonInactive
		case line.Quantity < 1:
			reason = ReasonQuantity
		}
		if reason == "" {
			continue
		}
		violations = append(violations, LineViolation{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Reason:      reason,
		})
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%d cart item(s) can no longer be ordered", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}
