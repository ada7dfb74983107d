package checkout

import (
	"github.com/google/uuid"

	pkgcheckout "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/checkout"
	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/db/models"
)

// priceLines snapshots name and price for every claimed line. All lines must
// resolve to active products.
func priceLines(claimed []models.CartLine, catalog map[uuid.UUID]models.Product) ([]models.OrderLine, int64, error) {
	checks := make([]pkgcheckout.LineCheck, 0, len(claimed))
	for _, line := range claimed {
		p, ok := catalog[line.ProductID]
		checks = append(checks, pkgcheckout.LineCheck{
			ProductID:   line.ProductID,
			ProductName: p.Name,
			Found:       ok,
			Active:      ok && p.IsActive,
			Quantity:    line.Quantity,
		})
	}
	if err := pkgcheckout.ValidateLines(checks); err != nil {
		return nil, 0, err
	}

	lines := make([]models.OrderLine, 0, len(claimed))
	var total int64
	for _, line := range claimed {
		p := catalog[line.ProductID]
		productID := line.ProductID
		subtotal := p.PriceCents * int64(line.Quantity)
		total += subtotal
		lines = append(lines, models.OrderLine{
			ProductID:      &productID,
			ProductName:    p.Name,
			UnitPriceCents: p.PriceCents,
			Quantity:       line.Quantity,
			SubtotalCents:  subtotal,
		})
	}
	return lines, total, nil
}
