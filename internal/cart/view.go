package cart

import (
	"github.com/google/uuid"

	"github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/money"
)

// View is the cart as returned to clients, priced from the current catalog.
type View struct {
	Lines           []LineView `json:"lines"`
	ItemCount       int        `json:"item_count"`
	SubtotalCents   int64      `json:"subtotal_cents"`
	SubtotalDisplay string     `json:"subtotal_display"`
	Currency        string     `json:"currency"`
}

type LineView struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	ImageURL       *string   `json:"image_url,omitempty"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	Quantity       int       `json:"quantity"`
	LineTotalCents int64     `json:"line_total_cents"`
	Available      bool      `json:"available"`
}

// buildView prices available lines; lines whose product is gone or inactive
// are listed but excluded from the subtotal.
func buildView(rows []LineRow, currency string) *View {
	view := &View{Lines: make([]LineView, 0, len(rows)), Currency: currency}
	for _, row := range rows {
		line := LineView{
			ID:        row.ID,
			ProductID: row.ProductID,
			Quantity:  row.Quantity,
			ImageURL:  row.ImageURL,
		}
		if row.Name != nil {
			line.Name = *row.Name
		}
		if row.PriceCents != nil {
			line.UnitPriceCents = *row.PriceCents
		}
		line.Available = row.Name != nil && row.IsActive != nil && *row.IsActive
		if line.Available {
			line.LineTotalCents = line.UnitPriceCents * int64(line.Quantity)
			view.SubtotalCents += line.LineTotalCents
			view.ItemCount += line.Quantity
		}
		view.Lines = append(view.Lines, line)
	}
	view.SubtotalDisplay = money.Label(currency, view.SubtotalCents)
	return view
}
