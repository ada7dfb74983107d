package cart

import cartsvc "github.com/TheBeardedParaTrooper/LiveBuyNow/internal/cart"

type mergeResponse struct {
	Merged int           `json:"merged"`
	Cart   *cartsvc.View `json:"cart"`
}
