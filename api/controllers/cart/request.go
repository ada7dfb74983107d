package cart

import "github.com/google/uuid"

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  *int      `json:"quantity,omitempty" validate:"omitempty,gte=1"`
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}

type mergeRequest struct {
	GuestToken string `json:"guest_token" validate:"required,min=8,max=128"`
}
