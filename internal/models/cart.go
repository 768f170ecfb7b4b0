package models

type CartLine struct {
	Product  Product  `json:"product"`
	Quantity int      `json:"quantity"`
	Meters   *float64 `json:"meters,omitempty"`
}

// Subtotal prices a length-sold line by its meters (zero when unset) and any
// other line by its quantity.
func (l CartLine) Subtotal() float64 {
	price := l.Product.EffectiveUnitPrice()

	if l.Product.IsLengthSold() {
		if l.Meters == nil {
			return 0
		}
		return price * *l.Meters
	}

	return price * float64(l.Quantity)
}

type Cart struct {
	Items      []CartLine `json:"items"`
	TotalItems int        `json:"totalItems"`
	TotalPrice float64    `json:"totalPrice"`
}

type AddItemRequest struct {
	ProductID string   `json:"productId" validate:"required"`
	Quantity  int      `json:"quantity" validate:"required,min=1"`
	Meters    *float64 `json:"meters,omitempty" validate:"omitempty,gt=0"`
}

type UpdateQuantityRequest struct {
	Quantity int      `json:"quantity"`
	Meters   *float64 `json:"meters,omitempty" validate:"omitempty,gt=0"`
}
