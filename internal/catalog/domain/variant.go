package domain

import "errors"

var ErrVariantNotFound = errors.New("variant not found")

// Variant is a purchasable SKU-level unit of a product. Stock is mutated
// only through the inventory reserver, never read-then-written elsewhere.
type Variant struct {
	ID                 string
	ProductID          string
	ProductName        string
	SKU                string
	Color              string
	Size               string
	SpecificPriceCents *int64
	BasePriceCents     int64
	Stock              int
}

// PriceCents is the amount a buyer pays per unit right now: the variant's
// own sale price when set, otherwise the product's base price.
func (v Variant) PriceCents() int64 {
	if v.SpecificPriceCents != nil {
		return *v.SpecificPriceCents
	}
	return v.BasePriceCents
}
