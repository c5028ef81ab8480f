package domain

// LineItem is a desired (variant, quantity) pair prior to purchase.
type LineItem struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// Cart is a session-scoped list of line items, one per variant.
type Cart struct {
	Items []LineItem `json:"items"`
}

// Merge adds qty of the given variant, summing into an existing line
// instead of duplicating it.
func (c *Cart) Merge(variantID string, qty int) {
	for i := range c.Items {
		if c.Items[i].VariantID == variantID {
			c.Items[i].Quantity += qty
			return
		}
	}
	c.Items = append(c.Items, LineItem{VariantID: variantID, Quantity: qty})
}

func (c Cart) Empty() bool { return len(c.Items) == 0 }

// Quantity returns the quantity held for a variant, 0 when absent.
func (c Cart) Quantity(variantID string) int {
	for _, item := range c.Items {
		if item.VariantID == variantID {
			return item.Quantity
		}
	}
	return 0
}
