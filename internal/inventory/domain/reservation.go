package domain

import "fmt"

// Reservation asks for qty units of a variant's stock.
type Reservation struct {
	VariantID string
	Quantity  int
}

// InsufficientStockError reports the variant that could not be reserved
// and how many units were actually available when the attempt failed.
type InsufficientStockError struct {
	VariantID string
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for variant %s: %d available", e.VariantID, e.Available)
}
