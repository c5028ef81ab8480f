package domain

import (
	"errors"
	"fmt"
)

var ErrOrderNotFound = errors.New("order not found")

type ErrorKind string

const (
	KindEmptyCart         ErrorKind = "empty_cart"
	KindVariantNotFound   ErrorKind = "variant_not_found"
	KindInsufficientStock ErrorKind = "insufficient_stock"
	KindCommitFailure     ErrorKind = "commit_failure"
	KindTransientStorage  ErrorKind = "transient_storage"
)

// PlacementError is the typed result of a failed placement attempt.
// EmptyCart, VariantNotFound and InsufficientStock left nothing mutated
// and are safe to surface and retry; CommitFailure means the whole
// transaction rolled back.
type PlacementError struct {
	Kind      ErrorKind
	VariantID string
	Available int
	Err       error
}

func (e *PlacementError) Error() string {
	switch e.Kind {
	case KindEmptyCart:
		return "cart is empty"
	case KindVariantNotFound:
		return fmt.Sprintf("variant %s not found", e.VariantID)
	case KindInsufficientStock:
		return fmt.Sprintf("insufficient stock for variant %s: %d available", e.VariantID, e.Available)
	case KindCommitFailure:
		return fmt.Sprintf("order commit failed: %v", e.Err)
	case KindTransientStorage:
		return fmt.Sprintf("transient storage error: %v", e.Err)
	}
	return "placement failed"
}

func (e *PlacementError) Unwrap() error { return e.Err }

// AsPlacementError unwraps err into a PlacementError when one is present.
func AsPlacementError(err error) (*PlacementError, bool) {
	var pe *PlacementError
	ok := errors.As(err, &pe)
	return pe, ok
}
