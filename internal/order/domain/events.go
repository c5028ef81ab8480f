package domain

// OrderPlaced is queued on the outbox in the same transaction that
// commits the order and its stock decrements.
type OrderPlaced struct {
	OrderID    string
	UserID     string
	TotalCents int64
	Items      []LineItem
}
