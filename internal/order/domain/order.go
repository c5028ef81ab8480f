package domain

import "time"

type OrderStatus string

const (
	// StatusPaid is terminal for the placement flow: payment capture is
	// mocked upstream, so a committed order starts (and stays) paid here.
	StatusPaid      OrderStatus = "paid"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
)

type Order struct {
	ID             string
	UserID         string
	IdempotencyKey string
	Items          []LineItem
	TotalCents     int64
	Status         OrderStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LineItem records the unit price captured from the catalog at commit
// time. Client input never prices a line.
type LineItem struct {
	VariantID  string
	Quantity   int
	PriceCents int64
}

func NewOrder(id, userID, idempotencyKey string, items []LineItem) Order {
	var total int64
	for _, item := range items {
		total += int64(item.Quantity) * item.PriceCents
	}
	now := time.Now().UTC()
	return Order{
		ID:             id,
		UserID:         userID,
		IdempotencyKey: idempotencyKey,
		Items:          items,
		TotalCents:     total,
		Status:         StatusPaid,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
