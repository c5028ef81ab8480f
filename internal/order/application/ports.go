package application

import (
	"context"

	cartdomain "github.com/zuvees/storefront/internal/cart/domain"
	catalogdomain "github.com/zuvees/storefront/internal/catalog/domain"
	"github.com/zuvees/storefront/internal/order/domain"
)

type CartStore interface {
	Get(ctx context.Context, sessionKey string) (cartdomain.Cart, error)
	Clear(ctx context.Context, sessionKey string) error
}

type CatalogStore interface {
	GetVariant(ctx context.Context, id string) (catalogdomain.Variant, error)
}

type OrderRepository interface {
	// CreateWithReservation persists the order, decrements stock for every
	// line item and queues the outbox event, all in one transaction. When
	// the idempotency key was already committed it returns that order and
	// mutates nothing.
	CreateWithReservation(ctx context.Context, o domain.Order, eventType string, payload []byte, traceparent string) (domain.Order, error)
	Get(ctx context.Context, id string) (domain.Order, error)
}
