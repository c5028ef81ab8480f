package application

import (
	"context"

	cartdomain "github.com/zuvees/storefront/internal/cart/domain"
	catalogdomain "github.com/zuvees/storefront/internal/catalog/domain"
)

type CartStore interface {
	Get(ctx context.Context, sessionKey string) (cartdomain.Cart, error)
	Save(ctx context.Context, sessionKey string, cart cartdomain.Cart) error
	Clear(ctx context.Context, sessionKey string) error
}

type CatalogStore interface {
	GetVariant(ctx context.Context, id string) (catalogdomain.Variant, error)
}
