package application

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	catalogdomain "github.com/zuvees/storefront/internal/catalog/domain"
	invdomain "github.com/zuvees/storefront/internal/inventory/domain"
	"github.com/zuvees/storefront/internal/order/domain"
	"github.com/zuvees/storefront/pkg/tracing"
)

// Service converts a session cart into a committed order. Per attempt:
// load the cart, re-price every line from the live catalog, then reserve
// stock and persist the order in one transaction. Nothing is mutated on
// any failure before the commit.
type Service struct {
	log     *slog.Logger
	repo    OrderRepository
	cart    CartStore
	catalog CatalogStore
}

func NewService(log *slog.Logger, repo OrderRepository, cart CartStore, catalog CatalogStore) *Service {
	return &Service{log: log, repo: repo, cart: cart, catalog: catalog}
}

// PlaceOrder places an order for the caller's session cart. idemKey
// dedupes retried submissions; when blank a fresh key is generated and
// the attempt is not protected against client retries.
func (s *Service) PlaceOrder(ctx context.Context, userID, sessionKey, idemKey string) (domain.Order, error) {
	cart, err := s.cart.Get(ctx, sessionKey)
	if err != nil {
		return domain.Order{}, &domain.PlacementError{Kind: domain.KindTransientStorage, Err: err}
	}
	if cart.Empty() {
		return domain.Order{}, &domain.PlacementError{Kind: domain.KindEmptyCart}
	}

	items := make([]domain.LineItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		v, err := s.catalog.GetVariant(ctx, line.VariantID)
		if errors.Is(err, catalogdomain.ErrVariantNotFound) {
			return domain.Order{}, &domain.PlacementError{Kind: domain.KindVariantNotFound, VariantID: line.VariantID}
		}
		if err != nil {
			return domain.Order{}, &domain.PlacementError{Kind: domain.KindTransientStorage, Err: err}
		}
		items = append(items, domain.LineItem{
			VariantID:  line.VariantID,
			Quantity:   line.Quantity,
			PriceCents: v.PriceCents(),
		})
	}

	if idemKey == "" {
		idemKey = uuid.NewString()
	}
	o := domain.NewOrder(uuid.NewString(), userID, idemKey, items)

	payload, err := json.Marshal(domain.OrderPlaced{
		OrderID:    o.ID,
		UserID:     o.UserID,
		TotalCents: o.TotalCents,
		Items:      o.Items,
	})
	if err != nil {
		return domain.Order{}, &domain.PlacementError{Kind: domain.KindCommitFailure, Err: err}
	}

	committed, err := s.repo.CreateWithReservation(ctx, o, "OrderPlaced", payload, tracing.TraceparentFromContext(ctx))
	if err != nil {
		var insufficient *invdomain.InsufficientStockError
		if errors.As(err, &insufficient) {
			return domain.Order{}, &domain.PlacementError{
				Kind:      domain.KindInsufficientStock,
				VariantID: insufficient.VariantID,
				Available: insufficient.Available,
			}
		}
		return domain.Order{}, &domain.PlacementError{Kind: domain.KindCommitFailure, Err: err}
	}

	// The order is committed; a failed clear only means the next placement
	// attempt sees a stale cart, it cannot double-charge or double-reserve.
	if err := s.cart.Clear(ctx, sessionKey); err != nil {
		s.log.Error("cart clear after commit failed", "order_id", committed.ID, "err", err)
	}

	s.log.Info("order placed", "order_id", committed.ID, "user_id", userID, "total_cents", committed.TotalCents)
	return committed, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Order, error) {
	return s.repo.Get(ctx, id)
}
