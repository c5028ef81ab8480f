package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	catalogdomain "github.com/zuvees/storefront/internal/catalog/domain"
)

var ErrInvalidQuantity = errors.New("quantity must be a positive integer")

// StockExceededError rejects an add-item request whose quantity is not
// covered by the current stock snapshot. It is a courtesy check only;
// placement re-validates against live stock.
type StockExceededError struct {
	VariantID string
	Available int
}

func (e *StockExceededError) Error() string {
	return fmt.Sprintf("not enough stock for variant %s: only %d available", e.VariantID, e.Available)
}

type Service struct {
	log     *slog.Logger
	store   CartStore
	catalog CatalogStore
}

func NewService(log *slog.Logger, store CartStore, catalog CatalogStore) *Service {
	return &Service{log: log, store: store, catalog: catalog}
}

// AddItem merges qty of a variant into the session cart. The variant must
// exist and the requested quantity must fit the current stock snapshot.
func (s *Service) AddItem(ctx context.Context, sessionKey, variantID string, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}

	v, err := s.catalog.GetVariant(ctx, variantID)
	if err != nil {
		return err
	}
	if v.Stock < qty {
		return &StockExceededError{VariantID: variantID, Available: v.Stock}
	}

	cart, err := s.store.Get(ctx, sessionKey)
	if err != nil {
		return err
	}
	cart.Merge(variantID, qty)
	return s.store.Save(ctx, sessionKey, cart)
}

// DetailLine is one cart line priced against the live catalog.
type DetailLine struct {
	VariantID     string `json:"variant_id"`
	ProductName   string `json:"product_name"`
	Color         string `json:"color"`
	Size          string `json:"size"`
	Quantity      int    `json:"quantity"`
	UnitCents     int64  `json:"unit_cents"`
	SubtotalCents int64  `json:"subtotal_cents"`
	Stock         int    `json:"stock"`
	ExceedsStock  bool   `json:"exceeds_stock"`
}

type Detail struct {
	Lines      []DetailLine `json:"lines"`
	TotalCents int64        `json:"total_cents"`
}

// Detail prices the cart from the current catalog. Lines whose variant
// has since disappeared are dropped from the view; the placement engine
// is the one that treats them as an error.
func (s *Service) Detail(ctx context.Context, sessionKey string) (Detail, error) {
	cart, err := s.store.Get(ctx, sessionKey)
	if err != nil {
		return Detail{}, err
	}

	var d Detail
	for _, line := range cart.Items {
		v, err := s.catalog.GetVariant(ctx, line.VariantID)
		if errors.Is(err, catalogdomain.ErrVariantNotFound) {
			// The variant was removed after it was carted; only then may
			// the line be dropped from the view.
			s.log.Warn("cart line skipped", "variant_id", line.VariantID, "err", err)
			continue
		}
		if err != nil {
			return Detail{}, err
		}
		unit := v.PriceCents()
		subtotal := unit * int64(line.Quantity)
		d.Lines = append(d.Lines, DetailLine{
			VariantID:     v.ID,
			ProductName:   v.ProductName,
			Color:         v.Color,
			Size:          v.Size,
			Quantity:      line.Quantity,
			UnitCents:     unit,
			SubtotalCents: subtotal,
			Stock:         v.Stock,
			ExceedsStock:  line.Quantity > v.Stock,
		})
		d.TotalCents += subtotal
	}
	return d, nil
}

func (s *Service) Clear(ctx context.Context, sessionKey string) error {
	return s.store.Clear(ctx, sessionKey)
}
