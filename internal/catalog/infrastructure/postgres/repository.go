package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zuvees/storefront/internal/catalog/domain"
)

// Repository is the read path of the catalog. Stock on the returned
// variant is a snapshot; only the inventory reserver may change it.
type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) GetVariant(ctx context.Context, id string) (domain.Variant, error) {
	var v domain.Variant
	err := r.pool.QueryRow(ctx, `
		SELECT v.id, v.product_id, p.name, v.sku, v.color, v.size, v.specific_price_cents, p.base_price_cents, v.stock
		FROM variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.id = $1
	`, id).Scan(&v.ID, &v.ProductID, &v.ProductName, &v.SKU, &v.Color, &v.Size, &v.SpecificPriceCents, &v.BasePriceCents, &v.Stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Variant{}, domain.ErrVariantNotFound
	}
	if err != nil {
		return domain.Variant{}, err
	}
	return v, nil
}
