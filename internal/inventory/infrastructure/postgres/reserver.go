package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zuvees/storefront/internal/inventory/domain"
)

// Reserver is the only writer of variant stock. Each decrement is a
// single conditional UPDATE, so two racing reservations can never both
// take the last units: the row lock serializes them and the stock >= qty
// predicate fails the loser.
type Reserver struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewReserver(log *slog.Logger, pool *pgxpool.Pool) *Reserver {
	return &Reserver{log: log, pool: pool}
}

// ReserveTx decrements stock for every reservation in the batch inside
// the caller's transaction. The first variant without enough stock aborts
// with InsufficientStockError; rolling back the transaction undoes any
// decrements already applied, so the batch is all-or-nothing.
func (r *Reserver) ReserveTx(ctx context.Context, tx pgx.Tx, batch []domain.Reservation) error {
	for _, res := range batch {
		ct, err := tx.Exec(ctx,
			`UPDATE variants SET stock = stock - $2 WHERE id = $1 AND stock >= $2`,
			res.VariantID, res.Quantity)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			var available int
			err := tx.QueryRow(ctx, `SELECT stock FROM variants WHERE id = $1`, res.VariantID).Scan(&available)
			if errors.Is(err, pgx.ErrNoRows) {
				return &domain.InsufficientStockError{VariantID: res.VariantID, Available: 0}
			}
			if err != nil {
				return err
			}
			r.log.Info("reservation rejected", "variant_id", res.VariantID, "requested", res.Quantity, "available", available)
			return &domain.InsufficientStockError{VariantID: res.VariantID, Available: available}
		}
	}
	return nil
}

// Reserve runs a batch in its own transaction. Note there is no
// idempotency here: calling Reserve twice decrements twice. Callers that
// need exactly-once must bring their own key (the placement engine does).
func (r *Reserver) Reserve(ctx context.Context, batch []domain.Reservation) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := r.ReserveTx(ctx, tx, batch); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
