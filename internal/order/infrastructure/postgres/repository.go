package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	invdomain "github.com/zuvees/storefront/internal/inventory/domain"
	invpg "github.com/zuvees/storefront/internal/inventory/infrastructure/postgres"
	"github.com/zuvees/storefront/internal/order/domain"
)

// Repository commits placements. Stock decrements, the order row, its
// items and the outbox event all land in one transaction, so a failure
// anywhere rolls everything back: callers never observe decremented
// stock without a matching order.
type Repository struct {
	log      *slog.Logger
	pool     *pgxpool.Pool
	reserver *invpg.Reserver
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool, reserver *invpg.Reserver) *Repository {
	return &Repository{log: log, pool: pool, reserver: reserver}
}

func (r *Repository) CreateWithReservation(ctx context.Context, o domain.Order, eventType string, payload []byte, traceparent string) (domain.Order, error) {
	// Fast path for retried submissions. The unique index below is the
	// authoritative guard; this just skips the wasted reserve/rollback.
	existing, err := r.getByIdempotencyKey(ctx, o.IdempotencyKey)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrOrderNotFound) {
		return domain.Order{}, err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Order{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	batch := make([]invdomain.Reservation, 0, len(o.Items))
	for _, item := range o.Items {
		batch = append(batch, invdomain.Reservation{VariantID: item.VariantID, Quantity: item.Quantity})
	}
	if err := r.reserver.ReserveTx(ctx, tx, batch); err != nil {
		return domain.Order{}, err
	}

	_, err = tx.Exec(ctx, `INSERT INTO orders (id, user_id, idempotency_key, total_cents, status, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		o.ID, o.UserID, o.IdempotencyKey, o.TotalCents, o.Status, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			// A retry of an already-committed placement. Roll back this
			// attempt's decrements and hand back the original order.
			_ = tx.Rollback(ctx)
			r.log.Info("duplicate placement suppressed", "idempotency_key", o.IdempotencyKey)
			return r.getByIdempotencyKey(ctx, o.IdempotencyKey)
		}
		return domain.Order{}, err
	}

	items := &pgx.Batch{}
	for _, item := range o.Items {
		items.Queue(`INSERT INTO order_items (order_id, variant_id, quantity, price_cents) VALUES ($1,$2,$3,$4)`,
			o.ID, item.VariantID, item.Quantity, item.PriceCents)
	}
	if err := tx.SendBatch(ctx, items).Close(); err != nil {
		return domain.Order{}, err
	}

	_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status)
			VALUES ('order',$1,$2,$3,$4,'pending')`,
		o.ID, eventType, payload, traceparent)
	if err != nil {
		return domain.Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Order, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *Repository) getByIdempotencyKey(ctx context.Context, key string) (domain.Order, error) {
	return r.getOne(ctx, `WHERE idempotency_key = $1`, key)
}

func (r *Repository) getOne(ctx context.Context, where string, arg any) (domain.Order, error) {
	var o domain.Order
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, idempotency_key, total_cents, status, created_at, updated_at FROM orders `+where, arg).
		Scan(&o.ID, &o.UserID, &o.IdempotencyKey, &o.TotalCents, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}

	rows, err := r.pool.Query(ctx, `SELECT variant_id, quantity, price_cents FROM order_items WHERE order_id = $1`, o.ID)
	if err != nil {
		return domain.Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var item domain.LineItem
		if err := rows.Scan(&item.VariantID, &item.Quantity, &item.PriceCents); err != nil {
			return domain.Order{}, err
		}
		o.Items = append(o.Items, item)
	}
	return o, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
