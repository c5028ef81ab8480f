package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invdomain "github.com/zuvees/storefront/internal/inventory/domain"
	invpg "github.com/zuvees/storefront/internal/inventory/infrastructure/postgres"
)

func TestReserver_StandaloneBatch(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	variantID := seedVariant(t, s.pool, 1000, 10)
	reserver := invpg.NewReserver(s.log, s.pool)

	require.NoError(t, reserver.Reserve(ctx, []invdomain.Reservation{{VariantID: variantID, Quantity: 2}}))
	assert.Equal(t, 8, stockOf(t, s.pool, variantID))

	// The primitive is deliberately not idempotent: a second call takes
	// two more units.
	require.NoError(t, reserver.Reserve(ctx, []invdomain.Reservation{{VariantID: variantID, Quantity: 2}}))
	assert.Equal(t, 6, stockOf(t, s.pool, variantID))
}

func TestReserver_RejectsWithoutPartialDecrement(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	first := seedVariant(t, s.pool, 1000, 10)
	second := seedVariant(t, s.pool, 1000, 1)
	reserver := invpg.NewReserver(s.log, s.pool)

	err := reserver.Reserve(ctx, []invdomain.Reservation{
		{VariantID: first, Quantity: 3},
		{VariantID: second, Quantity: 2},
	})

	var insufficient *invdomain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, second, insufficient.VariantID)
	assert.Equal(t, 1, insufficient.Available)

	assert.Equal(t, 10, stockOf(t, s.pool, first))
	assert.Equal(t, 1, stockOf(t, s.pool, second))
}

func TestReserver_UnknownVariantReportsZeroAvailable(t *testing.T) {
	s := newStack(t)

	err := invpg.NewReserver(s.log, s.pool).Reserve(context.Background(),
		[]invdomain.Reservation{{VariantID: "does-not-exist", Quantity: 1}})

	var insufficient *invdomain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 0, insufficient.Available)
}
