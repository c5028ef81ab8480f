package redis

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zuvees/storefront/internal/cart/domain"
)

func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client), mr
}

func TestGet_AbsentKeyReturnsEmptyCart(t *testing.T) {
	store, _ := setupTestStore(t)

	cart, err := store.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.True(t, cart.Empty())
}

func TestSaveAndGet_Roundtrip(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	var cart domain.Cart
	cart.Merge("V1", 2)
	cart.Merge("V2", 1)
	require.NoError(t, store.Save(ctx, "s1", cart))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, cart.Items, got.Items)
}

func TestSave_SetsTTL(t *testing.T) {
	store, mr := setupTestStore(t)

	var cart domain.Cart
	cart.Merge("V1", 1)
	require.NoError(t, store.Save(context.Background(), "s1", cart))

	assert.Greater(t, mr.TTL(cartKey("s1")).Hours(), float64(0))
}

func TestClear_RemovesCart(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	var cart domain.Cart
	cart.Merge("V1", 1)
	require.NoError(t, store.Save(ctx, "s1", cart))
	require.NoError(t, store.Clear(ctx, "s1"))

	assert.False(t, mr.Exists(cartKey("s1")))
	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestGet_CorruptValueFails(t *testing.T) {
	store, mr := setupTestStore(t)
	require.NoError(t, mr.Set(cartKey("s1"), "{not json"))

	_, err := store.Get(context.Background(), "s1")
	assert.Error(t, err)
}

func TestSave_LastWriteWins(t *testing.T) {
	// Two tabs on one session are not synchronized; the store keeps
	// whichever write lands last.
	store, mr := setupTestStore(t)
	ctx := context.Background()

	var first domain.Cart
	first.Merge("V1", 1)
	require.NoError(t, store.Save(ctx, "s1", first))

	var second domain.Cart
	second.Merge("V2", 5)
	require.NoError(t, store.Save(ctx, "s1", second))

	raw, err := mr.Get(cartKey("s1"))
	require.NoError(t, err)
	var got domain.Cart
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, second.Items, got.Items)
}
