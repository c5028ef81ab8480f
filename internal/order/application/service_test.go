package application

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdomain "github.com/zuvees/storefront/internal/cart/domain"
	catalogdomain "github.com/zuvees/storefront/internal/catalog/domain"
	invdomain "github.com/zuvees/storefront/internal/inventory/domain"
	"github.com/zuvees/storefront/internal/order/domain"
)

type fakeCartStore struct {
	carts      map[string]cartdomain.Cart
	getErr     error
	clearErr   error
	clearCalls int
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{carts: map[string]cartdomain.Cart{}}
}

func (f *fakeCartStore) Get(_ context.Context, sessionKey string) (cartdomain.Cart, error) {
	if f.getErr != nil {
		return cartdomain.Cart{}, f.getErr
	}
	return f.carts[sessionKey], nil
}

func (f *fakeCartStore) Clear(_ context.Context, sessionKey string) error {
	f.clearCalls++
	if f.clearErr != nil {
		return f.clearErr
	}
	delete(f.carts, sessionKey)
	return nil
}

type fakeCatalog struct {
	variants map[string]catalogdomain.Variant
}

func (f *fakeCatalog) GetVariant(_ context.Context, id string) (catalogdomain.Variant, error) {
	v, ok := f.variants[id]
	if !ok {
		return catalogdomain.Variant{}, catalogdomain.ErrVariantNotFound
	}
	return v, nil
}

type fakeOrderRepo struct {
	created  []domain.Order
	payloads [][]byte
	err      error
	existing *domain.Order
}

func (f *fakeOrderRepo) CreateWithReservation(_ context.Context, o domain.Order, _ string, payload []byte, _ string) (domain.Order, error) {
	if f.err != nil {
		return domain.Order{}, f.err
	}
	if f.existing != nil {
		return *f.existing, nil
	}
	f.created = append(f.created, o)
	f.payloads = append(f.payloads, payload)
	return o, nil
}

func (f *fakeOrderRepo) Get(_ context.Context, id string) (domain.Order, error) {
	for _, o := range f.created {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func price(cents int64) *int64 { return &cents }

func cartWith(items ...cartdomain.LineItem) cartdomain.Cart {
	var c cartdomain.Cart
	for _, item := range items {
		c.Merge(item.VariantID, item.Quantity)
	}
	return c
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	repo := &fakeOrderRepo{}
	svc := NewService(testLogger(), repo, newFakeCartStore(), &fakeCatalog{})

	_, err := svc.PlaceOrder(context.Background(), "u1", "s1", "")

	pe, ok := domain.AsPlacementError(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindEmptyCart, pe.Kind)
	assert.Empty(t, repo.created)
}

func TestPlaceOrder_VariantNotFound(t *testing.T) {
	cart := newFakeCartStore()
	cart.carts["s1"] = cartWith(cartdomain.LineItem{VariantID: "GONE", Quantity: 1})
	repo := &fakeOrderRepo{}
	svc := NewService(testLogger(), repo, cart, &fakeCatalog{variants: map[string]catalogdomain.Variant{}})

	_, err := svc.PlaceOrder(context.Background(), "u1", "s1", "")

	pe, ok := domain.AsPlacementError(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindVariantNotFound, pe.Kind)
	assert.Equal(t, "GONE", pe.VariantID)
	assert.Empty(t, repo.created)
	assert.Zero(t, cart.clearCalls)
}

func TestPlaceOrder_PricesCapturedFromCatalogAtCommit(t *testing.T) {
	cart := newFakeCartStore()
	cart.carts["s1"] = cartWith(cartdomain.LineItem{VariantID: "V1", Quantity: 2})
	catalog := &fakeCatalog{variants: map[string]catalogdomain.Variant{
		"V1": {ID: "V1", SpecificPriceCents: price(2000), Stock: 10},
	}}
	repo := &fakeOrderRepo{}
	svc := NewService(testLogger(), repo, cart, catalog)

	o, err := svc.PlaceOrder(context.Background(), "u1", "s1", "")
	require.NoError(t, err)

	assert.Equal(t, int64(4000), o.TotalCents)
	require.Len(t, o.Items, 1)
	assert.Equal(t, int64(2000), o.Items[0].PriceCents)
	assert.Equal(t, domain.StatusPaid, o.Status)
	assert.Equal(t, 1, cart.clearCalls)
	assert.True(t, cart.carts["s1"].Empty())
}

func TestPlaceOrder_PriceChangeAfterCartAddIsHonored(t *testing.T) {
	// The cart never stores a price; whatever the catalog says at commit
	// time is what the buyer pays.
	cart := newFakeCartStore()
	cart.carts["s1"] = cartWith(cartdomain.LineItem{VariantID: "V1", Quantity: 1})
	catalog := &fakeCatalog{variants: map[string]catalogdomain.Variant{
		"V1": {ID: "V1", SpecificPriceCents: price(2000), Stock: 10},
	}}
	repo := &fakeOrderRepo{}
	svc := NewService(testLogger(), repo, cart, catalog)

	catalog.variants["V1"] = catalogdomain.Variant{ID: "V1", SpecificPriceCents: price(2500), Stock: 10}
	o, err := svc.PlaceOrder(context.Background(), "u1", "s1", "")
	require.NoError(t, err)

	assert.Equal(t, int64(2500), o.TotalCents)
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	cart := newFakeCartStore()
	cart.carts["s1"] = cartWith(cartdomain.LineItem{VariantID: "V2", Quantity: 5})
	catalog := &fakeCatalog{variants: map[string]catalogdomain.Variant{
		"V2": {ID: "V2", BasePriceCents: 100, Stock: 3},
	}}
	repo := &fakeOrderRepo{err: &invdomain.InsufficientStockError{VariantID: "V2", Available: 3}}
	svc := NewService(testLogger(), repo, cart, catalog)

	_, err := svc.PlaceOrder(context.Background(), "u1", "s1", "")

	pe, ok := domain.AsPlacementError(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindInsufficientStock, pe.Kind)
	assert.Equal(t, "V2", pe.VariantID)
	assert.Equal(t, 3, pe.Available)
	// Nothing mutated: the cart survives for a retry.
	assert.Zero(t, cart.clearCalls)
	assert.Equal(t, 5, cart.carts["s1"].Quantity("V2"))
}

func TestPlaceOrder_CommitFailure(t *testing.T) {
	cart := newFakeCartStore()
	cart.carts["s1"] = cartWith(cartdomain.LineItem{VariantID: "V1", Quantity: 1})
	catalog := &fakeCatalog{variants: map[string]catalogdomain.Variant{
		"V1": {ID: "V1", BasePriceCents: 100, Stock: 5},
	}}
	repo := &fakeOrderRepo{err: errors.New("connection reset")}
	svc := NewService(testLogger(), repo, cart, catalog)

	_, err := svc.PlaceOrder(context.Background(), "u1", "s1", "")

	pe, ok := domain.AsPlacementError(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindCommitFailure, pe.Kind)
	assert.Zero(t, cart.clearCalls)
}

func TestPlaceOrder_CartStoreFailureIsTransient(t *testing.T) {
	cart := newFakeCartStore()
	cart.getErr = errors.New("redis down")
	svc := NewService(testLogger(), &fakeOrderRepo{}, cart, &fakeCatalog{})

	_, err := svc.PlaceOrder(context.Background(), "u1", "s1", "")

	pe, ok := domain.AsPlacementError(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindTransientStorage, pe.Kind)
}

func TestPlaceOrder_DuplicateSubmissionReturnsOriginalOrder(t *testing.T) {
	cart := newFakeCartStore()
	cart.carts["s1"] = cartWith(cartdomain.LineItem{VariantID: "V1", Quantity: 1})
	catalog := &fakeCatalog{variants: map[string]catalogdomain.Variant{
		"V1": {ID: "V1", BasePriceCents: 100, Stock: 5},
	}}
	original := domain.NewOrder("first", "u1", "key-1", []domain.LineItem{
		{VariantID: "V1", Quantity: 1, PriceCents: 100},
	})
	repo := &fakeOrderRepo{existing: &original}
	svc := NewService(testLogger(), repo, cart, catalog)

	o, err := svc.PlaceOrder(context.Background(), "u1", "s1", "key-1")
	require.NoError(t, err)
	assert.Equal(t, "first", o.ID)
	assert.Empty(t, repo.created)
}

func TestPlaceOrder_GeneratesIdempotencyKeyWhenBlank(t *testing.T) {
	cart := newFakeCartStore()
	cart.carts["s1"] = cartWith(cartdomain.LineItem{VariantID: "V1", Quantity: 1})
	catalog := &fakeCatalog{variants: map[string]catalogdomain.Variant{
		"V1": {ID: "V1", BasePriceCents: 100, Stock: 5},
	}}
	repo := &fakeOrderRepo{}
	svc := NewService(testLogger(), repo, cart, catalog)

	_, err := svc.PlaceOrder(context.Background(), "u1", "s1", "")
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	assert.NotEmpty(t, repo.created[0].IdempotencyKey)
}

func TestPlaceOrder_ClearFailureDoesNotFailThePlacement(t *testing.T) {
	cart := newFakeCartStore()
	cart.carts["s1"] = cartWith(cartdomain.LineItem{VariantID: "V1", Quantity: 1})
	cart.clearErr = errors.New("redis down")
	catalog := &fakeCatalog{variants: map[string]catalogdomain.Variant{
		"V1": {ID: "V1", BasePriceCents: 100, Stock: 5},
	}}
	repo := &fakeOrderRepo{}
	svc := NewService(testLogger(), repo, cart, catalog)

	o, err := svc.PlaceOrder(context.Background(), "u1", "s1", "")
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
}

func TestPlaceOrder_OutboxPayloadMatchesOrder(t *testing.T) {
	cart := newFakeCartStore()
	cart.carts["s1"] = cartWith(cartdomain.LineItem{VariantID: "V1", Quantity: 2})
	catalog := &fakeCatalog{variants: map[string]catalogdomain.Variant{
		"V1": {ID: "V1", BasePriceCents: 150, Stock: 5},
	}}
	repo := &fakeOrderRepo{}
	svc := NewService(testLogger(), repo, cart, catalog)

	o, err := svc.PlaceOrder(context.Background(), "u1", "s1", "")
	require.NoError(t, err)

	require.Len(t, repo.payloads, 1)
	var event domain.OrderPlaced
	require.NoError(t, json.Unmarshal(repo.payloads[0], &event))
	assert.Equal(t, o.ID, event.OrderID)
	assert.Equal(t, int64(300), event.TotalCents)
}
