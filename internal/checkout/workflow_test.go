package checkout_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"testing"

	"github.com/acordeapp/acorde/internal/checkout"
	"github.com/acordeapp/acorde/internal/market"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	mu       sync.Mutex
	products map[uuid.UUID]market.Product
}

func (f *fakeCatalog) ProductByID(_ context.Context, id uuid.UUID) (market.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return market.Product{}, fmt.Errorf("product %s: %w", id, market.ErrNotFound)
	}
	return p, nil
}

type fakeOrderStore struct {
	mu        sync.Mutex
	orders    map[uuid.UUID]market.Order
	insertErr error
	deleteErr error
}

func (f *fakeOrderStore) InsertOrder(_ context.Context, o market.Order) (market.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return market.Order{}, f.insertErr
	}
	o.ID = uuid.New()
	if f.orders == nil {
		f.orders = map[uuid.UUID]market.Order{}
	}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeOrderStore) DeleteOrder(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.orders, id)
	return nil
}

func (f *fakeOrderStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

// fakeInventory mirrors the conditional-decrement contract: one guarded
// mutation, never a separate read-then-check.
type fakeInventory struct {
	mu    sync.Mutex
	stock map[uuid.UUID]int
	err   error // forced failure independent of stock
}

func (f *fakeInventory) DecrementStock(_ context.Context, id uuid.UUID, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	have, ok := f.stock[id]
	if !ok {
		return fmt.Errorf("product %s: %w", id, market.ErrNotFound)
	}
	if have < qty {
		return fmt.Errorf("product %s, requested %d: %w", id, qty, market.ErrInsufficientStock)
	}
	f.stock[id] = have - qty
	return nil
}

func (f *fakeInventory) remaining(id uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stock[id]
}

type fakeEvents struct {
	mu       sync.Mutex
	created  []market.Order
	rejected []string
}

func (f *fakeEvents) OrderCreated(_ context.Context, o market.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, o)
}

func (f *fakeEvents) OrderRejected(_ context.Context, _ market.Party, _ uuid.UUID, _ int, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejected = append(f.rejected, reason)
}

func buyer() market.Party {
	return market.Party{ID: uuid.New(), Kind: market.KindIndividual}
}

func guitar(price string, qty int) market.Product {
	return market.Product{
		ID:       uuid.New(),
		Owner:    market.Party{ID: uuid.New(), Kind: market.KindBusiness},
		Name:     gofakeit.ProductName(),
		Price:    market.BRL(decimal.RequireFromString(price)),
		Quantity: qty,
	}
}

func newWorkflow(p market.Product) (*checkout.Workflow, *fakeOrderStore, *fakeInventory, *fakeEvents) {
	orders := &fakeOrderStore{}
	inv := &fakeInventory{stock: map[uuid.UUID]int{p.ID: p.Quantity}}
	events := &fakeEvents{}
	w := &checkout.Workflow{
		Catalog:   &fakeCatalog{products: map[uuid.UUID]market.Product{p.ID: p}},
		Orders:    orders,
		Inventory: inv,
		Events:    events,
	}
	return w, orders, inv, events
}

func TestPurchaseItem_Success(t *testing.T) {
	p := guitar("100.00", 5)
	w, orders, inv, events := newWorkflow(p)
	b := buyer()

	res := w.PurchaseItem(context.Background(), b, checkout.Item{ProductID: p.ID, Quantity: 2})

	require.False(t, res.Failed(), "unexpected error: %v", res.Err)
	require.NotNil(t, res.Order)
	assert.Equal(t, "200.00", res.Order.Total.Amount.StringFixed(2))
	assert.Equal(t, market.StatusCreated, res.Order.Status)
	assert.Equal(t, b, res.Order.Buyer)
	assert.Equal(t, p.Owner, res.Order.Seller, "seller must come from the product owner")
	assert.Equal(t, 3, inv.remaining(p.ID))
	assert.Equal(t, 1, orders.count())
	assert.Len(t, events.created, 1)
	assert.Empty(t, events.rejected)
}

func TestPurchaseItem_InsufficientStock(t *testing.T) {
	p := guitar("100.00", 1)
	w, orders, inv, events := newWorkflow(p)

	res := w.PurchaseItem(context.Background(), buyer(), checkout.Item{ProductID: p.ID, Quantity: 3})

	require.True(t, res.Failed())
	assert.ErrorIs(t, res.Err, market.ErrInsufficientStock)
	assert.Nil(t, res.Order)
	assert.Equal(t, 1, inv.remaining(p.ID), "stock must be untouched")
	assert.Equal(t, 0, orders.count(), "the compensating delete must remove the order")
	assert.Empty(t, events.created)
	assert.Equal(t, []string{"OUT_OF_STOCK"}, events.rejected)
}

func TestPurchaseItem_CompensatesOnDecrementFailure(t *testing.T) {
	p := guitar("50.00", 10)
	w, orders, inv, _ := newWorkflow(p)
	inv.err = errors.New("connection reset")

	res := w.PurchaseItem(context.Background(), buyer(), checkout.Item{ProductID: p.ID, Quantity: 1})

	require.True(t, res.Failed())
	assert.NotErrorIs(t, res.Err, market.ErrInsufficientStock)
	assert.Equal(t, 0, orders.count(), "order must not survive a failed decrement")
}

func TestPurchaseItem_AnomalyWhenCompensationFails(t *testing.T) {
	p := guitar("50.00", 0)
	w, orders, _, _ := newWorkflow(p)
	orders.deleteErr = errors.New("connection reset")

	var buf bytes.Buffer
	w.Logger = log.New(&buf, "", 0)

	res := w.PurchaseItem(context.Background(), buyer(), checkout.Item{ProductID: p.ID, Quantity: 1})

	require.True(t, res.Failed())
	assert.Equal(t, 1, orders.count(), "the dangling order stays behind")
	assert.Contains(t, buf.String(), "ANOMALY", "reconciliation needs a loud log line")
}

func TestPurchaseItem_Validation(t *testing.T) {
	p := guitar("10.00", 5)
	w, orders, inv, _ := newWorkflow(p)

	t.Run("zero quantity", func(t *testing.T) {
		res := w.PurchaseItem(context.Background(), buyer(), checkout.Item{ProductID: p.ID})
		assert.ErrorIs(t, res.Err, market.ErrInvalidInput)
	})
	t.Run("invalid buyer", func(t *testing.T) {
		res := w.PurchaseItem(context.Background(), market.Party{}, checkout.Item{ProductID: p.ID, Quantity: 1})
		assert.ErrorIs(t, res.Err, market.ErrInvalidInput)
	})
	t.Run("unknown product", func(t *testing.T) {
		res := w.PurchaseItem(context.Background(), buyer(), checkout.Item{ProductID: uuid.New(), Quantity: 1})
		assert.ErrorIs(t, res.Err, market.ErrNotFound)
	})

	assert.Equal(t, 0, orders.count())
	assert.Equal(t, 5, inv.remaining(p.ID))
}

// A product whose stored price is invalid must fail pricing before any order
// row is written.
func TestPurchaseItem_RejectsBadPriceBeforeInsert(t *testing.T) {
	p := guitar("10.00", 5)
	p.Price = market.BRL(decimal.RequireFromString("-10.00"))
	w, orders, inv, _ := newWorkflow(p)

	res := w.PurchaseItem(context.Background(), buyer(), checkout.Item{ProductID: p.ID, Quantity: 1})

	require.True(t, res.Failed())
	assert.ErrorIs(t, res.Err, market.ErrInvalidInput)
	assert.Equal(t, 0, orders.count())
	assert.Equal(t, 5, inv.remaining(p.ID))
}

// A failed line must not stop the rest of the cart.
func TestCheckout_ContinuesPastFailures(t *testing.T) {
	inStock := guitar("100.00", 5)
	soldOut := guitar("80.00", 0)

	orders := &fakeOrderStore{}
	inv := &fakeInventory{stock: map[uuid.UUID]int{inStock.ID: 5, soldOut.ID: 0}}
	w := &checkout.Workflow{
		Catalog: &fakeCatalog{products: map[uuid.UUID]market.Product{
			inStock.ID: inStock,
			soldOut.ID: soldOut,
		}},
		Orders:    orders,
		Inventory: inv,
	}

	report := w.Checkout(context.Background(), buyer(), []checkout.Item{
		{ProductID: soldOut.ID, Quantity: 1},
		{ProductID: inStock.ID, Quantity: 2},
		{ProductID: uuid.New(), Quantity: 1},
	})

	require.Len(t, report.Results, 3)
	assert.Len(t, report.Succeeded(), 1)
	assert.Len(t, report.Failed(), 2)
	assert.Equal(t, inStock.ID, report.Succeeded()[0].ProductID)
	assert.Equal(t, 3, inv.remaining(inStock.ID))
}

// Concurrent buyers must never oversell: with stock S and per-purchase
// quantity q, at most S/q purchases succeed and every success has exactly one
// order behind it.
func TestPurchaseItem_NoOversellUnderConcurrency(t *testing.T) {
	const (
		stock  = 7
		perBuy = 2
		buyers = 25
	)
	p := guitar("10.00", stock)
	w, orders, inv, _ := newWorkflow(p)

	var wg sync.WaitGroup
	results := make(chan checkout.ItemResult, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- w.PurchaseItem(context.Background(), buyer(), checkout.Item{ProductID: p.ID, Quantity: perBuy})
		}()
	}
	wg.Wait()
	close(results)

	var ok, failed int
	for res := range results {
		if res.Failed() {
			failed++
			assert.ErrorIs(t, res.Err, market.ErrInsufficientStock)
		} else {
			ok++
		}
	}

	assert.LessOrEqual(t, ok*perBuy, stock, "sold more units than existed")
	assert.Equal(t, stock-ok*perBuy, inv.remaining(p.ID))
	assert.Equal(t, ok, orders.count(), "every failure must leave zero orders behind")
	assert.Equal(t, buyers, ok+failed)
}
