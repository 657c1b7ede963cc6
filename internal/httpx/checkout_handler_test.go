package httpx_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/acordeapp/acorde/internal/checkout"
	"github.com/acordeapp/acorde/internal/httpx"
	"github.com/acordeapp/acorde/internal/market"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu     sync.Mutex
	items  map[uuid.UUID]int // cart lines
	stock  map[uuid.UUID]market.Product
	orders map[uuid.UUID]market.Order
}

func newMemStore(products ...market.Product) *memStore {
	s := &memStore{
		items:  map[uuid.UUID]int{},
		stock:  map[uuid.UUID]market.Product{},
		orders: map[uuid.UUID]market.Order{},
	}
	for _, p := range products {
		s.stock[p.ID] = p
	}
	return s
}

func (s *memStore) Items(_ context.Context, _ market.Party) ([]market.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []market.CartItem
	for id, qty := range s.items {
		out = append(out, market.CartItem{ProductID: id, Quantity: qty})
	}
	return out, nil
}

func (s *memStore) RemoveItems(_ context.Context, _ market.Party, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.items, id)
	}
	return nil
}

func (s *memStore) Clear(_ context.Context, _ market.Party) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = map[uuid.UUID]int{}
	return nil
}

func (s *memStore) ProductByID(_ context.Context, id uuid.UUID) (market.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.stock[id]
	if !ok {
		return market.Product{}, fmt.Errorf("product %s: %w", id, market.ErrNotFound)
	}
	return p, nil
}

func (s *memStore) InsertOrder(_ context.Context, o market.Order) (market.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.ID = uuid.New()
	s.orders[o.ID] = o
	return o, nil
}

func (s *memStore) DeleteOrder(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.orders, id)
	return nil
}

func (s *memStore) DecrementStock(_ context.Context, id uuid.UUID, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.stock[id]
	if !ok {
		return fmt.Errorf("product %s: %w", id, market.ErrNotFound)
	}
	if p.Quantity < qty {
		return fmt.Errorf("product %s, requested %d: %w", id, qty, market.ErrInsufficientStock)
	}
	p.Quantity -= qty
	s.stock[id] = p
	return nil
}

func (s *memStore) cartLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func product(price string, qty int) market.Product {
	return market.Product{
		ID:       uuid.New(),
		Owner:    market.Party{ID: uuid.New(), Kind: market.KindBusiness},
		Name:     gofakeit.ProductName(),
		Price:    market.BRL(decimal.RequireFromString(price)),
		Quantity: qty,
	}
}

func newServer(store *memStore) *httptest.Server {
	flow := &checkout.Workflow{Catalog: store, Orders: store, Inventory: store}
	router := httpx.NewRouter()
	(&httpx.CheckoutHandler{Cart: store, Flow: flow}).Register(router)
	return httptest.NewServer(router)
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("X-User-Id", uuid.NewString())
	req.Header.Set("X-User-Kind", "pf")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestCheckout_AllSucceed(t *testing.T) {
	p := product("100.00", 5)
	store := newMemStore(p)
	store.items[p.ID] = 2
	srv := newServer(store)
	defer srv.Close()

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/checkout", nil)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.EqualValues(t, 1, body["succeeded"])
	assert.EqualValues(t, 0, body["failed"])
	assert.Equal(t, 0, store.cartLen(), "purchased lines leave the cart")

	items := body["items"].([]any)
	require.Len(t, items, 1)
	first := items[0].(map[string]any)
	assert.Equal(t, "ok", first["status"])
	assert.Equal(t, "200.00", first["total"])
}

func TestCheckout_MixedOutcome(t *testing.T) {
	inStock := product("100.00", 5)
	soldOut := product("80.00", 0)
	store := newMemStore(inStock, soldOut)
	store.items[inStock.ID] = 1
	store.items[soldOut.ID] = 1
	srv := newServer(store)
	defer srv.Close()

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/checkout", nil)

	assert.Equal(t, http.StatusMultiStatus, resp.StatusCode)
	assert.EqualValues(t, 1, body["succeeded"])
	assert.EqualValues(t, 1, body["failed"])
	assert.Equal(t, 1, store.cartLen(), "the failed line stays for retry")
}

func TestCheckout_AllFail(t *testing.T) {
	soldOut := product("80.00", 0)
	store := newMemStore(soldOut)
	store.items[soldOut.ID] = 1
	srv := newServer(store)
	defer srv.Close()

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/checkout", nil)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "out_of_stock", items[0].(map[string]any)["reason"])
}

func TestCheckout_EmptyCart(t *testing.T) {
	srv := newServer(newMemStore())
	defer srv.Close()

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/checkout", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCheckoutFinalize_ClearsWholeCart(t *testing.T) {
	inStock := product("100.00", 5)
	soldOut := product("80.00", 0)
	store := newMemStore(inStock, soldOut)
	store.items[inStock.ID] = 1
	store.items[soldOut.ID] = 1
	srv := newServer(store)
	defer srv.Close()

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/checkout/finalize", nil)

	assert.Equal(t, http.StatusMultiStatus, resp.StatusCode)
	assert.Equal(t, 0, store.cartLen(), "finalize empties the cart either way")
}

func TestPurchase_SingleItem(t *testing.T) {
	p := product("59.90", 3)
	store := newMemStore(p)
	srv := newServer(store)
	defer srv.Close()

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/purchase/"+p.ID.String(), map[string]any{"quantity": 2})

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "119.80", body["total"])
	assert.Equal(t, 1, store.stock[p.ID].Quantity)
}

func TestPurchase_DefaultQuantity(t *testing.T) {
	p := product("59.90", 3)
	store := newMemStore(p)
	srv := newServer(store)
	defer srv.Close()

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/purchase/"+p.ID.String(), nil)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "59.90", body["total"])
}

func TestPurchase_InsufficientStock(t *testing.T) {
	p := product("59.90", 1)
	store := newMemStore(p)
	srv := newServer(store)
	defer srv.Close()

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/purchase/"+p.ID.String(), map[string]any{"quantity": 5})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCheckout_RequiresIdentity(t *testing.T) {
	srv := newServer(newMemStore())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/checkout", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
