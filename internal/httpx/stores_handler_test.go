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
	"time"

	"github.com/acordeapp/acorde/internal/httpx"
	"github.com/acordeapp/acorde/internal/market"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStoreDir struct {
	mu     sync.Mutex
	stores map[uuid.UUID]market.Store
}

func newMemStoreDir() *memStoreDir {
	return &memStoreDir{stores: map[uuid.UUID]market.Store{}}
}

func (d *memStoreDir) Insert(_ context.Context, s market.Store) (market.Store, error) {
	if err := s.Validate(); err != nil {
		return market.Store{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	d.stores[s.ID] = s
	return s, nil
}

func (d *memStoreDir) List(_ context.Context, _ int) ([]market.Store, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]market.Store, 0, len(d.stores))
	for _, s := range d.stores {
		out = append(out, s)
	}
	return out, nil
}

func (d *memStoreDir) ByID(_ context.Context, id uuid.UUID) (market.Store, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.stores[id]
	if !ok {
		return market.Store{}, fmt.Errorf("store %s: %w", id, market.ErrNotFound)
	}
	return s, nil
}

func (d *memStoreDir) ByOwner(_ context.Context, ownerID uuid.UUID) (market.Store, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.stores {
		if s.OwnerID == ownerID {
			return s, nil
		}
	}
	return market.Store{}, fmt.Errorf("store owner %s: %w", ownerID, market.ErrNotFound)
}

func (d *memStoreDir) UpdateOwned(_ context.Context, id, ownerID uuid.UUID, name, city, state *string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.stores[id]
	if !ok || s.OwnerID != ownerID {
		return fmt.Errorf("store %s for owner %s: %w", id, ownerID, market.ErrNotFound)
	}
	if name != nil {
		s.Name = *name
	}
	if city != nil {
		s.City = *city
	}
	if state != nil {
		s.State = *state
	}
	d.stores[id] = s
	return nil
}

func newStoresServer(dir *memStoreDir) *httptest.Server {
	router := httpx.NewRouter()
	(&httpx.StoresHandler{Stores: dir}).Register(router)
	return httptest.NewServer(router)
}

func doJSONAs(t *testing.T, method, url string, userID uuid.UUID, kind string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("X-User-Id", userID.String())
	req.Header.Set("X-User-Kind", kind)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestStores_CreateAndGet(t *testing.T) {
	dir := newMemStoreDir()
	srv := newStoresServer(dir)
	defer srv.Close()
	owner := uuid.New()

	resp, body := doJSONAs(t, http.MethodPost, srv.URL+"/stores", owner, "pj", map[string]any{
		"name":  gofakeit.Company(),
		"city":  "Porto Alegre",
		"state": "RS",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, owner.String(), body["owner_id"])

	storeID := body["id"].(string)
	resp, got := doJSONAs(t, http.MethodGet, srv.URL+"/stores/"+storeID, uuid.New(), "pf", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, body["name"], got["name"])
}

func TestStores_CreateRequiresBusinessAccount(t *testing.T) {
	dir := newMemStoreDir()
	srv := newStoresServer(dir)
	defer srv.Close()

	resp, _ := doJSONAs(t, http.MethodPost, srv.URL+"/stores", uuid.New(), "pf", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, dir.stores)
}

func TestStores_CreateRejectsEmptyName(t *testing.T) {
	srv := newStoresServer(newMemStoreDir())
	defer srv.Close()

	resp, _ := doJSONAs(t, http.MethodPost, srv.URL+"/stores", uuid.New(), "pj", map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStores_GetUnknown(t *testing.T) {
	srv := newStoresServer(newMemStoreDir())
	defer srv.Close()

	resp, _ := doJSONAs(t, http.MethodGet, srv.URL+"/stores/"+uuid.NewString(), uuid.New(), "pf", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStores_List(t *testing.T) {
	dir := newMemStoreDir()
	for i := 0; i < 3; i++ {
		_, err := dir.Insert(context.Background(), market.Store{OwnerID: uuid.New(), Name: gofakeit.Company()})
		require.NoError(t, err)
	}
	srv := newStoresServer(dir)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/stores", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "listing is public")
}

func TestStores_UpdateOwnedOnly(t *testing.T) {
	dir := newMemStoreDir()
	owner := uuid.New()
	s, err := dir.Insert(context.Background(), market.Store{OwnerID: owner, Name: "Old Name"})
	require.NoError(t, err)
	srv := newStoresServer(dir)
	defer srv.Close()

	resp, _ := doJSONAs(t, http.MethodPatch, srv.URL+"/stores/"+s.ID.String(), uuid.New(), "pj",
		map[string]any{"name": "Hijacked"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "strangers cannot edit")
	assert.Equal(t, "Old Name", dir.stores[s.ID].Name)

	resp, _ = doJSONAs(t, http.MethodPatch, srv.URL+"/stores/"+s.ID.String(), owner, "pj",
		map[string]any{"name": "New Name"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "New Name", dir.stores[s.ID].Name)
}

func TestStores_Mine(t *testing.T) {
	dir := newMemStoreDir()
	owner := uuid.New()
	_, err := dir.Insert(context.Background(), market.Store{OwnerID: owner, Name: "Mine"})
	require.NoError(t, err)
	srv := newStoresServer(dir)
	defer srv.Close()

	resp, body := doJSONAs(t, http.MethodGet, srv.URL+"/my/store", owner, "pj", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Mine", body["name"])

	resp, _ = doJSONAs(t, http.MethodGet, srv.URL+"/my/store", uuid.New(), "pj", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
