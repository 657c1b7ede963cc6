package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/acordeapp/acorde/internal/market"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// StoreDirectory is the store access the storefront endpoints need.
type StoreDirectory interface {
	Insert(ctx context.Context, s market.Store) (market.Store, error)
	List(ctx context.Context, limit int) ([]market.Store, error)
	ByID(ctx context.Context, id uuid.UUID) (market.Store, error)
	ByOwner(ctx context.Context, ownerID uuid.UUID) (market.Store, error)
	UpdateOwned(ctx context.Context, id, ownerID uuid.UUID, name, city, state *string) error
}

type StoresHandler struct {
	Stores StoreDirectory
}

func (h *StoresHandler) Register(r *chi.Mux) {
	r.Get("/stores", h.list)
	r.Get("/stores/{id}", h.get)
	r.Group(func(r chi.Router) {
		r.Use(RequireIdentity)
		r.Post("/stores", h.create)
		r.Patch("/stores/{id}", h.update)
		r.Get("/my/store", h.mine)
	})
}

type createStoreReq struct {
	Name  string `json:"name"`
	City  string `json:"city"`
	State string `json:"state"`
}

type storeResp struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Name      string `json:"name"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toStoreResp(s market.Store) storeResp {
	return storeResp{
		ID:        s.ID.String(),
		OwnerID:   s.OwnerID.String(),
		Name:      s.Name,
		City:      s.City,
		State:     s.State,
		CreatedAt: s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// create opens a storefront for the caller. Only business accounts sell
// through a storefront; individual sellers list products directly.
func (h *StoresHandler) create(w http.ResponseWriter, r *http.Request) {
	caller := identity(r)
	if caller.Kind != market.KindBusiness {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "only business accounts can open a store"})
		return
	}

	var req createStoreReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	created, err := h.Stores.Insert(ctx, market.Store{
		OwnerID: caller.ID,
		Name:    req.Name,
		City:    req.City,
		State:   req.State,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toStoreResp(created))
}

func (h *StoresHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	stores, err := h.Stores.List(ctx, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]storeResp, 0, len(stores))
	for _, s := range stores {
		out = append(out, toStoreResp(s))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *StoresHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid store id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	s, err := h.Stores.ByID(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStoreResp(s))
}

type updateStoreReq struct {
	Name  *string `json:"name"`
	City  *string `json:"city"`
	State *string `json:"state"`
}

func (h *StoresHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid store id"})
		return
	}

	var req updateStoreReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Stores.UpdateOwned(ctx, id, identity(r).ID, req.Name, req.City, req.State); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StoresHandler) mine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	s, err := h.Stores.ByOwner(ctx, identity(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStoreResp(s))
}
