package httpx

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/acordeapp/acorde/internal/market"
	"github.com/acordeapp/acorde/internal/repo"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductsHandler struct {
	Products *repo.ProductRepo
}

func (h *ProductsHandler) Register(r *chi.Mux) {
	r.Get("/products", h.list)
	r.Get("/products/{id}", h.get)
	r.Group(func(r chi.Router) {
		r.Use(RequireIdentity)
		r.Post("/products", h.create)
		r.Patch("/products/{id}", h.update)
		r.Delete("/products/{id}", h.delete)
		r.Get("/my/products", h.listMine)
	})
}

type createProductReq struct {
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Price       string  `json:"price"` // flexible: "1.234,56", "1234.56", "R$ 1.234,56"
	Quantity    int     `json:"quantity"`
	StoreID     *string `json:"store_id"`
}

type productResp struct {
	ID          string  `json:"id"`
	OwnerID     string  `json:"owner_id"`
	OwnerKind   string  `json:"owner_kind"`
	StoreID     *string `json:"store_id,omitempty"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand,omitempty"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	Price       string  `json:"price"`
	Currency    string  `json:"currency"`
	Quantity    int     `json:"quantity"`
	Views       int64   `json:"views"`
	RatingAvg   float64 `json:"rating_avg"`
	RatingCount int     `json:"rating_count"`
}

func (h *ProductsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	price, err := market.ParsePrice(req.Price)
	if err != nil {
		writeError(w, err)
		return
	}
	if price.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must not be negative"})
		return
	}
	if req.Quantity < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity must not be negative"})
		return
	}

	var storeID *uuid.UUID
	if req.StoreID != nil {
		id, err := uuid.Parse(*req.StoreID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid store id"})
			return
		}
		storeID = &id
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	created, err := h.Products.Insert(ctx, market.Product{
		Owner:       identity(r),
		StoreID:     storeID,
		Name:        req.Name,
		Brand:       req.Brand,
		Category:    req.Category,
		Description: req.Description,
		Price:       market.BRL(price),
		Quantity:    req.Quantity,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResp(created))
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	products, err := h.Products.List(ctx, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResps(products))
}

func (h *ProductsHandler) listMine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	products, err := h.Products.ListByOwner(ctx, identity(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResps(products))
}

func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Products.ByID(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}

	// view counter is best-effort
	if err := h.Products.BumpViews(ctx, id); err != nil {
		log.Printf("bump views for %s: %v", id, err)
	}
	writeJSON(w, http.StatusOK, toProductResp(p))
}

type updateProductReq struct {
	Price    *string `json:"price"`
	Quantity *int    `json:"quantity"`
}

func (h *ProductsHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}

	var req updateProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	var price *decimal.Decimal
	if req.Price != nil {
		parsed, err := market.ParsePrice(*req.Price)
		if err != nil {
			writeError(w, err)
			return
		}
		price = &parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Products.UpdateListing(ctx, id, identity(r).ID, price, req.Quantity); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductsHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Products.DeleteOwned(ctx, id, identity(r).ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toProductResp(p market.Product) productResp {
	resp := productResp{
		ID:          p.ID.String(),
		OwnerID:     p.Owner.ID.String(),
		OwnerKind:   string(p.Owner.Kind),
		Name:        p.Name,
		Brand:       p.Brand,
		Category:    p.Category,
		Description: p.Description,
		Price:       p.Price.Amount.StringFixed(2),
		Currency:    p.Price.Currency.String(),
		Quantity:    p.Quantity,
		Views:       p.Views,
		RatingAvg:   p.RatingAvg,
		RatingCount: p.RatingCount,
	}
	if p.StoreID != nil {
		s := p.StoreID.String()
		resp.StoreID = &s
	}
	return resp
}

func toProductResps(products []market.Product) []productResp {
	out := make([]productResp, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResp(p))
	}
	return out
}
