package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/acordeapp/acorde/internal/market"
	"github.com/acordeapp/acorde/internal/repo"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CartHandler struct {
	Cart     *repo.CartRepo
	Products *repo.ProductRepo
}

func (h *CartHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(RequireIdentity)
		r.Get("/cart", h.getCart)
		r.Post("/cart/items/{productID}", h.addItem)
		r.Delete("/cart/items/{productID}", h.removeItem)
	})
}

type cartLineResp struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

type cartResp struct {
	Items []cartLineResp `json:"items"`
	Total string         `json:"total"`
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	lines, err := h.Cart.PricedLines(ctx, identity(r))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := cartResp{Items: make([]cartLineResp, 0, len(lines))}
	for _, l := range lines {
		resp.Items = append(resp.Items, cartLineResp{
			ProductID: l.ProductID.String(),
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.Amount.StringFixed(2),
			LineTotal: l.LineTotal.Amount.StringFixed(2),
		})
	}
	resp.Total = market.CartTotal(lines).Amount.StringFixed(2)
	writeJSON(w, http.StatusOK, resp)
}

type addItemReq struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}

	var req addItemReq
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// The product must exist before it can sit in a cart.
	if _, err := h.Products.ByID(ctx, productID); err != nil {
		writeError(w, err)
		return
	}
	if err := h.Cart.AddItem(ctx, identity(r), productID, req.Quantity); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	removed, err := h.Cart.RemoveItem(ctx, identity(r), productID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !removed {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not in cart"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
