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

type OffersHandler struct {
	Offers   *repo.OfferRepo
	Products *repo.ProductRepo
}

func (h *OffersHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(RequireIdentity)
		r.Post("/offers", h.create)
		r.Get("/products/{id}/offers", h.listForProduct)
	})
}

type createOfferReq struct {
	ProductID string `json:"product_id"`
	Amount    string `json:"amount"` // flexible, same formats as product price
	Message   string `json:"message"`
}

type offerResp struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	BuyerID   string `json:"buyer_id"`
	BuyerKind string `json:"buyer_kind"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Message   string `json:"message,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

func (h *OffersHandler) create(w http.ResponseWriter, r *http.Request) {
	buyer := identity(r)

	var req createOfferReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}
	amount, err := market.ParsePrice(req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	product, err := h.Products.ByID(ctx, productID)
	if err != nil {
		writeError(w, err)
		return
	}
	if product.Owner == buyer {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "cannot offer on your own product"})
		return
	}

	created, err := h.Offers.Insert(ctx, market.Offer{
		ProductID: productID,
		Buyer:     buyer,
		Amount:    market.BRL(amount),
		Message:   req.Message,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOfferResp(created))
}

// listForProduct is owner-only: offers are private to the seller.
func (h *OffersHandler) listForProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	product, err := h.Products.ByID(ctx, productID)
	if err != nil {
		writeError(w, err)
		return
	}
	if product.Owner != identity(r) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "not the product owner"})
		return
	}

	offers, err := h.Offers.ListForProduct(ctx, productID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]offerResp, 0, len(offers))
	for _, o := range offers {
		out = append(out, toOfferResp(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func toOfferResp(o market.Offer) offerResp {
	return offerResp{
		ID:        o.ID.String(),
		ProductID: o.ProductID.String(),
		BuyerID:   o.Buyer.ID.String(),
		BuyerKind: string(o.Buyer.Kind),
		Amount:    o.Amount.Amount.StringFixed(2),
		Currency:  o.Amount.Currency.String(),
		Message:   o.Message,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339),
	}
}
