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

type RatingsHandler struct {
	Ratings *repo.RatingRepo
}

func (h *RatingsHandler) Register(r *chi.Mux) {
	r.Get("/products/{id}/ratings", h.productRatings)
	r.Get("/sellers/{kind}/{id}/rating", h.sellerSummary)
	r.Group(func(r chi.Router) {
		r.Use(RequireIdentity)
		r.Post("/ratings/product", h.rateProduct)
		r.Post("/ratings/seller", h.rateSeller)
	})
}

type rateProductReq struct {
	ProductID string  `json:"product_id"`
	Score     float64 `json:"score"`
	Comment   string  `json:"comment"`
}

func (h *RatingsHandler) rateProduct(w http.ResponseWriter, r *http.Request) {
	var req rateProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}
	score, err := market.ClampScore(req.Score)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err = h.Ratings.RateProduct(ctx, market.ProductRating{
		RaterID:   identity(r).ID,
		ProductID: productID,
		Score:     score,
		Comment:   req.Comment,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type rateSellerReq struct {
	SellerID   string  `json:"seller_id"`
	SellerKind string  `json:"seller_kind"` // pf | pj
	Score      float64 `json:"score"`
	Comment    string  `json:"comment"`
}

func (h *RatingsHandler) rateSeller(w http.ResponseWriter, r *http.Request) {
	var req rateSellerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	sellerID, err := uuid.Parse(req.SellerID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid seller id"})
		return
	}
	kind, err := market.ToPartyKind(req.SellerKind)
	if err != nil {
		writeError(w, err)
		return
	}
	score, err := market.ClampScore(req.Score)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err = h.Ratings.RateSeller(ctx, market.SellerRating{
		RaterID: identity(r).ID,
		Seller:  market.Party{ID: sellerID, Kind: kind},
		Score:   score,
		Comment: req.Comment,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RatingsHandler) productRatings(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ratings, err := h.Ratings.ProductRatings(ctx, productID)
	if err != nil {
		writeError(w, err)
		return
	}

	type ratingResp struct {
		RaterID string `json:"rater_id"`
		Score   int    `json:"score"`
		Comment string `json:"comment,omitempty"`
	}
	out := make([]ratingResp, 0, len(ratings))
	for _, rt := range ratings {
		out = append(out, ratingResp{RaterID: rt.RaterID.String(), Score: rt.Score, Comment: rt.Comment})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *RatingsHandler) sellerSummary(w http.ResponseWriter, r *http.Request) {
	sellerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid seller id"})
		return
	}
	kind, err := market.ToPartyKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	summary, err := h.Ratings.SellerSummary(ctx, market.Party{ID: sellerID, Kind: kind})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
