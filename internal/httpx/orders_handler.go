package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/acordeapp/acorde/internal/redisx"
	"github.com/acordeapp/acorde/internal/repo"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type OrdersHandler struct {
	Orders *repo.OrderRepo
	Redis  *redis.Client
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(RequireIdentity)
		r.Get("/orders/purchases", h.purchases)
		r.Get("/orders/sales", h.sales)
		r.Get("/orders/{id}/status", h.status)
	})
}

type orderResp struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Total       string  `json:"total"`
	Status      string  `json:"status"`
	PlacedAt    string  `json:"placed_at"`
	StoreID     *string `json:"store_id,omitempty"`
}

func (h *OrdersHandler) purchases(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	orders, err := h.Orders.ListPurchases(ctx, identity(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResps(orders))
}

func (h *OrdersHandler) sales(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	orders, err := h.Orders.ListSales(ctx, identity(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResps(orders))
}

// status serves from the Redis cache first and falls back to the database,
// refreshing the cache on the way out.
func (h *OrdersHandler) status(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(s))
		return
	}

	status, err := h.Orders.Status(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}

	body, _ := json.Marshal(map[string]any{"status": status})
	_ = h.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func toOrderResps(orders []repo.OrderWithProduct) []orderResp {
	out := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		resp := orderResp{
			ID:          o.ID.String(),
			ProductID:   o.ProductID.String(),
			ProductName: o.ProductName,
			Quantity:    o.Quantity,
			Total:       o.Total.Amount.StringFixed(2),
			Status:      string(o.Status),
			PlacedAt:    o.PlacedAt.UTC().Format(time.RFC3339),
		}
		if o.StoreID != nil {
			s := o.StoreID.String()
			resp.StoreID = &s
		}
		out = append(out, resp)
	}
	return out
}
