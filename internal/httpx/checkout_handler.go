package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/acordeapp/acorde/internal/checkout"
	"github.com/acordeapp/acorde/internal/market"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// CartStore is the cart access the checkout endpoints need.
type CartStore interface {
	Items(ctx context.Context, owner market.Party) ([]market.CartItem, error)
	RemoveItems(ctx context.Context, owner market.Party, productIDs []uuid.UUID) error
	Clear(ctx context.Context, owner market.Party) error
}

type CheckoutHandler struct {
	Cart CartStore
	Flow *checkout.Workflow
}

func (h *CheckoutHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(RequireIdentity)
		r.Post("/checkout", h.checkoutKeepFailed)
		r.Post("/checkout/finalize", h.checkoutClearAll)
		r.Post("/purchase/{productID}", h.purchase)
	})
}

type itemResultResp struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Status    string  `json:"status"` // ok | failed
	OrderID   *string `json:"order_id,omitempty"`
	Total     *string `json:"total,omitempty"`
	Reason    *string `json:"reason,omitempty"`
}

type checkoutResp struct {
	Items     []itemResultResp `json:"items"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
}

// checkoutKeepFailed processes the cart and removes only the purchased lines,
// so the buyer can retry failed items later.
func (h *CheckoutHandler) checkoutKeepFailed(w http.ResponseWriter, r *http.Request) {
	h.runCheckout(w, r, false)
}

// checkoutClearAll is the finalize variant: the whole cart is emptied no
// matter the per-item outcomes.
func (h *CheckoutHandler) checkoutClearAll(w http.ResponseWriter, r *http.Request) {
	h.runCheckout(w, r, true)
}

func (h *CheckoutHandler) runCheckout(w http.ResponseWriter, r *http.Request, clearAll bool) {
	buyer := identity(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	items, err := h.Cart.Items(ctx, buyer)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cart is empty"})
		return
	}

	lines := make([]checkout.Item, 0, len(items))
	for _, it := range items {
		lines = append(lines, checkout.Item{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	report := h.Flow.Checkout(ctx, buyer, lines)

	if clearAll {
		if err := h.Cart.Clear(ctx, buyer); err != nil {
			log.Printf("clear cart for %s: %v", buyer.ID, err)
		}
	} else {
		var purchased []uuid.UUID
		for _, res := range report.Succeeded() {
			purchased = append(purchased, res.ProductID)
		}
		if err := h.Cart.RemoveItems(ctx, buyer, purchased); err != nil {
			log.Printf("remove purchased items for %s: %v", buyer.ID, err)
		}
	}

	writeJSON(w, checkoutStatus(report), toCheckoutResp(report))
}

type purchaseReq struct {
	Quantity int `json:"quantity"`
}

// purchase is the direct single-item path; quantity defaults to 1.
func (h *CheckoutHandler) purchase(w http.ResponseWriter, r *http.Request) {
	buyer := identity(r)

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
		return
	}

	var req purchaseReq
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // empty body means qty 1
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res := h.Flow.PurchaseItem(ctx, buyer, checkout.Item{ProductID: productID, Quantity: req.Quantity})
	if res.Failed() {
		writeError(w, res.Err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemResp(res))
}

func checkoutStatus(report checkout.Report) int {
	switch {
	case len(report.Failed()) == 0:
		return http.StatusCreated
	case len(report.Succeeded()) == 0:
		return http.StatusConflict
	default:
		return http.StatusMultiStatus
	}
}

func toCheckoutResp(report checkout.Report) checkoutResp {
	resp := checkoutResp{Items: make([]itemResultResp, 0, len(report.Results))}
	for _, res := range report.Results {
		resp.Items = append(resp.Items, toItemResp(res))
		if res.Failed() {
			resp.Failed++
		} else {
			resp.Succeeded++
		}
	}
	return resp
}

func toItemResp(res checkout.ItemResult) itemResultResp {
	out := itemResultResp{
		ProductID: res.ProductID.String(),
		Quantity:  res.Quantity,
		Status:    "ok",
	}
	if res.Failed() {
		out.Status = "failed"
		reason := failureReason(res.Err)
		out.Reason = &reason
		return out
	}
	orderID := res.Order.ID.String()
	total := res.Order.Total.Amount.StringFixed(2)
	out.OrderID = &orderID
	out.Total = &total
	return out
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, market.ErrNotFound):
		return "not_found"
	case errors.Is(err, market.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, market.ErrInsufficientStock):
		return "out_of_stock"
	default:
		return "error"
	}
}
