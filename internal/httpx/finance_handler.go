package httpx

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/acordeapp/acorde/internal/finance"
	"github.com/acordeapp/acorde/internal/market"
	"github.com/acordeapp/acorde/internal/repo"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type FinanceHandler struct {
	Stores   *repo.StoreRepo
	Finance  *repo.FinanceRepo
	Products *repo.ProductRepo
}

func (h *FinanceHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(RequireIdentity)
		r.Get("/my/store/finance/summary", h.summary)
		r.Get("/my/store/finance/daily", h.daily)
		r.Get("/my/store/finance/top-products", h.topProducts)
		r.Get("/my/store/finance/export.csv", h.exportCSV)
	})
}

// period parses ?from / ?to (YYYY-MM-DD, to exclusive); the default window is
// the last 30 days.
func period(r *http.Request) (from, to time.Time, err error) {
	now := time.Now().UTC()
	to = now.Truncate(24 * time.Hour).Add(24 * time.Hour)
	from = to.AddDate(0, 0, -30)

	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return from, to, err
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return from, to, err
		}
		to = to.Add(24 * time.Hour) // inclusive end day
	}
	return from, to, nil
}

// storeLines resolves the caller's store and loads its order lines for the
// requested period.
func (h *FinanceHandler) storeLines(w http.ResponseWriter, r *http.Request) (market.Store, []finance.Line, bool) {
	from, to, err := period(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid period, want YYYY-MM-DD"})
		return market.Store{}, nil, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	store, err := h.Stores.ByOwner(ctx, identity(r).ID)
	if err != nil {
		writeError(w, err)
		return market.Store{}, nil, false
	}
	lines, err := h.Finance.Lines(ctx, store.ID, from, to)
	if err != nil {
		writeError(w, err)
		return market.Store{}, nil, false
	}
	return store, lines, true
}

func (h *FinanceHandler) summary(w http.ResponseWriter, r *http.Request) {
	store, lines, ok := h.storeLines(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, finance.Summarize(lines, store.CommissionPct))
}

func (h *FinanceHandler) daily(w http.ResponseWriter, r *http.Request) {
	store, lines, ok := h.storeLines(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, finance.Daily(lines, store.CommissionPct))
}

func (h *FinanceHandler) topProducts(w http.ResponseWriter, r *http.Request) {
	_, lines, ok := h.storeLines(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	top := finance.TopProducts(lines, limit)

	ids := make([]uuid.UUID, 0, len(top))
	for _, t := range top {
		ids = append(ids, t.ProductID)
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	names, err := h.Products.NamesByIDs(ctx, ids)
	if err != nil {
		// names are decoration, the ranking still stands
		log.Printf("top products names: %v", err)
	}
	for i := range top {
		top[i].Name = names[top[i].ProductID]
	}
	writeJSON(w, http.StatusOK, top)
}

func (h *FinanceHandler) exportCSV(w http.ResponseWriter, r *http.Request) {
	store, lines, ok := h.storeLines(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="finance.csv"`)
	if err := finance.WriteCSV(w, lines, store.CommissionPct); err != nil {
		log.Printf("finance csv export for store %s: %v", store.ID, err)
	}
}
