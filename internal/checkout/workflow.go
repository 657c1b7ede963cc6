// Package checkout implements order placement: read product, price the line,
// write the order, atomically decrement stock, and undo the order when the
// decrement fails. Every line item ends either as a consistent order+stock
// pair or as no order at all.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/acordeapp/acorde/internal/market"
	"github.com/google/uuid"
)

type Workflow struct {
	Catalog   Catalog
	Orders    OrderStore
	Inventory Inventory
	Events    EventSink   // optional
	Logger    *log.Logger // defaults to log.Default()
}

// Item is one requested purchase line.
type Item struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// ItemResult is the terminal outcome of one line item. Order is set on
// success; Err on failure. Failed items never leave an order behind.
type ItemResult struct {
	Item
	Order *market.Order
	Err   error
}

func (r ItemResult) Failed() bool { return r.Err != nil }

// Report collects per-item outcomes of one checkout. Failures on one item do
// not abort the remaining items; the caller decides how to present partial
// success.
type Report struct {
	Results []ItemResult
}

func (r Report) Succeeded() []ItemResult {
	var out []ItemResult
	for _, res := range r.Results {
		if !res.Failed() {
			out = append(out, res)
		}
	}
	return out
}

func (r Report) Failed() []ItemResult {
	var out []ItemResult
	for _, res := range r.Results {
		if res.Failed() {
			out = append(out, res)
		}
	}
	return out
}

// Checkout processes the items sequentially, one at a time. Each item awaits
// its full read → price → insert → decrement sequence before the next starts.
func (w *Workflow) Checkout(ctx context.Context, buyer market.Party, items []Item) Report {
	report := Report{Results: make([]ItemResult, 0, len(items))}
	for _, it := range items {
		report.Results = append(report.Results, w.PurchaseItem(ctx, buyer, it))
	}
	return report
}

// PurchaseItem runs the order placement state machine for a single line item:
//
//	read product → compute total → insert order → decrement stock
//
// A decrement failure after the insert triggers compensation: the freshly
// created order is deleted. If even the delete fails, the dangling order is
// logged for manual reconciliation.
func (w *Workflow) PurchaseItem(ctx context.Context, buyer market.Party, it Item) ItemResult {
	res := ItemResult{Item: it}

	if err := buyer.Validate(); err != nil {
		res.Err = fmt.Errorf("buyer: %w", err)
		return res
	}
	if it.Quantity <= 0 {
		res.Err = fmt.Errorf("quantity %d: %w", it.Quantity, market.ErrInvalidInput)
		return res
	}

	product, err := w.Catalog.ProductByID(ctx, it.ProductID)
	if err != nil {
		res.Err = fmt.Errorf("read product %s: %w", it.ProductID, err)
		return res
	}

	total, err := market.LineTotal(product.Price, it.Quantity)
	if err != nil {
		res.Err = fmt.Errorf("price product %s: %w", it.ProductID, err)
		return res
	}

	order := market.Order{
		Buyer:     buyer,
		Seller:    product.Owner, // seller kind comes from the product owner, not the buyer
		StoreID:   product.StoreID,
		ProductID: product.ID,
		Quantity:  it.Quantity,
		Total:     total,
		Status:    market.StatusCreated,
	}
	if err := order.Validate(); err != nil {
		res.Err = err
		return res
	}

	created, err := w.Orders.InsertOrder(ctx, order)
	if err != nil {
		// Nothing to undo: no row was written.
		res.Err = fmt.Errorf("insert order: %w", err)
		return res
	}

	if err := w.Inventory.DecrementStock(ctx, product.ID, it.Quantity); err != nil {
		w.compensate(ctx, created, err)
		if errors.Is(err, market.ErrInsufficientStock) && w.Events != nil {
			w.Events.OrderRejected(ctx, buyer, product.ID, it.Quantity, "OUT_OF_STOCK")
		}
		res.Err = fmt.Errorf("decrement stock for product %s: %w", product.ID, err)
		return res
	}

	if w.Events != nil {
		w.Events.OrderCreated(ctx, created)
	}

	res.Order = &created
	return res
}

// compensate deletes an order whose stock decrement failed. Best-effort: a
// failed delete leaves an order with no matching stock deduction, which must
// surface in the logs for reconciliation.
func (w *Workflow) compensate(ctx context.Context, order market.Order, cause error) {
	if err := w.Orders.DeleteOrder(ctx, order.ID); err != nil {
		w.logf("ANOMALY: order %s not rolled back (product=%s buyer=%s qty=%d): delete failed: %v; decrement failed: %v",
			order.ID, order.ProductID, order.Buyer.ID, order.Quantity, err, cause)
		return
	}
	w.logf("order %s rolled back after stock failure (product=%s qty=%d): %v",
		order.ID, order.ProductID, order.Quantity, cause)
}

func (w *Workflow) logf(format string, args ...any) {
	l := w.Logger
	if l == nil {
		l = log.Default()
	}
	l.Printf(format, args...)
}
