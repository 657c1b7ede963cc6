package checkout

import (
	"context"

	"github.com/acordeapp/acorde/internal/market"
	"github.com/google/uuid"
)

// Catalog reads product records. Implementations return market.ErrNotFound
// (wrapped) when the id does not resolve.
type Catalog interface {
	ProductByID(ctx context.Context, id uuid.UUID) (market.Product, error)
}

// OrderStore persists orders. InsertOrder assigns the identifier and the
// creation timestamp and returns the stored order. DeleteOrder is the undo
// used by compensation.
type OrderStore interface {
	InsertOrder(ctx context.Context, order market.Order) (market.Order, error)
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
}

// Inventory owns the only mutation path for product stock. DecrementStock
// must be a single atomic conditional decrement at the store level: it
// succeeds only if the available quantity is at least qty, and returns
// market.ErrInsufficientStock (wrapped) otherwise. The application never
// checks stock in a separate read.
type Inventory interface {
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error
}

// EventSink receives best-effort notifications about completed purchases.
// Failures to publish never affect the purchase outcome.
type EventSink interface {
	OrderCreated(ctx context.Context, order market.Order)
	OrderRejected(ctx context.Context, buyer market.Party, productID uuid.UUID, qty int, reason string)
}
