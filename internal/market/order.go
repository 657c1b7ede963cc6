package market

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	StatusCreated    OrderStatus = "created"
	StatusProcessing OrderStatus = "processing"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
)

var validNext = map[OrderStatus]map[OrderStatus]bool{
	StatusCreated:    {StatusProcessing: true, StatusCancelled: true},
	StatusProcessing: {StatusCompleted: true, StatusCancelled: true},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// Order is the ledger record of one purchased line item. Buyer and seller are
// each exactly one party (individual or business); the seller is derived from
// the product owner, never from the buyer.
type Order struct {
	ID        uuid.UUID
	Buyer     Party
	Seller    Party
	StoreID   *uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	Total     Money
	Status    OrderStatus
	PlacedAt  time.Time
}

func (o Order) Validate() error {
	if err := o.Buyer.Validate(); err != nil {
		return fmt.Errorf("buyer: %w", err)
	}
	if err := o.Seller.Validate(); err != nil {
		return fmt.Errorf("seller: %w", err)
	}
	if o.ProductID == uuid.Nil {
		return fmt.Errorf("product id is empty: %w", ErrInvalidInput)
	}
	if o.Quantity <= 0 {
		return fmt.Errorf("quantity %d: %w", o.Quantity, ErrInvalidInput)
	}
	if o.Total.Amount.IsNegative() {
		return fmt.Errorf("total %s is negative: %w", o.Total.Amount, ErrInvalidInput)
	}
	return nil
}
