package market

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID          uuid.UUID
	Owner       Party
	StoreID     *uuid.UUID // nil for individual sellers without a storefront
	Name        string
	Brand       string
	Category    string
	Description string
	Price       Money
	Quantity    int // available stock, never negative
	Views       int64
	RatingAvg   float64
	RatingCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p Product) Validate() error {
	if err := p.Owner.Validate(); err != nil {
		return err
	}
	if p.Name == "" {
		return fmt.Errorf("product name is empty: %w", ErrInvalidInput)
	}
	if p.Price.Amount.IsNegative() {
		return fmt.Errorf("product price %s is negative: %w", p.Price.Amount, ErrInvalidInput)
	}
	if p.Quantity < 0 {
		return fmt.Errorf("product quantity %d is negative: %w", p.Quantity, ErrInvalidInput)
	}
	return nil
}
