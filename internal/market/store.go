package market

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is a business seller's storefront. CommissionPct is the marketplace
// cut applied to the store's order totals in the finance reports.
type Store struct {
	ID            uuid.UUID
	OwnerID       uuid.UUID
	Name          string
	City          string
	State         string
	CommissionPct decimal.Decimal
	CreatedAt     time.Time
}

func (s Store) Validate() error {
	if s.OwnerID == uuid.Nil {
		return fmt.Errorf("store owner id is empty: %w", ErrInvalidInput)
	}
	if s.Name == "" {
		return fmt.Errorf("store name is empty: %w", ErrInvalidInput)
	}
	return nil
}
