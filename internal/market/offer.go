package market

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type OfferStatus string

const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferDeclined OfferStatus = "declined"
)

// Offer is a buyer's price proposal on a product.
type Offer struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Buyer     Party
	Amount    Money
	Message   string
	Status    OfferStatus
	CreatedAt time.Time
}

func (o Offer) Validate() error {
	if err := o.Buyer.Validate(); err != nil {
		return fmt.Errorf("buyer: %w", err)
	}
	if o.ProductID == uuid.Nil {
		return fmt.Errorf("product id is empty: %w", ErrInvalidInput)
	}
	if !o.Amount.Amount.IsPositive() {
		return fmt.Errorf("offer amount %s: %w", o.Amount.Amount, ErrInvalidInput)
	}
	return nil
}
