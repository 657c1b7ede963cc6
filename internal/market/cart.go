package market

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// CartItem is one line of a buyer's cart. The cart is owned by exactly one
// buyer party and lives in the store, not in session state.
type CartItem struct {
	ProductID uuid.UUID
	Quantity  int
	AddedAt   time.Time
}

type Cart struct {
	Owner Party
	Items []CartItem
}

// CartLine is a cart item joined with its product for display and totals.
type CartLine struct {
	CartItem
	Name      string
	UnitPrice Money
	LineTotal Money
}

func CartTotal(lines []CartLine) Money {
	total := decimal.Zero
	unit := currency.BRL
	for i, l := range lines {
		if i == 0 {
			unit = l.UnitPrice.Currency
		}
		total = total.Add(l.LineTotal.Amount)
	}
	return Money{Amount: total.Round(2), Currency: unit}
}
