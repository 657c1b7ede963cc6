package market

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Money is a 2-decimal amount with its currency unit.
type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

func BRL(amount decimal.Decimal) Money {
	return Money{Amount: amount, Currency: currency.BRL}
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Currency, m.Amount.StringFixed(2))
}

// LineTotal computes round(unit price * qty, 2).
// Pure; rejects a negative unit price or a non-positive quantity.
func LineTotal(unit Money, qty int) (Money, error) {
	if qty <= 0 {
		return Money{}, fmt.Errorf("quantity %d: %w", qty, ErrInvalidInput)
	}
	if unit.Amount.IsNegative() {
		return Money{}, fmt.Errorf("negative unit price %s: %w", unit.Amount, ErrInvalidInput)
	}

	total := unit.Amount.Mul(decimal.NewFromInt(int64(qty))).Round(2)
	return Money{Amount: total, Currency: unit.Currency}, nil
}

// ParsePrice accepts seller-typed prices such as "1.234,56", "1234.56" or
// "R$ 1.234,56" and normalizes them to a 2-decimal amount.
func ParsePrice(raw string) (decimal.Decimal, error) {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			return r
		default:
			return -1
		}
	}, strings.TrimSpace(raw))

	switch {
	case strings.Contains(s, ",") && strings.Contains(s, "."):
		// "1.234,56": dots are thousand separators
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price %q: %w", raw, ErrInvalidInput)
	}
	return d.Round(2), nil
}
