package market_test

import (
	"testing"

	"github.com/acordeapp/acorde/internal/market"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "brazilian thousands", raw: "1.234,56", want: "1234.56"},
		{name: "plain dot decimal", raw: "1234.56", want: "1234.56"},
		{name: "currency prefix", raw: "R$ 1.234,56", want: "1234.56"},
		{name: "comma decimal only", raw: "99,90", want: "99.9"},
		{name: "integer", raw: "100", want: "100"},
		{name: "spaces around", raw: "  42,00 ", want: "42"},
		{name: "three decimals rounded", raw: "10.005", want: "10.01"},
		{name: "empty", raw: "", wantErr: true},
		{name: "letters only", raw: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := market.ParsePrice(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, market.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"got %s, want %s", got, tt.want)
		})
	}
}

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name    string
		unit    string
		qty     int
		want    string
		wantErr bool
	}{
		{name: "two at 100.00", unit: "100.00", qty: 2, want: "200.00"},
		{name: "single unit", unit: "99.90", qty: 1, want: "99.90"},
		{name: "rounds to cents", unit: "0.333", qty: 3, want: "1.00"},
		{name: "zero price is fine", unit: "0", qty: 5, want: "0.00"},
		{name: "zero quantity", unit: "10.00", qty: 0, wantErr: true},
		{name: "negative quantity", unit: "10.00", qty: -1, wantErr: true},
		{name: "negative price", unit: "-10.00", qty: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit := market.BRL(decimal.RequireFromString(tt.unit))

			got, err := market.LineTotal(unit, tt.qty)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, market.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Amount.StringFixed(2))
			assert.Equal(t, unit.Currency, got.Currency)
		})
	}
}

func TestCartTotal(t *testing.T) {
	line := func(unit string, qty int) market.CartLine {
		u := market.BRL(decimal.RequireFromString(unit))
		total, err := market.LineTotal(u, qty)
		require.NoError(t, err)
		return market.CartLine{
			CartItem:  market.CartItem{Quantity: qty},
			UnitPrice: u,
			LineTotal: total,
		}
	}

	t.Run("sums line totals", func(t *testing.T) {
		total := market.CartTotal([]market.CartLine{
			line("100.00", 2),
			line("49.90", 1),
		})
		assert.Equal(t, "249.90", total.Amount.StringFixed(2))
	})

	t.Run("empty cart is zero", func(t *testing.T) {
		total := market.CartTotal(nil)
		assert.True(t, total.Amount.IsZero())
	})
}
