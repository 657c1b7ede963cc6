// Package finance builds the per-store dashboard figures: realized vs
// forecast summaries, daily series, top products and CSV export. All
// aggregation is pure; the repo layer only supplies order lines.
package finance

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/acordeapp/acorde/internal/market"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one order flattened for reporting.
type Line struct {
	Day       string // YYYY-MM-DD
	OrderID   uuid.UUID
	Status    market.OrderStatus
	ProductID uuid.UUID
	Quantity  int
	Total     decimal.Decimal
}

// Realization buckets an order status for reporting purposes.
type Realization string

const (
	Realized Realization = "realized" // money has effectively moved
	Forecast Realization = "forecast" // order alive but not completed
	Excluded Realization = "excluded" // cancelled, out of every figure
)

func RealizationOf(s market.OrderStatus) Realization {
	switch s {
	case market.StatusCompleted:
		return Realized
	case market.StatusCancelled:
		return Excluded
	default:
		return Forecast
	}
}

// Bucket aggregates one realization class.
type Bucket struct {
	Orders             int             `json:"orders"`
	GMV                decimal.Decimal `json:"gmv"`
	MarketplaceRevenue decimal.Decimal `json:"marketplace_revenue"`
	StorePayout        decimal.Decimal `json:"store_payout"`
	AvgTicket          decimal.Decimal `json:"avg_ticket"`
}

type Summary struct {
	Realized Bucket `json:"realized"`
	Forecast Bucket `json:"forecast"`
}

type DayBucket struct {
	Day         string      `json:"day"`
	Realization Realization `json:"realization"`
	Bucket
}

type ProductTotal struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name,omitempty"`
	Orders    int             `json:"orders"`
	Quantity  int             `json:"quantity"`
	GMV       decimal.Decimal `json:"gmv"`
}

type accumulator struct {
	orders int
	gmv    decimal.Decimal
}

func (a *accumulator) add(total decimal.Decimal) {
	a.orders++
	a.gmv = a.gmv.Add(total)
}

func (a accumulator) bucket(commissionPct decimal.Decimal) Bucket {
	revenue := a.gmv.Mul(commissionPct).Div(decimal.NewFromInt(100)).Round(2)
	b := Bucket{
		Orders:             a.orders,
		GMV:                a.gmv.Round(2),
		MarketplaceRevenue: revenue,
		StorePayout:        a.gmv.Round(2).Sub(revenue),
		AvgTicket:          decimal.Zero,
	}
	if a.orders > 0 {
		b.AvgTicket = a.gmv.Div(decimal.NewFromInt(int64(a.orders))).Round(2)
	}
	return b
}

// Summarize splits the period into realized and forecast totals. Cancelled
// orders are excluded entirely.
func Summarize(lines []Line, commissionPct decimal.Decimal) Summary {
	var realized, forecast accumulator
	for _, l := range lines {
		switch RealizationOf(l.Status) {
		case Realized:
			realized.add(l.Total)
		case Forecast:
			forecast.add(l.Total)
		}
	}
	return Summary{
		Realized: realized.bucket(commissionPct),
		Forecast: forecast.bucket(commissionPct),
	}
}

// Daily aggregates lines per (day, realization), sorted by day.
func Daily(lines []Line, commissionPct decimal.Decimal) []DayBucket {
	type key struct {
		day string
		rz  Realization
	}
	acc := map[key]*accumulator{}
	for _, l := range lines {
		rz := RealizationOf(l.Status)
		if rz == Excluded {
			continue
		}
		k := key{day: l.Day, rz: rz}
		if acc[k] == nil {
			acc[k] = &accumulator{}
		}
		acc[k].add(l.Total)
	}

	out := make([]DayBucket, 0, len(acc))
	for k, a := range acc {
		out = append(out, DayBucket{Day: k.day, Realization: k.rz, Bucket: a.bucket(commissionPct)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].Realization < out[j].Realization
	})
	return out
}

// TopProducts ranks realized lines by GMV, descending.
func TopProducts(lines []Line, limit int) []ProductTotal {
	if limit <= 0 {
		limit = 10
	}
	acc := map[uuid.UUID]*ProductTotal{}
	for _, l := range lines {
		if RealizationOf(l.Status) != Realized {
			continue
		}
		t := acc[l.ProductID]
		if t == nil {
			t = &ProductTotal{ProductID: l.ProductID, GMV: decimal.Zero}
			acc[l.ProductID] = t
		}
		t.Orders++
		t.Quantity += l.Quantity
		t.GMV = t.GMV.Add(l.Total)
	}

	out := make([]ProductTotal, 0, len(acc))
	for _, t := range acc {
		t.GMV = t.GMV.Round(2)
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].GMV.Equal(out[j].GMV) {
			return out[i].GMV.GreaterThan(out[j].GMV)
		}
		return out[i].ProductID.String() < out[j].ProductID.String()
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// WriteCSV streams the raw lines with the derived commission figures.
func WriteCSV(w io.Writer, lines []Line, commissionPct decimal.Decimal) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"day", "order_id", "status", "total", "commission_pct", "marketplace_revenue", "store_payout"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, l := range lines {
		revenue := l.Total.Mul(commissionPct).Div(decimal.NewFromInt(100)).Round(2)
		rec := []string{
			l.Day,
			l.OrderID.String(),
			string(l.Status),
			l.Total.StringFixed(2),
			commissionPct.String(),
			revenue.StringFixed(2),
			l.Total.Sub(revenue).StringFixed(2),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
