package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/acordeapp/acorde/internal/finance"
	"github.com/acordeapp/acorde/internal/market"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FinanceRepo struct{ DB *pgxpool.Pool }

// Lines flattens a store's orders in [from, to) for the finance reports.
func (r *FinanceRepo) Lines(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]finance.Line, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT to_char(placed_at, 'YYYY-MM-DD'), id, status, product_id, quantity, total_amount
		FROM orders
		WHERE store_id = $1 AND placed_at >= $2 AND placed_at < $3
		ORDER BY placed_at`, storeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("finance lines: %w", err)
	}
	defer rows.Close()

	var out []finance.Line
	for rows.Next() {
		var (
			l      finance.Line
			status string
		)
		if err := rows.Scan(&l.Day, &l.OrderID, &status, &l.ProductID, &l.Quantity, &l.Total); err != nil {
			return nil, err
		}
		l.Status = market.OrderStatus(status)
		out = append(out, l)
	}
	return out, rows.Err()
}
