package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/acordeapp/acorde/internal/market"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type OrderRepo struct{ DB *pgxpool.Pool }

// OrderWithProduct decorates an order with the product summary the listing
// pages show next to it.
type OrderWithProduct struct {
	market.Order
	ProductName string
}

const orderColumns = `id, buyer_pf_id, buyer_pj_id, seller_pf_id, seller_pj_id, store_id,
       product_id, quantity, total_amount, total_currency, status, placed_at`

// InsertOrder writes exactly one order row. The id and the creation timestamp
// are assigned by the database. Exactly one buyer column and exactly one
// seller column are populated; the schema enforces the same rule.
func (r *OrderRepo) InsertOrder(ctx context.Context, o market.Order) (market.Order, error) {
	if err := o.Validate(); err != nil {
		return market.Order{}, err
	}

	buyerPF, buyerPJ := partyColumns(o.Buyer)
	sellerPF, sellerPJ := partyColumns(o.Seller)

	err := r.DB.QueryRow(ctx, `
		INSERT INTO orders (buyer_pf_id, buyer_pj_id, seller_pf_id, seller_pj_id, store_id,
		                    product_id, quantity, total_amount, total_currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, placed_at`,
		buyerPF, buyerPJ, sellerPF, sellerPJ, o.StoreID,
		o.ProductID, o.Quantity, o.Total.Amount, o.Total.Currency.String(), o.Status,
	).Scan(&o.ID, &o.PlacedAt)
	if err != nil {
		return market.Order{}, fmt.Errorf("insert order: %w", err)
	}
	return o, nil
}

// DeleteOrder removes an order row. Used by checkout compensation.
func (r *OrderRepo) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("delete order %s: %w", orderID, err)
	}
	return nil
}

func (r *OrderRepo) ByID(ctx context.Context, orderID uuid.UUID) (market.Order, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return market.Order{}, fmt.Errorf("order %s: %w", orderID, market.ErrNotFound)
		}
		return market.Order{}, fmt.Errorf("get order %s: %w", orderID, err)
	}
	return o, nil
}

func (r *OrderRepo) Status(ctx context.Context, orderID uuid.UUID) (market.OrderStatus, error) {
	var s string
	err := r.DB.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, orderID).Scan(&s)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("order %s: %w", orderID, market.ErrNotFound)
		}
		return "", fmt.Errorf("order status %s: %w", orderID, err)
	}
	return market.OrderStatus(s), nil
}

// AdvanceStatus moves an order along the lifecycle, guarded by the transition
// table. The row is locked so concurrent consumers cannot double-advance.
func (r *OrderRepo) AdvanceStatus(ctx context.Context, orderID uuid.UUID, to market.OrderStatus) (market.OrderStatus, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current string
	if err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("order %s: %w", orderID, market.ErrNotFound)
		}
		return "", fmt.Errorf("lock order %s: %w", orderID, err)
	}

	from := market.OrderStatus(current)
	if from == to {
		return from, nil // already there, nothing to do
	}
	if !market.CanTransition(from, to) {
		return from, fmt.Errorf("order %s: transition %s -> %s: %w", orderID, from, to, market.ErrInvalidInput)
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, orderID, to); err != nil {
		return from, fmt.Errorf("update order %s status: %w", orderID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return from, fmt.Errorf("commit: %w", err)
	}
	return from, nil
}

// ListPurchases returns the buyer's orders, newest first. The buyer id may
// sit in either buyer column depending on the account kind.
func (r *OrderRepo) ListPurchases(ctx context.Context, buyerID uuid.UUID) ([]OrderWithProduct, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+prefixedOrderColumns("o")+`, p.name
		FROM orders o
		JOIN products p ON p.id = o.product_id
		WHERE o.buyer_pf_id = $1 OR o.buyer_pj_id = $1
		ORDER BY o.placed_at DESC`, buyerID)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()
	return scanOrdersWithProduct(rows)
}

// ListSales returns the seller's side of the ledger, newest first.
func (r *OrderRepo) ListSales(ctx context.Context, sellerID uuid.UUID) ([]OrderWithProduct, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+prefixedOrderColumns("o")+`, p.name
		FROM orders o
		JOIN products p ON p.id = o.product_id
		WHERE o.seller_pf_id = $1 OR o.seller_pj_id = $1
		ORDER BY o.placed_at DESC`, sellerID)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()
	return scanOrdersWithProduct(rows)
}

func prefixedOrderColumns(alias string) string {
	return alias + `.id, ` + alias + `.buyer_pf_id, ` + alias + `.buyer_pj_id, ` +
		alias + `.seller_pf_id, ` + alias + `.seller_pj_id, ` + alias + `.store_id, ` +
		alias + `.product_id, ` + alias + `.quantity, ` + alias + `.total_amount, ` +
		alias + `.total_currency, ` + alias + `.status, ` + alias + `.placed_at`
}

func scanOrderFields(row pgx.Row, extra ...any) (market.Order, error) {
	var (
		o                  market.Order
		buyerPF, buyerPJ   *uuid.UUID
		sellerPF, sellerPJ *uuid.UUID
		amount             decimal.Decimal
		code               string
		status             string
	)

	dest := []any{&o.ID, &buyerPF, &buyerPJ, &sellerPF, &sellerPJ, &o.StoreID,
		&o.ProductID, &o.Quantity, &amount, &code, &status, &o.PlacedAt}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return market.Order{}, err
	}

	buyer, err := partyFromColumns(buyerPF, buyerPJ)
	if err != nil {
		return market.Order{}, fmt.Errorf("buyer: %w", err)
	}
	seller, err := partyFromColumns(sellerPF, sellerPJ)
	if err != nil {
		return market.Order{}, fmt.Errorf("seller: %w", err)
	}
	unit, err := parseCurrency(code)
	if err != nil {
		return market.Order{}, err
	}

	o.Buyer = buyer
	o.Seller = seller
	o.Total = market.Money{Amount: amount, Currency: unit}
	o.Status = market.OrderStatus(status)
	return o, nil
}

func scanOrder(row pgx.Row) (market.Order, error) {
	return scanOrderFields(row)
}

func scanOrdersWithProduct(rows pgx.Rows) ([]OrderWithProduct, error) {
	var out []OrderWithProduct
	for rows.Next() {
		var name string
		o, err := scanOrderFields(rows, &name)
		if err != nil {
			return nil, err
		}
		out = append(out, OrderWithProduct{Order: o, ProductName: name})
	}
	return out, rows.Err()
}
