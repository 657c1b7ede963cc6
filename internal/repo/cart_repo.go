package repo

import (
	"context"
	"fmt"

	"github.com/acordeapp/acorde/internal/market"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CartRepo stores carts keyed by buyer party, replacing the session-held cart
// of earlier designs so checkout receives the cart explicitly.
type CartRepo struct{ DB *pgxpool.Pool }

func (r *CartRepo) Items(ctx context.Context, owner market.Party) ([]market.CartItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT product_id, quantity, added_at
		FROM cart_items
		WHERE owner_id = $1 AND owner_kind = $2
		ORDER BY added_at`, owner.ID, owner.Kind)
	if err != nil {
		return nil, fmt.Errorf("cart items: %w", err)
	}
	defer rows.Close()

	var items []market.CartItem
	for rows.Next() {
		var it market.CartItem
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.AddedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// PricedLines joins the cart with current product names and prices.
func (r *CartRepo) PricedLines(ctx context.Context, owner market.Party) ([]market.CartLine, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT c.product_id, c.quantity, c.added_at, p.name, p.price_amount, p.price_currency
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.owner_id = $1 AND c.owner_kind = $2
		ORDER BY c.added_at`, owner.ID, owner.Kind)
	if err != nil {
		return nil, fmt.Errorf("priced cart lines: %w", err)
	}
	defer rows.Close()

	var lines []market.CartLine
	for rows.Next() {
		var (
			l      market.CartLine
			amount decimal.Decimal
			code   string
		)
		if err := rows.Scan(&l.ProductID, &l.Quantity, &l.AddedAt, &l.Name, &amount, &code); err != nil {
			return nil, err
		}
		unit, err := parseCurrency(code)
		if err != nil {
			return nil, err
		}
		l.UnitPrice = market.Money{Amount: amount, Currency: unit}
		total, err := market.LineTotal(l.UnitPrice, l.Quantity)
		if err != nil {
			return nil, fmt.Errorf("price cart line %s: %w", l.ProductID, err)
		}
		l.LineTotal = total
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// AddItem inserts a line or bumps the quantity when the product is already in
// the cart.
func (r *CartRepo) AddItem(ctx context.Context, owner market.Party, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("quantity %d: %w", qty, market.ErrInvalidInput)
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO cart_items (owner_id, owner_kind, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_id, owner_kind, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		owner.ID, owner.Kind, productID, qty)
	if err != nil {
		return fmt.Errorf("add cart item %s: %w", productID, err)
	}
	return nil
}

func (r *CartRepo) RemoveItem(ctx context.Context, owner market.Party, productID uuid.UUID) (bool, error) {
	ct, err := r.DB.Exec(ctx, `
		DELETE FROM cart_items
		WHERE owner_id = $1 AND owner_kind = $2 AND product_id = $3`,
		owner.ID, owner.Kind, productID)
	if err != nil {
		return false, fmt.Errorf("remove cart item %s: %w", productID, err)
	}
	return ct.RowsAffected() > 0, nil
}

// RemoveItems drops the given products from the cart, used after checkout to
// clear only the lines that were actually purchased.
func (r *CartRepo) RemoveItems(ctx context.Context, owner market.Party, productIDs []uuid.UUID) error {
	if len(productIDs) == 0 {
		return nil
	}
	_, err := r.DB.Exec(ctx, `
		DELETE FROM cart_items
		WHERE owner_id = $1 AND owner_kind = $2 AND product_id = ANY($3)`,
		owner.ID, owner.Kind, productIDs)
	if err != nil {
		return fmt.Errorf("remove cart items: %w", err)
	}
	return nil
}

func (r *CartRepo) Clear(ctx context.Context, owner market.Party) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM cart_items WHERE owner_id = $1 AND owner_kind = $2`,
		owner.ID, owner.Kind)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
