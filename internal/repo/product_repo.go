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

type ProductRepo struct{ DB *pgxpool.Pool }

const productColumns = `id, owner_id, owner_kind, store_id, name, brand, category, description,
       price_amount, price_currency, quantity, views, rating_avg, rating_count, created_at, updated_at`

func (r *ProductRepo) Insert(ctx context.Context, p market.Product) (market.Product, error) {
	if err := p.Validate(); err != nil {
		return market.Product{}, err
	}

	err := r.DB.QueryRow(ctx, `
		INSERT INTO products (owner_id, owner_kind, store_id, name, brand, category, description,
		                      price_amount, price_currency, quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		p.Owner.ID, p.Owner.Kind, p.StoreID, p.Name, p.Brand, p.Category, p.Description,
		p.Price.Amount, p.Price.Currency.String(), p.Quantity,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return market.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

func (r *ProductRepo) ByID(ctx context.Context, id uuid.UUID) (market.Product, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return market.Product{}, fmt.Errorf("product %s: %w", id, market.ErrNotFound)
		}
		return market.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

// ProductByID is ByID under the name the checkout workflow expects.
func (r *ProductRepo) ProductByID(ctx context.Context, id uuid.UUID) (market.Product, error) {
	return r.ByID(ctx, id)
}

func (r *ProductRepo) List(ctx context.Context, limit int) ([]market.Product, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (r *ProductRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]market.Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+` FROM products WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list products by owner: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

// UpdateListing changes price and/or quantity, guarded by ownership.
func (r *ProductRepo) UpdateListing(ctx context.Context, id, ownerID uuid.UUID, price *decimal.Decimal, quantity *int) error {
	if price == nil && quantity == nil {
		return fmt.Errorf("nothing to update: %w", market.ErrInvalidInput)
	}
	if price != nil && price.IsNegative() {
		return fmt.Errorf("price %s is negative: %w", price, market.ErrInvalidInput)
	}
	if quantity != nil && *quantity < 0 {
		return fmt.Errorf("quantity %d is negative: %w", *quantity, market.ErrInvalidInput)
	}

	ct, err := r.DB.Exec(ctx, `
		UPDATE products
		SET price_amount = COALESCE($3, price_amount),
		    quantity     = COALESCE($4, quantity),
		    updated_at   = now()
		WHERE id = $1 AND owner_id = $2`,
		id, ownerID, price, quantity)
	if err != nil {
		return fmt.Errorf("update product %s: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("product %s for owner %s: %w", id, ownerID, market.ErrNotFound)
	}
	return nil
}

// DeleteOwned removes a product only when the caller owns it.
func (r *ProductRepo) DeleteOwned(ctx context.Context, id, ownerID uuid.UUID) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("product %s for owner %s: %w", id, ownerID, market.ErrNotFound)
	}
	return nil
}

func (r *ProductRepo) BumpViews(ctx context.Context, id uuid.UUID) error {
	_, err := r.DB.Exec(ctx, `UPDATE products SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("bump views for product %s: %w", id, err)
	}
	return nil
}

// DecrementStock is the single serialization point for concurrent purchases
// of the same product: one conditional UPDATE, no separate read-then-check.
func (r *ProductRepo) DecrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("quantity %d: %w", qty, market.ErrInvalidInput)
	}

	ct, err := r.DB.Exec(ctx, `
		UPDATE products
		SET quantity = quantity - $2, updated_at = now()
		WHERE id = $1 AND quantity >= $2`,
		id, qty)
	if err != nil {
		return fmt.Errorf("decrement stock for product %s: %w", id, err)
	}
	if ct.RowsAffected() == 1 {
		return nil
	}

	// Distinguish a missing product from an out-of-stock one.
	var exists bool
	if err := r.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check product %s: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("product %s: %w", id, market.ErrNotFound)
	}
	return fmt.Errorf("product %s, requested %d: %w", id, qty, market.ErrInsufficientStock)
}

// NamesByIDs resolves product names in one query, for report enrichment.
func (r *ProductRepo) NamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]string{}, nil
	}
	rows, err := r.DB.Query(ctx, `SELECT id, name FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("names by ids: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]string, len(ids))
	for rows.Next() {
		var (
			id   uuid.UUID
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = name
	}
	return out, rows.Err()
}

func scanProduct(row pgx.Row) (market.Product, error) {
	var (
		p       market.Product
		amount  decimal.Decimal
		code    string
		ownerID uuid.UUID
		kindRaw string
	)
	err := row.Scan(&p.ID, &ownerID, &kindRaw, &p.StoreID, &p.Name, &p.Brand, &p.Category, &p.Description,
		&amount, &code, &p.Quantity, &p.Views, &p.RatingAvg, &p.RatingCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return market.Product{}, err
	}

	kind, err := market.ToPartyKind(kindRaw)
	if err != nil {
		return market.Product{}, err
	}
	p.Owner = market.Party{ID: ownerID, Kind: kind}

	unit, err := parseCurrency(code)
	if err != nil {
		return market.Product{}, err
	}
	p.Price = market.Money{Amount: amount, Currency: unit}
	return p, nil
}

func scanProducts(rows pgx.Rows) ([]market.Product, error) {
	var out []market.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
