package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/acordeapp/acorde/internal/market"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StoreRepo struct{ DB *pgxpool.Pool }

const storeColumns = `id, owner_id, name, city, state, commission_pct, created_at`

func (r *StoreRepo) Insert(ctx context.Context, s market.Store) (market.Store, error) {
	if err := s.Validate(); err != nil {
		return market.Store{}, err
	}

	err := r.DB.QueryRow(ctx, `
		INSERT INTO stores (owner_id, name, city, state)
		VALUES ($1, $2, $3, $4)
		RETURNING id, commission_pct, created_at`,
		s.OwnerID, s.Name, s.City, s.State,
	).Scan(&s.ID, &s.CommissionPct, &s.CreatedAt)
	if err != nil {
		return market.Store{}, fmt.Errorf("insert store: %w", err)
	}
	return s, nil
}

func (r *StoreRepo) List(ctx context.Context, limit int) ([]market.Store, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.Query(ctx, `SELECT `+storeColumns+` FROM stores ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	defer rows.Close()

	var out []market.Store
	for rows.Next() {
		var s market.Store
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.Name, &s.City, &s.State, &s.CommissionPct, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateOwned changes the storefront fields, guarded by ownership. The
// commission pct is the marketplace's to set, never the store owner's.
func (r *StoreRepo) UpdateOwned(ctx context.Context, id, ownerID uuid.UUID, name, city, state *string) error {
	if name == nil && city == nil && state == nil {
		return fmt.Errorf("nothing to update: %w", market.ErrInvalidInput)
	}
	if name != nil && *name == "" {
		return fmt.Errorf("store name is empty: %w", market.ErrInvalidInput)
	}

	ct, err := r.DB.Exec(ctx, `
		UPDATE stores
		SET name  = COALESCE($3, name),
		    city  = COALESCE($4, city),
		    state = COALESCE($5, state)
		WHERE id = $1 AND owner_id = $2`,
		id, ownerID, name, city, state)
	if err != nil {
		return fmt.Errorf("update store %s: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("store %s for owner %s: %w", id, ownerID, market.ErrNotFound)
	}
	return nil
}

func (r *StoreRepo) ByID(ctx context.Context, id uuid.UUID) (market.Store, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+storeColumns+` FROM stores WHERE id = $1`, id)
	return scanStore(row, id.String())
}

// ByOwner returns the owner's store; the most recent one when several exist.
func (r *StoreRepo) ByOwner(ctx context.Context, ownerID uuid.UUID) (market.Store, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT `+storeColumns+` FROM stores
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, ownerID)
	return scanStore(row, "owner "+ownerID.String())
}

func scanStore(row pgx.Row, ref string) (market.Store, error) {
	var s market.Store
	err := row.Scan(&s.ID, &s.OwnerID, &s.Name, &s.City, &s.State, &s.CommissionPct, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return market.Store{}, fmt.Errorf("store %s: %w", ref, market.ErrNotFound)
		}
		return market.Store{}, fmt.Errorf("get store %s: %w", ref, err)
	}
	return s, nil
}
