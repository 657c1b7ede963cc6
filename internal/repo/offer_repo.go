package repo

import (
	"context"
	"fmt"

	"github.com/acordeapp/acorde/internal/market"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type OfferRepo struct{ DB *pgxpool.Pool }

func (r *OfferRepo) Insert(ctx context.Context, o market.Offer) (market.Offer, error) {
	if err := o.Validate(); err != nil {
		return market.Offer{}, err
	}

	buyerPF, buyerPJ := partyColumns(o.Buyer)
	err := r.DB.QueryRow(ctx, `
		INSERT INTO offers (product_id, buyer_pf_id, buyer_pj_id, amount, currency, message, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		o.ProductID, buyerPF, buyerPJ, o.Amount.Amount, o.Amount.Currency.String(), o.Message, market.OfferPending,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return market.Offer{}, fmt.Errorf("insert offer: %w", err)
	}
	o.Status = market.OfferPending
	return o, nil
}

func (r *OfferRepo) ListForProduct(ctx context.Context, productID uuid.UUID) ([]market.Offer, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, product_id, buyer_pf_id, buyer_pj_id, amount, currency, message, status, created_at
		FROM offers
		WHERE product_id = $1
		ORDER BY created_at DESC`, productID)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	var out []market.Offer
	for rows.Next() {
		var (
			o                market.Offer
			buyerPF, buyerPJ *uuid.UUID
			amount           decimal.Decimal
			code             string
			status           string
		)
		if err := rows.Scan(&o.ID, &o.ProductID, &buyerPF, &buyerPJ, &amount, &code, &o.Message, &status, &o.CreatedAt); err != nil {
			return nil, err
		}
		buyer, err := partyFromColumns(buyerPF, buyerPJ)
		if err != nil {
			return nil, fmt.Errorf("buyer: %w", err)
		}
		unit, err := parseCurrency(code)
		if err != nil {
			return nil, err
		}
		o.Buyer = buyer
		o.Amount = market.Money{Amount: amount, Currency: unit}
		o.Status = market.OfferStatus(status)
		out = append(out, o)
	}
	return out, rows.Err()
}
