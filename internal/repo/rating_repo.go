package repo

import (
	"context"
	"fmt"

	"github.com/acordeapp/acorde/internal/market"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RatingRepo struct{ DB *pgxpool.Pool }

// RateProduct upserts the rater's score (one per rater+product) and refreshes
// the aggregates stored on the product row, in one transaction.
func (r *RatingRepo) RateProduct(ctx context.Context, rating market.ProductRating) error {
	if rating.Score < 1 || rating.Score > 5 {
		return fmt.Errorf("score %d out of range: %w", rating.Score, market.ErrInvalidInput)
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO product_ratings (rater_id, product_id, score, comment)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (rater_id, product_id)
		DO UPDATE SET score = EXCLUDED.score, comment = EXCLUDED.comment, updated_at = now()`,
		rating.RaterID, rating.ProductID, rating.Score, rating.Comment)
	if err != nil {
		return fmt.Errorf("upsert product rating: %w", err)
	}

	ct, err := tx.Exec(ctx, `
		UPDATE products p
		SET rating_avg = s.avg, rating_count = s.count
		FROM (
			SELECT COALESCE(AVG(score), 0) AS avg, COUNT(*) AS count
			FROM product_ratings WHERE product_id = $1
		) s
		WHERE p.id = $1`, rating.ProductID)
	if err != nil {
		return fmt.Errorf("refresh product aggregates: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", rating.ProductID, market.ErrNotFound)
	}

	return tx.Commit(ctx)
}

// RateSeller upserts the rater's score for a seller party.
func (r *RatingRepo) RateSeller(ctx context.Context, rating market.SellerRating) error {
	if rating.Score < 1 || rating.Score > 5 {
		return fmt.Errorf("score %d out of range: %w", rating.Score, market.ErrInvalidInput)
	}
	if err := rating.Seller.Validate(); err != nil {
		return fmt.Errorf("seller: %w", err)
	}

	_, err := r.DB.Exec(ctx, `
		INSERT INTO seller_ratings (rater_id, seller_id, seller_kind, score, comment)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (rater_id, seller_id, seller_kind)
		DO UPDATE SET score = EXCLUDED.score, comment = EXCLUDED.comment, updated_at = now()`,
		rating.RaterID, rating.Seller.ID, rating.Seller.Kind, rating.Score, rating.Comment)
	if err != nil {
		return fmt.Errorf("upsert seller rating: %w", err)
	}
	return nil
}

func (r *RatingRepo) SellerSummary(ctx context.Context, seller market.Party) (market.RatingSummary, error) {
	var s market.RatingSummary
	err := r.DB.QueryRow(ctx, `
		SELECT COALESCE(AVG(score), 0), COUNT(*)
		FROM seller_ratings
		WHERE seller_id = $1 AND seller_kind = $2`, seller.ID, seller.Kind).
		Scan(&s.Average, &s.Count)
	if err != nil {
		return market.RatingSummary{}, fmt.Errorf("seller summary: %w", err)
	}
	return s, nil
}

func (r *RatingRepo) ProductRatings(ctx context.Context, productID uuid.UUID) ([]market.ProductRating, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT rater_id, product_id, score, comment, created_at, updated_at
		FROM product_ratings
		WHERE product_id = $1
		ORDER BY updated_at DESC`, productID)
	if err != nil {
		return nil, fmt.Errorf("product ratings: %w", err)
	}
	defer rows.Close()

	var out []market.ProductRating
	for rows.Next() {
		var pr market.ProductRating
		if err := rows.Scan(&pr.RaterID, &pr.ProductID, &pr.Score, &pr.Comment, &pr.CreatedAt, &pr.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}
