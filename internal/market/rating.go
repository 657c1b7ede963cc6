package market

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// ClampScore normalizes a submitted score to the 1..5 range,
// rounding half away from zero. Non-finite input is rejected.
func ClampScore(raw float64) (int, error) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0, fmt.Errorf("score is not a number: %w", ErrInvalidInput)
	}
	n := int(math.Round(raw))
	if n < 1 {
		n = 1
	}
	if n > 5 {
		n = 5
	}
	return n, nil
}

// ProductRating: one per (rater, product), updated in place on re-rating.
type ProductRating struct {
	RaterID   uuid.UUID
	ProductID uuid.UUID
	Score     int
	Comment   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SellerRating: one per (rater, seller party).
type SellerRating struct {
	RaterID   uuid.UUID
	Seller    Party
	Score     int
	Comment   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}
