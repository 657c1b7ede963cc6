// Package repo holds the pgx-backed persistence for the marketplace. Each
// repository is a thin struct over the shared pool, raw SQL per query.
package repo

import (
	"fmt"

	"github.com/acordeapp/acorde/internal/market"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/text/currency"
)

// partyColumns splits a party into the (pf, pj) column pair used by orders,
// offers and ratings: exactly one of the two is non-nil.
func partyColumns(p market.Party) (pf, pj *uuid.UUID) {
	if p.Kind == market.KindBusiness {
		return nil, lo.ToPtr(p.ID)
	}
	return lo.ToPtr(p.ID), nil
}

// partyFromColumns rebuilds a party from the column pair.
func partyFromColumns(pf, pj *uuid.UUID) (market.Party, error) {
	switch {
	case pf != nil && pj == nil:
		return market.Party{ID: *pf, Kind: market.KindIndividual}, nil
	case pj != nil && pf == nil:
		return market.Party{ID: *pj, Kind: market.KindBusiness}, nil
	}
	return market.Party{}, fmt.Errorf("row must reference exactly one of pf/pj: %w", market.ErrInvalidInput)
}

func parseCurrency(code string) (currency.Unit, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return currency.Unit{}, fmt.Errorf("currency[%s] is not valid: %w", code, err)
	}
	return unit, nil
}
