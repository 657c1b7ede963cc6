package market

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// PartyKind distinguishes the two account kinds a buyer or seller can have.
// "pf" is an individual person, "pj" a business entity. A party is always
// exactly one of the two.
type PartyKind string

const (
	KindIndividual PartyKind = "pf"
	KindBusiness   PartyKind = "pj"
)

func ToPartyKind(s string) (PartyKind, error) {
	switch PartyKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindIndividual:
		return KindIndividual, nil
	case KindBusiness:
		return KindBusiness, nil
	}
	return "", fmt.Errorf("party kind %q: %w", s, ErrInvalidInput)
}

// Party identifies a buyer or seller account.
type Party struct {
	ID   uuid.UUID
	Kind PartyKind
}

func (p Party) Validate() error {
	if p.ID == uuid.Nil {
		return fmt.Errorf("party id is empty: %w", ErrInvalidInput)
	}
	if p.Kind != KindIndividual && p.Kind != KindBusiness {
		return fmt.Errorf("party kind %q: %w", p.Kind, ErrInvalidInput)
	}
	return nil
}
