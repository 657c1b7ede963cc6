package httpx

import (
	"context"
	"net/http"

	"github.com/acordeapp/acorde/internal/market"
	"github.com/google/uuid"
)

type ctxKey int

const identityKey ctxKey = iota

// RequireIdentity trusts the identity the edge proxy verified upstream and
// forwards as headers. The service itself never sees credentials.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.Header.Get("X-User-Id"))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity"})
			return
		}
		kind, err := market.ToPartyKind(r.Header.Get("X-User-Kind"))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity kind"})
			return
		}

		party := market.Party{ID: id, Kind: kind}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, party)))
	})
}

func identity(r *http.Request) market.Party {
	p, _ := r.Context().Value(identityKey).(market.Party)
	return p
}
