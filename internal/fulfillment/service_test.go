package fulfillment_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/acordeapp/acorde/internal/fulfillment"
	kafkax "github.com/acordeapp/acorde/internal/kafka"
	"github.com/acordeapp/acorde/internal/market"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatusStore struct {
	mu    sync.Mutex
	calls int
	errs  []error // popped per call; nil means success
}

func (f *fakeStatusStore) AdvanceStatus(_ context.Context, _ uuid.UUID, _ market.OrderStatus) (market.OrderStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return "", err
		}
	}
	return market.StatusCreated, nil
}

func (f *fakeStatusStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCache struct {
	mu   sync.Mutex
	keys map[string]string
}

func newFakeCache() *fakeCache { return &fakeCache{keys: map[string]string{}} }

func (f *fakeCache) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.keys[key]
	return ok, nil
}

func (f *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys[key] = value
	return nil
}

func (f *fakeCache) get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.keys[key]
	return v, ok
}

func orderCreatedMessage(t *testing.T, eventID string, orderID uuid.UUID) kafkago.Message {
	t.Helper()

	env := market.Envelope{
		EventID:      eventID,
		EventType:    market.EventOrderCreated,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "marketplace-api",
		Payload:      kafkax.MustMarshal(market.OrderCreatedPayload{OrderID: orderID.String()}),
	}
	return kafkago.Message{Value: kafkax.MustMarshal(env)}
}

func newService(store *fakeStatusStore, cache *fakeCache) *fulfillment.Service {
	return &fulfillment.Service{
		Orders:      store,
		Cache:       cache,
		ServiceName: "test-fulfillment",
	}
}

func TestHandleOrderCreated_AdvancesAndCaches(t *testing.T) {
	store := &fakeStatusStore{}
	cache := newFakeCache()
	svc := newService(store, cache)
	orderID := uuid.New()

	err := svc.HandleOrderCreated(context.Background(), orderCreatedMessage(t, "ev-1", orderID))

	require.NoError(t, err)
	assert.Equal(t, 1, store.callCount())
	status, ok := cache.get(fmt.Sprintf("order_status:%s", orderID))
	require.True(t, ok)
	assert.JSONEq(t, `{"status":"processing"}`, status)
}

func TestHandleOrderCreated_DuplicateEventSkipped(t *testing.T) {
	store := &fakeStatusStore{}
	cache := newFakeCache()
	svc := newService(store, cache)
	msg := orderCreatedMessage(t, "ev-dup", uuid.New())

	require.NoError(t, svc.HandleOrderCreated(context.Background(), msg))
	require.NoError(t, svc.HandleOrderCreated(context.Background(), msg))

	assert.Equal(t, 1, store.callCount(), "the replay must not hit the store")
}

// A transient store failure must not mark the event processed, otherwise the
// redelivered message is skipped and the order never leaves created.
func TestHandleOrderCreated_TransientFailureRetries(t *testing.T) {
	store := &fakeStatusStore{errs: []error{errors.New("connection reset")}}
	cache := newFakeCache()
	svc := newService(store, cache)
	msg := orderCreatedMessage(t, "ev-retry", uuid.New())

	err := svc.HandleOrderCreated(context.Background(), msg)
	require.Error(t, err)
	_, marked := cache.get("dedup:test-fulfillment:ev-retry")
	assert.False(t, marked, "failed event must stay retryable")

	// redelivery
	require.NoError(t, svc.HandleOrderCreated(context.Background(), msg))
	assert.Equal(t, 2, store.callCount())
	_, marked = cache.get("dedup:test-fulfillment:ev-retry")
	assert.True(t, marked)
}

func TestHandleOrderCreated_CompensatedOrderDropped(t *testing.T) {
	orderID := uuid.New()
	store := &fakeStatusStore{errs: []error{fmt.Errorf("order %s: %w", orderID, market.ErrNotFound)}}
	cache := newFakeCache()
	svc := newService(store, cache)
	msg := orderCreatedMessage(t, "ev-gone", orderID)

	require.NoError(t, svc.HandleOrderCreated(context.Background(), msg))

	_, marked := cache.get("dedup:test-fulfillment:ev-gone")
	assert.True(t, marked, "terminal skip is still processed")
	_, cached := cache.get(fmt.Sprintf("order_status:%s", orderID))
	assert.False(t, cached, "no status to cache for a deleted order")

	// replay stays quiet
	require.NoError(t, svc.HandleOrderCreated(context.Background(), msg))
	assert.Equal(t, 1, store.callCount())
}

func TestHandleOrderCreated_IgnoresOtherEventTypes(t *testing.T) {
	store := &fakeStatusStore{}
	svc := newService(store, newFakeCache())

	env := market.Envelope{EventID: "ev-x", EventType: market.EventOrderRejected}
	err := svc.HandleOrderCreated(context.Background(), kafkago.Message{Value: kafkax.MustMarshal(env)})

	require.NoError(t, err)
	assert.Zero(t, store.callCount())
}
