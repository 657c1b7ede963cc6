// Package fulfillment consumes order.created events and moves fresh orders
// into processing. Order status later in the lifecycle is advanced by
// operational flows outside this service.
package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	kafkax "github.com/acordeapp/acorde/internal/kafka"
	"github.com/acordeapp/acorde/internal/market"
	"github.com/acordeapp/acorde/internal/redisx"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

// OrderStatusStore is the slice of the order repository this service needs.
type OrderStatusStore interface {
	AdvanceStatus(ctx context.Context, orderID uuid.UUID, to market.OrderStatus) (market.OrderStatus, error)
}

// Cache is the slice of Redis this service needs: the processed-event set and
// the order status cache.
type Cache interface {
	Exists(ctx context.Context, key string) (bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type Service struct {
	Orders      OrderStatusStore
	Cache       Cache
	Status      *kafkax.Producer // order.status, optional
	ServiceName string
}

// HandleOrderCreated is installed as the consumer handler.
func (s *Service) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	var env market.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.EventType != market.EventOrderCreated {
		return nil // not ours
	}

	// dedup by event id
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if exists, _ := s.Cache.Exists(ctx, dkey); exists {
		return nil
	}

	payload, err := kafkax.UnwrapPayload[market.OrderCreatedPayload](env.Payload)
	if err != nil {
		return err
	}
	orderID, err := uuid.Parse(payload.OrderID)
	if err != nil {
		return fmt.Errorf("order id %q: %w", payload.OrderID, err)
	}

	from, err := s.Orders.AdvanceStatus(ctx, orderID, market.StatusProcessing)
	if err != nil {
		if errors.Is(err, market.ErrNotFound) {
			// Order was compensated away before we got here; drop the event.
			log.Printf("order %s gone before fulfillment, skipping", orderID)
			s.markProcessed(ctx, dkey)
			return nil
		}
		if errors.Is(err, market.ErrInvalidInput) {
			// Already past processing; a replayed event must not bounce forever.
			log.Printf("order %s already advanced, skipping: %v", orderID, err)
			s.markProcessed(ctx, dkey)
			return nil
		}
		// Transient failure: leave the dedup key unset so the redelivery
		// actually retries instead of being skipped.
		return fmt.Errorf("advance order %s: %w", orderID, err)
	}
	if from != market.StatusProcessing { // no-op replays stay quiet
		log.Printf("order %s: %s -> %s", orderID, from, market.StatusProcessing)
		s.publishStatusChange(orderID.String(), from, market.StatusProcessing)
	}
	s.markProcessed(ctx, dkey)

	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	_ = s.Cache.Set(ctx, statusKey, `{"status":"processing"}`, redisx.TTLStatusCache)
	return nil
}

// markProcessed records the event id once its outcome is terminal.
func (s *Service) markProcessed(ctx context.Context, dkey string) {
	if err := s.Cache.Set(ctx, dkey, "1", redisx.TTLDedup); err != nil {
		log.Printf("mark event processed: %v", err)
	}
}

func (s *Service) publishStatusChange(orderID string, from, to market.OrderStatus) {
	if s.Status == nil {
		return
	}
	ev := market.Envelope{
		EventID:       uuid.NewString(),
		EventType:     market.EventOrderStatusChanged,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: orderID,
		Payload: kafkax.MustMarshal(market.OrderStatusChangedPayload{
			OrderID: orderID,
			From:    string(from),
			To:      string(to),
		}),
	}
	s.Status.Publish(market.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(market.EventOrderStatusChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
