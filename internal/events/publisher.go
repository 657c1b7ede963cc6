// Package events publishes order lifecycle events to the broker for the
// fulfillment side. Publishing is fire-and-forget: a broker outage never
// fails a purchase.
package events

import (
	"context"
	"time"

	kafkax "github.com/acordeapp/acorde/internal/kafka"
	"github.com/acordeapp/acorde/internal/market"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

type Publisher struct {
	Created  *kafkax.Producer // order.created
	Rejected *kafkax.Producer // order.rejected
	Service  string
}

func (p *Publisher) OrderCreated(ctx context.Context, o market.Order) {
	payload := market.OrderCreatedPayload{
		OrderID:     o.ID.String(),
		ProductID:   o.ProductID.String(),
		BuyerID:     o.Buyer.ID.String(),
		BuyerKind:   string(o.Buyer.Kind),
		SellerID:    o.Seller.ID.String(),
		SellerKind:  string(o.Seller.Kind),
		Quantity:    o.Quantity,
		TotalAmount: o.Total.Amount.StringFixed(2),
		Currency:    o.Total.Currency.String(),
	}
	p.publish(ctx, p.Created, market.EventOrderCreated, o.ID.String(), kafkax.MustMarshal(payload))
}

func (p *Publisher) OrderRejected(ctx context.Context, buyer market.Party, productID uuid.UUID, qty int, reason string) {
	payload := market.OrderRejectedPayload{
		ProductID: productID.String(),
		BuyerID:   buyer.ID.String(),
		Requested: qty,
		Reason:    reason,
	}
	p.publish(ctx, p.Rejected, market.EventOrderRejected, productID.String(), kafkax.MustMarshal(payload))
}

func (p *Publisher) publish(_ context.Context, prod *kafkax.Producer, eventType, correlationID string, payload []byte) {
	if prod == nil {
		return
	}
	ev := market.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      p.Service,
		CorrelationID: correlationID,
		Payload:       payload,
	}
	prod.Publish(market.PartitionKey(correlationID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
