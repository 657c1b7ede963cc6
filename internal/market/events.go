package market

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderRejected      = "OrderRejected"
	EventOrderStatusChanged = "OrderStatusChanged"
)

// Envelope wraps every event published to the broker.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // usually order_id
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID     string `json:"order_id"`
	ProductID   string `json:"product_id"`
	BuyerID     string `json:"buyer_id"`
	BuyerKind   string `json:"buyer_kind"`
	SellerID    string `json:"seller_id"`
	SellerKind  string `json:"seller_kind"`
	Quantity    int    `json:"quantity"`
	TotalAmount string `json:"total_amount"`
	Currency    string `json:"currency"`
}

type OrderRejectedPayload struct {
	ProductID string `json:"product_id"`
	BuyerID   string `json:"buyer_id"`
	Requested int    `json:"requested"`
	Reason    string `json:"reason"` // e.g. OUT_OF_STOCK
}

type OrderStatusChangedPayload struct {
	OrderID string `json:"order_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}
