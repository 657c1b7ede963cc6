package market

const (
	TopicOrderCreated  = "order.created"
	TopicOrderRejected = "order.rejected"
	TopicOrderStatus   = "order.status"
)

// Partition key = order_id so all events of one order stay ordered.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
