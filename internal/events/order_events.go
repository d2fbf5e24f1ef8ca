package events

import (
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/google/uuid"
)

const (
	OrderCreatedEventName       = "OrderCreated"
	OrderStatusChangedEventName = "OrderStatusChanged"
	eventVersion                = 1
)

type OrderItemPayload struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
}

type OrderCreatedPayload struct {
	OrderID   string             `json:"orderId"`
	UserID    string             `json:"userId"`
	Status    string             `json:"status"`
	Items     []OrderItemPayload `json:"items"`
	Total     string             `json:"total"`
	CreatedAt time.Time          `json:"createdAt"`
}

type OrderStatusChangedPayload struct {
	OrderID   string    `json:"orderId"`
	UserID    string    `json:"userId"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ChangedAt time.Time `json:"changedAt"`
}

type OrderCreatedEnvelope = EventEnvelope[OrderCreatedPayload]
type OrderStatusChangedEnvelope = EventEnvelope[OrderStatusChangedPayload]

// BuildOrderCreatedEnvelope wraps o for publishing. Prices and totals are
// rendered as strings fixed to two decimals.
func BuildOrderCreatedEnvelope(o order.Order, correlationID string) OrderCreatedEnvelope {
	items := make([]OrderItemPayload, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemPayload{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price.StringFixed(2),
			Quantity:  it.Quantity,
		})
	}

	return OrderCreatedEnvelope{
		EventName:     OrderCreatedEventName,
		EventVersion:  eventVersion,
		EventID:       uuid.NewString(),
		CorrelationID: correlationID,
		Producer:      producerName,
		PartitionKey:  o.ID,
		OccurredAt:    time.Now().UTC(),
		Schema:        "storefront://contracts/events/order-created/OrderCreated.v1.enveloped.schema.json",
		Payload: OrderCreatedPayload{
			OrderID:   o.ID,
			UserID:    o.UserID,
			Status:    string(o.Status),
			Items:     items,
			Total:     o.Total.StringFixed(2),
			CreatedAt: o.CreatedAt,
		},
	}
}

func BuildOrderStatusChangedEnvelope(o order.Order, from order.Status, correlationID string) OrderStatusChangedEnvelope {
	return OrderStatusChangedEnvelope{
		EventName:     OrderStatusChangedEventName,
		EventVersion:  eventVersion,
		EventID:       uuid.NewString(),
		CorrelationID: correlationID,
		Producer:      producerName,
		PartitionKey:  o.ID,
		OccurredAt:    time.Now().UTC(),
		Schema:        "storefront://contracts/events/order-status-changed/OrderStatusChanged.v1.enveloped.schema.json",
		Payload: OrderStatusChangedPayload{
			OrderID:   o.ID,
			UserID:    o.UserID,
			From:      string(from),
			To:        string(o.Status),
			ChangedAt: o.UpdatedAt,
		},
	}
}
