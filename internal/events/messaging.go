package events

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange               = "storefront.events"
	OrderCreatedRoutingKey       = "order.created.v1"
	OrderStatusChangedRoutingKey = "order.status_changed.v1"
	producerName                 = "storefront-service-go"
)

// Channel is the part of *amqp.Channel the publisher uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

func declareEventsExchange(ch Channel) error {
	return ch.ExchangeDeclare(
		EventsExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}
