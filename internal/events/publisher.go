package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

const publishTimeout = 3 * time.Second

// Publisher sends order events to the topic exchange. It implements
// order.EventPublisher.
type Publisher struct {
	ch     Channel
	seq    Sequencer
	logger *zap.Logger
}

// NewPublisher opens a channel on conn. seq may be nil, in which case
// envelopes carry no sequence number.
func NewPublisher(conn *amqp.Connection, seq Sequencer, logger *zap.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	p, err := newPublisher(ch, seq, logger)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}
	return p, nil
}

func newPublisher(ch Channel, seq Sequencer, logger *zap.Logger) (*Publisher, error) {
	if err := declareEventsExchange(ch); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", EventsExchange, err)
	}
	return &Publisher{ch: ch, seq: seq, logger: logger}, nil
}

func (p *Publisher) nextSequence(ctx context.Context, partitionKey string) (*int64, error) {
	if p.seq == nil {
		return nil, nil
	}
	n, err := p.seq.NextSequence(ctx, partitionKey)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) OrderCreated(ctx context.Context, o order.Order) error {
	env := BuildOrderCreatedEnvelope(o, logging.CorrelationID(ctx))
	if err := env.Validate(OrderCreatedEventName, eventVersion); err != nil {
		return fmt.Errorf("%s envelope: %w", OrderCreatedEventName, err)
	}
	seq, err := p.nextSequence(ctx, env.PartitionKey)
	if err != nil {
		return err
	}
	env.Sequence = seq
	return p.publish(ctx, OrderCreatedRoutingKey, env.EventID, env.CorrelationID, env)
}

func (p *Publisher) OrderStatusChanged(ctx context.Context, o order.Order, from order.Status) error {
	env := BuildOrderStatusChangedEnvelope(o, from, logging.CorrelationID(ctx))
	if err := env.Validate(OrderStatusChangedEventName, eventVersion); err != nil {
		return fmt.Errorf("%s envelope: %w", OrderStatusChangedEventName, err)
	}
	seq, err := p.nextSequence(ctx, env.PartitionKey)
	if err != nil {
		return err
	}
	env.Sequence = seq
	return p.publish(ctx, OrderStatusChangedRoutingKey, env.EventID, env.CorrelationID, env)
}

func (p *Publisher) publish(ctx context.Context, routingKey, eventID, correlationID string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", routingKey, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.ch.PublishWithContext(pubCtx, EventsExchange, routingKey, false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     eventID,
		CorrelationId: correlationID,
		Timestamp:     time.Now().UTC(),
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	p.logger.Debug("event published", zap.String("routing_key", routingKey), zap.String("event_id", eventID))
	return nil
}

// NopPublisher drops events. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) OrderCreated(context.Context, order.Order) error                     { return nil }
func (NopPublisher) OrderStatusChanged(context.Context, order.Order, order.Status) error { return nil }
