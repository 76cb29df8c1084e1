package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher owns one channel on the shared connection. The typed publishers
// below layer a routing key over it.
type Publisher struct {
	channel  *amqp.Channel
	exchange string
}

func NewPublisher(conn *amqp.Connection, exchange string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open publisher channel: %w", err)
	}
	return &Publisher{channel: ch, exchange: exchange}, nil
}

func publishing(msg []byte, headers amqp.Table) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		Body:         msg,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Headers:      headers,
	}
}

func (p *Publisher) publish(ctx context.Context, routingKey string, msg []byte, headers amqp.Table) error {
	return p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, publishing(msg, headers))
}

// publishDirect bypasses the exchange and targets a queue by name.
func (p *Publisher) publishDirect(ctx context.Context, queue string, msg []byte, headers amqp.Table) error {
	return p.channel.PublishWithContext(ctx, "", queue, false, false, publishing(msg, headers))
}

// RequestPublisher enqueues capture requests for the worker pool.
type RequestPublisher struct {
	pub        *Publisher
	routingKey string
}

func NewRequestPublisher(pub *Publisher, captureQueue string) *RequestPublisher {
	return &RequestPublisher{pub: pub, routingKey: captureQueue}
}

func (rp *RequestPublisher) PublishRequest(ctx context.Context, msg []byte) error {
	return rp.pub.publish(ctx, rp.routingKey, msg, nil)
}

// StatusPublisher emits job lifecycle updates for downstream consumers.
type StatusPublisher struct {
	pub        *Publisher
	routingKey string
}

func NewStatusPublisher(pub *Publisher, statusQueue string) *StatusPublisher {
	return &StatusPublisher{pub: pub, routingKey: statusQueue}
}

func (sp *StatusPublisher) PublishStatus(ctx context.Context, msg []byte) error {
	return sp.pub.publish(ctx, sp.routingKey, msg, nil)
}

// DLQPublisher parks exhausted or unreadable messages, tagging each with
// the reason it was dead-lettered.
type DLQPublisher struct {
	pub   *Publisher
	queue string
}

func NewDLQPublisher(pub *Publisher, dlqQueue string) *DLQPublisher {
	return &DLQPublisher{pub: pub, queue: dlqQueue}
}

func (dp *DLQPublisher) PublishToDLQ(ctx context.Context, msg []byte, reason string) error {
	return dp.pub.publishDirect(ctx, dp.queue, msg, amqp.Table{"x-dlq-reason": reason})
}
