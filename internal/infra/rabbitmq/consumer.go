package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// MessageHandler consumes one raw message body. A nil return acks the
// delivery; an error nacks it for redelivery.
type MessageHandler func(ctx context.Context, body []byte) error

// Consumer drains the capture request queue with a fixed pool of workers.
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string

	workers   int
	baseDelay time.Duration
	handler   MessageHandler

	logger *zap.Logger
	wg     sync.WaitGroup
}

type ConsumerConfig struct {
	URL          string
	CaptureQueue string
	Exchange     string
	DLQ          string
	StatusQueue  string
	Prefetch     int
	WorkerCount  int
	BaseDelayMs  int
}

func NewConsumer(cfg ConsumerConfig, handler MessageHandler, logger *zap.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := DeclareTopology(ch, TopologyConfig{
		Exchange:     cfg.Exchange,
		CaptureQueue: cfg.CaptureQueue,
		StatusQueue:  cfg.StatusQueue,
		DLQ:          cfg.DLQ,
	}); err != nil {
		return nil, err
	}

	if err := ch.Qos(cfg.Prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	return &Consumer{
		conn:      conn,
		channel:   ch,
		queue:     cfg.CaptureQueue,
		workers:   cfg.WorkerCount,
		baseDelay: time.Duration(cfg.BaseDelayMs) * time.Millisecond,
		handler:   handler,
		logger:    logger,
	}, nil
}

// TopologyConfig names the exchange and queues every process agrees on.
// The worker and the API both declare it so either can start first.
type TopologyConfig struct {
	Exchange     string
	CaptureQueue string
	StatusQueue  string
	DLQ          string
}

func DeclareTopology(ch *amqp.Channel, cfg TopologyConfig) error {
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, q := range []string{cfg.CaptureQueue, cfg.DLQ, cfg.StatusQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
	}

	// Queue names double as routing keys.
	if err := ch.QueueBind(cfg.CaptureQueue, cfg.CaptureQueue, cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind capture queue: %w", err)
	}
	if err := ch.QueueBind(cfg.StatusQueue, cfg.StatusQueue, cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind status queue: %w", err)
	}
	return nil
}

// Start blocks consuming the capture queue until ctx is cancelled, then
// waits for in-flight deliveries to finish.
func (c *Consumer) Start(ctx context.Context) error {
	deliveries, err := c.channel.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}

	c.logger.Info("consuming capture requests",
		zap.String("queue", c.queue),
		zap.Int("workers", c.workers),
	)

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i, deliveries)
	}

	<-ctx.Done()
	c.logger.Info("shutdown requested, draining workers")
	c.wg.Wait()
	return nil
}

func (c *Consumer) worker(ctx context.Context, id int, deliveries <-chan amqp.Delivery) {
	defer c.wg.Done()
	log := c.logger.With(zap.Int("worker_id", id))
	log.Info("capture worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info("capture worker stopping")
			return
		case d, open := <-deliveries:
			if !open {
				log.Warn("delivery stream closed")
				return
			}
			c.handleDelivery(ctx, d, log)
		}
	}
}

// handleDelivery runs one message through the handler. A handler error nacks
// the message back onto the queue after an exponential backoff; the handler
// is responsible for routing exhausted messages to the DLQ and returning nil.
func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery, log *zap.Logger) {
	if err := c.handler(ctx, d.Body); err != nil {
		attempt := deliveryAttempt(d)
		delay := c.retryDelay(attempt)
		log.Warn("capture attempt failed, requeueing after backoff",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Uint64("delivery_tag", d.DeliveryTag),
		)

		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
			_ = d.Nack(false, true)
		case <-ctx.Done():
			_ = d.Nack(false, false)
		}
		return
	}

	_ = d.Ack(false)
}

// deliveryAttempt reports which attempt this delivery is on, counting the
// broker's x-death records. A message seen for the first time is attempt 1.
func deliveryAttempt(d amqp.Delivery) int {
	deaths, ok := d.Headers["x-death"].([]interface{})
	if !ok || len(deaths) == 0 {
		return 1
	}
	return len(deaths)
}

const maxRetryDelay = time.Minute

func (c *Consumer) retryDelay(attempt int) time.Duration {
	delay := c.baseDelay << uint(attempt-1)
	if delay <= 0 || delay > maxRetryDelay {
		return maxRetryDelay
	}
	return delay
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
