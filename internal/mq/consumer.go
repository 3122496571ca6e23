package mq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/reviewhub/internal/logging"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
	prefetch       = 50
)

var errDeliveriesClosed = errors.New("deliveries channel closed")

// Handler processes one message body. A non-nil error rejects the message
// without requeueing it.
type Handler func(ctx context.Context, body []byte) error

// Consumer reads a durable queue and hands each message to a Handler,
// reconnecting with exponential backoff until its context is cancelled.
type Consumer struct {
	url     string
	queue   string
	handler Handler
	log     logging.Logger
	// subscribe is a seam for tests.
	subscribe func(ctx context.Context) (<-chan amqp.Delivery, func(), error)
}

func NewConsumer(url, queue string, handler Handler, log logging.Logger) *Consumer {
	c := &Consumer{
		url:     url,
		queue:   queue,
		handler: handler,
		log:     log.With("module", "mq.consumer", "queue", queue),
	}
	c.subscribe = c.dial
	return c
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := initialBackoff
	for {
		msgs, closeFn, err := c.subscribe(ctx)
		if err == nil {
			backoff = initialBackoff
			err = c.drain(ctx, msgs)
			closeFn()
		}

		if ctx.Err() != nil {
			return nil
		}

		c.log.Warn(ctx, "consumer interrupted, reconnecting", "error", err, "backoff", backoff.String())

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}

func (c *Consumer) dial(ctx context.Context) (<-chan amqp.Delivery, func(), error) {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("channel open: %w", err)
	}
	closeFn := func() {
		_ = ch.Close()
		_ = conn.Close()
	}

	if err := ch.Qos(prefetch, 0, false); err != nil {
		c.log.Warn(ctx, "set qos failed", "error", err)
	}

	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("queue consume: %w", err)
	}
	return msgs, closeFn, nil
}

func (c *Consumer) drain(ctx context.Context, msgs <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errDeliveriesClosed
			}
			if err := c.handler(ctx, d.Body); err != nil {
				c.log.Error(ctx, "handle message failed", "error", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}
