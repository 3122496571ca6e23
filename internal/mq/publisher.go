// Package mq publishes JSON messages to durable RabbitMQ queues and runs
// reconnecting consumers for them.
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/reviewhub/internal/timex"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends persistent JSON messages through the default exchange,
// routed by queue name. It reuses one channel and reopens it after a failure.
type Publisher struct {
	mu       sync.Mutex
	open     func() (Channel, error)
	clock    timex.Clock
	ch       Channel
	declared map[string]struct{}
}

func NewPublisher(conn *amqp.Connection, clock timex.Clock) *Publisher {
	return newPublisher(func() (Channel, error) { return conn.Channel() }, clock)
}

func newPublisher(open func() (Channel, error), clock timex.Clock) *Publisher {
	return &Publisher{open: open, clock: clock, declared: make(map[string]struct{})}
}

// Publish marshals v and publishes it to queue, declaring the queue durable
// on first use.
func (p *Publisher) Publish(ctx context.Context, queue string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil {
		ch, err := p.open()
		if err != nil {
			return fmt.Errorf("open channel: %w", err)
		}
		p.ch = ch
		p.declared = make(map[string]struct{})
	}

	if _, ok := p.declared[queue]; !ok {
		if _, err := p.ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			p.reset()
			return fmt.Errorf("queue declare: %w", err)
		}
		p.declared[queue] = struct{}{}
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.clock.Now(),
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, "", queue, false, false, msg); err != nil {
		p.reset()
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Close releases the current channel, if any.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return nil
	}
	err := p.ch.Close()
	p.ch = nil
	return err
}

func (p *Publisher) reset() {
	_ = p.ch.Close()
	p.ch = nil
}
