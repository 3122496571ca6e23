// Package events publishes catalog change notifications for other services.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/reviewhub/internal/logging"
)

const TypeCategoryRemoved = "category.removed"

type CategoryRemoved struct {
	Type       string    `json:"type"`
	CategoryID string    `json:"category_id"`
	Name       string    `json:"name"`
	RemovedBy  string    `json:"removed_by"`
	RemovedAt  time.Time `json:"removed_at"`
}

// Publisher is what the catalog service needs to announce changes.
type Publisher interface {
	CategoryRemoved(ctx context.Context, e CategoryRemoved) error
}

type queuePublisher interface {
	Publish(ctx context.Context, queue string, v any) error
}

// QueuePublisher sends events to a durable queue.
type QueuePublisher struct {
	pub   queuePublisher
	queue string
}

func NewQueuePublisher(pub queuePublisher, queue string) *QueuePublisher {
	return &QueuePublisher{pub: pub, queue: queue}
}

func (p *QueuePublisher) CategoryRemoved(ctx context.Context, e CategoryRemoved) error {
	e.Type = TypeCategoryRemoved
	if err := p.pub.Publish(ctx, p.queue, e); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

// LogPublisher only logs events. It is used when no broker is configured.
type LogPublisher struct {
	log logging.Logger
}

func NewLogPublisher(log logging.Logger) *LogPublisher {
	return &LogPublisher{log: log.With("module", "events")}
}

func (p *LogPublisher) CategoryRemoved(ctx context.Context, e CategoryRemoved) error {
	p.log.Info(ctx, "event", "type", TypeCategoryRemoved, "category_id", e.CategoryID, "name", e.Name, "removed_by", e.RemovedBy)
	return nil
}
