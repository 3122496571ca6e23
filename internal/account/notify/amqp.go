package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/reviewhub/internal/mq"
)

type publisher interface {
	Publish(ctx context.Context, queue string, v any) error
}

// AMQPDispatcher queues messages for the relay instead of sending them.
type AMQPDispatcher struct {
	pub   publisher
	queue string
}

func NewAMQPDispatcher(pub publisher, queue string) *AMQPDispatcher {
	return &AMQPDispatcher{pub: pub, queue: queue}
}

func (d *AMQPDispatcher) Send(ctx context.Context, msg Message) error {
	if err := d.pub.Publish(ctx, d.queue, msg); err != nil {
		return fmt.Errorf("queue mail: %w", err)
	}
	return nil
}

// RelayHandler decodes queued messages and hands them to next, usually an
// SMTPDispatcher.
func RelayHandler(next Dispatcher) mq.Handler {
	return func(ctx context.Context, body []byte) error {
		var msg Message
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("decode mail: %w", err)
		}
		return next.Send(ctx, msg)
	}
}
