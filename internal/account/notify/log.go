package notify

import (
	"context"

	"github.com/dmitrijs2005/reviewhub/internal/logging"
)

// LogDispatcher only logs messages. Used in development.
type LogDispatcher struct {
	log logging.Logger
}

func NewLogDispatcher(log logging.Logger) *LogDispatcher {
	return &LogDispatcher{log: log.With("module", "notify")}
}

func (d *LogDispatcher) Send(ctx context.Context, msg Message) error {
	d.log.Info(ctx, "mail", "to", msg.To, "subject", msg.Subject, "body", msg.HTMLBody)
	return nil
}
