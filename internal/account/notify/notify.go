// Package notify delivers account emails. Dispatchers send a rendered
// Message over SMTP, through a RabbitMQ queue, or only to the log.
package notify

import "context"

type Message struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
}

type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}
