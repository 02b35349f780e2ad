// Package notify delivers messages to users. The server only needs one
// capability, Send, and treats delivery as fire-and-forget: failures are
// reported to the caller but never retried here.
package notify

import (
	"context"

	"github.com/dmitrijs2005/wordrush/internal/logging"
)

// Message is a plain-text message addressed to one recipient.
type Message struct {
	To      string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them. Useful
// for development; the body is logged because it is the only way to get
// at the token there.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(l logging.Logger) *LogSender {
	return &LogSender{logger: l.With("module", "notify")}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info(ctx, "notification", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}

// Observed calls fn with the result of every Send on the wrapped sender.
func Observed(s Sender, fn func(error)) Sender {
	return observed{next: s, fn: fn}
}

type observed struct {
	next Sender
	fn   func(error)
}

func (o observed) Send(ctx context.Context, msg Message) error {
	err := o.next.Send(ctx, msg)
	o.fn(err)
	return err
}
