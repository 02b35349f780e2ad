// Package notifytest provides an in-memory notify.Sender for tests of code
// that sends messages.
package notifytest

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/wordrush/internal/server/notify"
)

// Outbox records messages instead of delivering them. When Err is set,
// Send fails with it and records nothing.
type Outbox struct {
	mu       sync.Mutex
	messages []notify.Message
	Err      error
}

func (o *Outbox) Send(_ context.Context, msg notify.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Err != nil {
		return o.Err
	}
	o.messages = append(o.messages, msg)
	return nil
}

// Messages returns a copy of what was sent so far.
func (o *Outbox) Messages() []notify.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]notify.Message(nil), o.messages...)
}

// Last returns the most recent message and whether there was one.
func (o *Outbox) Last() (notify.Message, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.messages) == 0 {
		return notify.Message{}, false
	}
	return o.messages[len(o.messages)-1], true
}
