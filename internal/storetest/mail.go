package storetest

import (
	"context"
	"sync"

	"github.com/iliyamo/movie-review-api/internal/mail"
)

// Outbox is a mail.Sender that records messages instead of sending
// them.  When Err is set every Send fails with it.
type Outbox struct {
	mu   sync.Mutex
	Err  error
	sent []mail.Message
}

func (o *Outbox) Send(_ context.Context, m mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Err != nil {
		return o.Err
	}
	o.sent = append(o.sent, m)
	return nil
}

// Sent returns a copy of the recorded messages.
func (o *Outbox) Sent() []mail.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]mail.Message(nil), o.sent...)
}

// Last returns the most recent message or the zero Message.
func (o *Outbox) Last() mail.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sent) == 0 {
		return mail.Message{}
	}
	return o.sent[len(o.sent)-1]
}
