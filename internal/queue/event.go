// Package queue carries outgoing mail over RabbitMQ.  The API publishes
// MailRequested events; the worker consumes them and hands each message
// to a mail.Sender.
package queue

import (
	"time"

	"github.com/iliyamo/movie-review-api/internal/mail"
)

// MailRequested is published when the API wants an email sent.  It holds
// the fully rendered message so the worker needs no database access.
type MailRequested struct {
	ID          string       `json:"id"`
	Message     mail.Message `json:"message"`
	RequestedAt time.Time    `json:"requested_at"`
}
