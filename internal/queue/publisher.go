package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-review-api/internal/mail"
)

// Publisher implements mail.Sender by publishing a MailRequested event to
// a durable queue.  A connection is opened per publish; mail volume is a
// handful of messages per user so pooling is not worth the reconnect logic.
type Publisher struct {
	URL   string
	Queue string
	Log   *zap.Logger
}

func NewPublisher(url, queue string, log *zap.Logger) *Publisher {
	return &Publisher{URL: url, Queue: queue, Log: log}
}

// Send publishes the message.  Errors are logged and returned so the
// caller can report a delivery failure.
func (p *Publisher) Send(ctx context.Context, m mail.Message) error {
	log := p.Log.With(zap.String("queue", p.Queue), zap.String("to", m.To))

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.Warn("rabbitmq: dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Warn("rabbitmq: channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if err := declare(ch, p.Queue); err != nil {
		log.Warn("rabbitmq: queue declare failed", zap.Error(err))
		return err
	}

	ev := MailRequested{ID: uuid.NewString(), Message: m, RequestedAt: time.Now().UTC()}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Timestamp:    ev.RequestedAt,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
		log.Warn("rabbitmq: publish failed", zap.Error(err))
		return err
	}
	log.Debug("mail queued", zap.String("id", ev.ID))
	return nil
}

// declare makes sure the queue exists.  Durable so messages survive
// broker restarts.
func declare(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(name, true, false, false, false, nil)
	return err
}
