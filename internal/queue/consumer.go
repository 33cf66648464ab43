package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-review-api/internal/mail"
)

// errMalformed marks a delivery that can never succeed.
var errMalformed = errors.New("malformed mail event")

// Consumer drains the mail queue and sends every message through Sender.
type Consumer struct {
	URL    string
	Queue  string
	QoS    int
	Sender mail.Sender
	Log    *zap.Logger
}

// Run connects, consumes and reconnects with exponential backoff until
// ctx is cancelled.  It only returns ctx.Err().
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("mail-consumer: failed to dial broker", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn("mail-consumer: consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if c.QoS > 0 {
		if err := ch.Qos(c.QoS, 0, false); err != nil {
			c.Log.Warn("mail-consumer: set QoS failed", zap.Error(err))
		}
	}
	if err := declare(ch, c.Queue); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	c.Log.Info("mail-consumer: consuming", zap.String("queue", c.Queue))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			err := c.handle(ctx, d.Body)
			switch {
			case err == nil:
				_ = d.Ack(false)
			case errors.Is(err, errMalformed):
				c.Log.Error("mail-consumer: dropping message", zap.Error(err))
				_ = d.Nack(false, false)
			default:
				// the relay may recover; requeue once, then drop
				c.Log.Warn("mail-consumer: send failed", zap.Error(err), zap.Bool("redelivered", d.Redelivered))
				_ = d.Nack(false, !d.Redelivered)
			}
		}
	}
}

// handle decodes one delivery and sends it.
func (c *Consumer) handle(ctx context.Context, body []byte) error {
	var ev MailRequested
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if ev.Message.To == "" {
		return fmt.Errorf("%w: empty recipient", errMalformed)
	}
	sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := c.Sender.Send(sendCtx, ev.Message); err != nil {
		return err
	}
	c.Log.Info("mail-consumer: sent", zap.String("id", ev.ID), zap.String("to", ev.Message.To))
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
