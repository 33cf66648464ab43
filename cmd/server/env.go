package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/movie-review-api/internal/config"
	"github.com/iliyamo/movie-review-api/internal/logger"
	"github.com/iliyamo/movie-review-api/internal/mail"
	"github.com/iliyamo/movie-review-api/internal/queue"
)

// bootstrap loads configuration and builds the logger every command needs.
func bootstrap() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, fmt.Errorf("config: %w", err)
	}
	log, err := logger.Init(cfg.Log)
	if err != nil {
		return cfg, nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, log, nil
}

// smtpOrLog sends through SMTP when a host is configured and logs otherwise.
func smtpOrLog(cfg config.MailConfig, log *zap.Logger) mail.Sender {
	if cfg.SMTPHost == "" {
		log.Warn("SMTP_HOST not set, mail is only logged")
		return mail.LogSender{Log: log}
	}
	return mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.From)
}

// newMailer picks the sender the API uses for verification and reset mail.
func newMailer(cfg config.MailConfig, log *zap.Logger) mail.Sender {
	switch cfg.Delivery {
	case "queue":
		return queue.NewPublisher(cfg.RabbitURL, cfg.QueueName, log)
	case "smtp":
		return smtpOrLog(cfg, log)
	default:
		return mail.LogSender{Log: log}
	}
}
