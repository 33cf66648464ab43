package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-review-api/internal/queue"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Deliver queued mail",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		c := &queue.Consumer{
			URL:    cfg.Mail.RabbitURL,
			Queue:  cfg.Mail.QueueName,
			QoS:    cfg.Mail.WorkerQoS,
			Sender: smtpOrLog(cfg.Mail, log),
			Log:    log,
		}
		log.Info("mail worker started", zap.String("queue", c.Queue))
		if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		log.Info("mail worker stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
