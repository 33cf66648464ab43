package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-review-api/internal/database"
	"github.com/iliyamo/movie-review-api/internal/mail"
	"github.com/iliyamo/movie-review-api/internal/repository"
	"github.com/iliyamo/movie-review-api/internal/service"
)

var superuser struct {
	email    string
	username string
	password string
}

// createsuperuser makes a verified staff account without sending mail.
var superuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Create a verified administrator account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		db, err := database.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		auth := service.NewAuthService(service.NewAuthConfig(cfg),
			repository.NewUserRepo(db), repository.NewTokenRepo(db), mail.LogSender{Log: log}, log)
		u, err := auth.CreateSuperuser(cmd.Context(), superuser.email, superuser.username, superuser.password)
		if err != nil {
			return err
		}
		log.Info("superuser created", zap.Uint64("user_id", u.ID), zap.String("email", u.Email))
		fmt.Fprintf(cmd.OutOrStdout(), "Superuser %s created.\n", u.Username)
		return nil
	},
}

func init() {
	f := superuserCmd.Flags()
	f.StringVar(&superuser.email, "email", "", "email address")
	f.StringVar(&superuser.username, "username", "", "username")
	f.StringVar(&superuser.password, "password", "", "password")
	_ = superuserCmd.MarkFlagRequired("email")
	_ = superuserCmd.MarkFlagRequired("username")
	_ = superuserCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(superuserCmd)
}
