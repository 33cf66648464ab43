package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-review-api/internal/config"
	"github.com/iliyamo/movie-review-api/internal/database"
	"github.com/iliyamo/movie-review-api/internal/handler"
	"github.com/iliyamo/movie-review-api/internal/middleware"
	"github.com/iliyamo/movie-review-api/internal/repository"
	"github.com/iliyamo/movie-review-api/internal/router"
	"github.com/iliyamo/movie-review-api/internal/service"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, log)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply pending migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	if migrateOnStart {
		if err := database.Migrate(cfg, database.Up); err != nil {
			return err
		}
		log.Info("migrations applied")
	}

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb := config.NewRedisClient(ctx)
	if rdb == nil {
		log.Warn("redis unavailable, rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	genres := repository.NewGenreRepo(db)
	movies := repository.NewMovieRepo(db)
	reviews := repository.NewReviewRepo(db)

	auth := service.NewAuthService(service.NewAuthConfig(cfg), users, tokens, newMailer(cfg.Mail, log), log)

	e := router.New(router.Deps{
		Auth:      handler.NewAuthHandler(auth, log),
		Genres:    handler.NewGenreHandler(service.NewGenreService(genres, movies), log),
		Movies:    handler.NewMovieHandler(service.NewMovieService(movies), log),
		Reviews:   handler.NewReviewHandler(service.NewReviewService(reviews, movies), log),
		JWTSecret: cfg.JWTSecret,
		Users:     users,
		Cache:     middleware.NewResponseCache(config.LoadCacheConfig(), rdb, log),
		RateLimit: middleware.RateLimit(config.LoadRateLimitConfig(), rdb, log),
		DB:        db,
		Log:       log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", ":"+cfg.Port), zap.String("env", cfg.Env))
		errCh <- e.Start(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
