// Package router wires handlers and middleware onto an Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-review-api/internal/handler"
	"github.com/iliyamo/movie-review-api/internal/middleware"
)

// Deps carries everything the routes need.  Cache and RateLimit may be
// built with a nil Redis client, in which case they pass requests through.
type Deps struct {
	Auth      *handler.AuthHandler
	Genres    *handler.GenreHandler
	Movies    *handler.MovieHandler
	Reviews   *handler.ReviewHandler
	JWTSecret string
	Users     middleware.UserLookup
	Cache     *middleware.ResponseCache
	RateLimit echo.MiddlewareFunc
	DB        handler.Pinger
	Log       *zap.Logger
}

// New returns a configured Echo instance with every route registered.
// Paths are registered with a trailing slash; requests without one are
// rewritten before routing, so both forms work.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.Validator{}
	e.HTTPErrorHandler = handler.ErrorHandler(d.Log)

	e.Pre(echomw.AddTrailingSlash())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.Recover())

	RegisterRoutes(e, d)
	RegisterAuth(e, d)
	RegisterCatalog(e, d)
	return e
}

// RegisterRoutes registers operational endpoints.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz/", handler.Health(d.DB))
}

// RegisterAuth registers the account endpoints.  The ones that take
// credentials or send mail are rate limited.
func RegisterAuth(e *echo.Echo, d Deps) {
	a := d.Auth
	rl := d.RateLimit
	if rl == nil {
		rl = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	jwt := middleware.JWTAuth(d.JWTSecret, d.Users)

	e.POST("/register/", a.Register, rl)
	e.POST("/resend-verification-email/", a.ResendVerification, rl)
	e.GET("/email-verify/", a.VerifyEmail)
	e.POST("/login/", a.Login, rl)
	e.POST("/token/refresh/", a.RefreshAccess, rl)
	e.POST("/request-password-reset-email/", a.RequestPasswordReset, rl)
	e.POST("/password-reset/:uidb64/:token/", a.ResetPassword, rl)

	e.POST("/logout/", a.Logout, jwt)
	e.GET("/profile/", a.Profile, jwt)
	e.POST("/password-change/", a.ChangePassword, jwt)
}

// RegisterCatalog registers genre, movie and review endpoints.  Reads are
// public and cached; writes need a bearer token and invalidate the cache.
func RegisterCatalog(e *echo.Echo, d Deps) {
	read := d.Cache.Read()
	write := []echo.MiddlewareFunc{middleware.JWTAuth(d.JWTSecret, d.Users), d.Cache.Invalidate()}

	e.GET("/genres/", d.Genres.List, read)
	e.GET("/genre/:id/", d.Genres.Movies, read)
	e.POST("/create-genre/", d.Genres.Create, write...)
	e.PUT("/update-genre/:id/", d.Genres.Update, write...)
	e.DELETE("/delete-genre/:id/", d.Genres.Delete, write...)

	e.GET("/", d.Movies.List, read)
	e.GET("/:id/", d.Movies.Get, read)
	e.POST("/create-movie/", d.Movies.Create, write...)
	e.PUT("/update-movie/:id/", d.Movies.Update, write...)
	e.PATCH("/update-movie/:id/", d.Movies.Update, write...)
	e.DELETE("/delete-movie/:id/", d.Movies.Delete, write...)

	e.POST("/create-review/:movie_id/", d.Reviews.Create, write...)
	e.PUT("/update-review/:id/", d.Reviews.Update, write...)
	e.PATCH("/update-review/:id/", d.Reviews.Update, write...)
	e.DELETE("/delete-review/:id/", d.Reviews.Delete, write...)
}
