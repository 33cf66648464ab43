// Package handler adapts HTTP requests to the service layer.  Handlers
// bind the body, call one service method under a bounded context and
// map the result or the typed error to a JSON response.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-review-api/internal/middleware"
	"github.com/iliyamo/movie-review-api/internal/service"
)

// dbTimeout bounds the storage work done for one request.
const dbTimeout = 5 * time.Second

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// getUserID returns the authenticated caller.  Routes using it sit behind
// middleware.JWTAuth, so a miss is a wiring bug reported as 401.
func getUserID(c echo.Context) (uint64, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "Authentication credentials were not provided.")
	}
	return id, nil
}

// parseID reads a positive numeric path parameter.  Anything else
// cannot name a row, so it is a 404 like an unknown id.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func notFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, echo.Map{"error": "not found."})
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
}

// respondError writes the response for an error returned by the service
// layer.  Unknown errors are logged and hidden behind a 500.
func respondError(c echo.Context, log *zap.Logger, err error) error {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, ve.Fields)
	}
	var se *service.Error
	if errors.As(err, &se) {
		switch {
		case errors.Is(se, service.ErrDelivery):
			return c.JSON(http.StatusBadRequest, echo.Map{"msg": se.Msg})
		case errors.Is(se, service.ErrConflict), errors.Is(se, service.ErrBadToken):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": se.Msg})
		case errors.Is(se, service.ErrUnauthorized):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": se.Msg})
		case errors.Is(se, service.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": se.Msg})
		case errors.Is(se, service.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": se.Msg})
		}
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	log.Error("request failed",
		zap.String("method", c.Request().Method),
		zap.String("path", c.Request().URL.Path),
		zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// ErrorHandler renders errors that escape handlers (unknown routes, bad
// methods, panics caught by Recover) in the same {"error": ...} shape.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := interface{}("internal error")
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			msg = he.Message
		} else {
			log.Error("unhandled error", zap.String("path", c.Request().URL.Path), zap.Error(err))
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, echo.Map{"error": msg})
		}
		if err != nil {
			log.Warn("write error response", zap.Error(err))
		}
	}
}
