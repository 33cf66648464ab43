// Package middleware provides the Echo middleware used by the router:
// bearer authentication, request logging, rate limiting and the catalog
// response cache.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/repository"
	"github.com/iliyamo/movie-review-api/internal/utils"
)

// UserLookup loads the account behind a token.  *repository.UserRepo
// satisfies it.
type UserLookup interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

const userLookupTimeout = 2 * time.Second

// JWTAuth validates a Bearer access token and stores the subject as a
// uint64 under "user_id" (see UserID).  Tokens minted for other purposes,
// such as email verification, are rejected.  When users is set the account
// must still exist and be active.
func JWTAuth(secret string, users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			scheme, raw, ok := strings.Cut(auth, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication credentials were not provided."})
			}
			id, err := utils.ParseToken(secret, utils.PurposeAccess, strings.TrimSpace(raw))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Given token not valid for any token type"})
			}
			if users != nil {
				ctx, cancel := context.WithTimeout(c.Request().Context(), userLookupTimeout)
				u, err := users.GetByID(ctx, id)
				cancel()
				switch {
				case errors.Is(err, repository.ErrNotFound):
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "User not found"})
				case err != nil:
					return err
				case !u.IsActive:
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "User is inactive"})
				}
			}
			c.Set(userIDKey, id)
			return next(c)
		}
	}
}
