package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// userIDKey is where JWTAuth stores the authenticated user id.
const userIDKey = "user_id"

// UserID returns the id JWTAuth stored for this request.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(userIDKey).(uint64)
	return id, ok && id != 0
}

// identity names the caller for rate limit keys: the user id when
// authenticated, "anon" otherwise.
func identity(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
