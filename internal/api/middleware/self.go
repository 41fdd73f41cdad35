package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/news-api/internal/core/domain"
	"github.com/sirpyerre/news-api/internal/pkg/token"
)

// SelfOnly lets a request through only when the path parameter param equals
// the id of the authenticated user. It must run after Auth.
func SelfOnly(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, _ := c.Get(ClaimsKey).(*token.Claims)
			if claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}

			id, err := strconv.ParseInt(c.Param(param), 10, 64)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid "+param)
			}
			if id != claims.ID {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
