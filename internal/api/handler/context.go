package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/news-api/internal/api/middleware"
	"github.com/sirpyerre/news-api/internal/pkg/token"
)

// ctxClaims extracts the claims injected by the Auth middleware. A zero id
// means the token was structurally valid but carries no identity.
func ctxClaims(c echo.Context) (*token.Claims, error) {
	claims, _ := c.Get(middleware.ClaimsKey).(*token.Claims)
	if claims == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	if claims.ID == 0 {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "token missing user identity")
	}
	return claims, nil
}

func paramID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
