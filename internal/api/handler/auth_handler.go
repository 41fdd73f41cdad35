package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/news-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      ports.RegisterInput  true  "User registration details"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  map[string]any
// @Failure      500   {object}  errorResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req ports.RegisterInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	user, err := h.authService.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, userResponse{Message: "SUCCESS", User: user})
}

// Login authenticates a user and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      ports.LoginInput  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]any
// @Failure      500   {object}  errorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req ports.LoginInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	accessToken, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, loginResponse{Message: "Logged in", AccessToken: accessToken})
}

// Profile returns the authenticated user.
//
// @Summary      Current user
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/profile [get]
func (h *AuthHandler) Profile(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	user, err := h.authService.Profile(c.Request().Context(), claims.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, userResponse{User: user})
}

// UpdateProfile replaces the profile image of the authenticated user.
//
// @Summary      Update profile image
// @Tags         profile
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int   true  "User id"
// @Param        profile  formData  file  true  "Profile image"
// @Success      200      {object}  userResponse
// @Failure      400      {object}  map[string]any
// @Failure      401      {object}  errorResponse
// @Failure      403      {object}  errorResponse
// @Failure      500      {object}  errorResponse
// @Router       /api/profile/{id} [put]
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	img, err := formImage(c, "profile")
	if err != nil {
		return err
	}

	user, err := h.authService.UpdateProfile(c.Request().Context(), claims.ID, id, img)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, userResponse{Message: "Profile updated successfully!", User: user})
}
