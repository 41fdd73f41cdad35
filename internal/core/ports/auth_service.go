package ports

import (
	"context"

	"github.com/sirpyerre/news-api/internal/core/domain"
)

// RegisterInput is the DTO passed from the transport layer to AuthService.Register.
type RegisterInput struct {
	Name                 string `json:"name" form:"name" validate:"required,min=5,max=150"`
	Email                string `json:"email" form:"email" validate:"required,email"`
	Password             string `json:"password" form:"password" validate:"required,min=5,max=72"`
	PasswordConfirmation string `json:"password_confirmation" form:"password_confirmation" validate:"required,eqfield=Password"`
}

type LoginInput struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// AuthService handles registration, login and the caller's own profile.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	// Login returns the access token already prefixed with "Bearer ".
	Login(ctx context.Context, in LoginInput) (string, error)
	Profile(ctx context.Context, userID int64) (*domain.User, error)
	UpdateProfile(ctx context.Context, actorID, userID int64, img *ImageUpload) (*domain.User, error)
}
