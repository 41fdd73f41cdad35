package ports

import (
	"context"

	"github.com/sirpyerre/news-api/internal/core/domain"
)

// UserRepository persists users. Lookups return domain.ErrUserNotFound when
// no row matches; Create returns domain.ErrUserExists on a duplicate email.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdateProfile(ctx context.Context, id int64, profile string) error
}
