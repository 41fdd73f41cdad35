package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sirpyerre/news-api/internal/core/domain"
	"github.com/sirpyerre/news-api/internal/core/ports"
	"github.com/sirpyerre/news-api/internal/pkg/token"
	"github.com/sirpyerre/news-api/internal/pkg/validate"
)

// DefaultBcryptCost is the work factor used when none is configured.
const DefaultBcryptCost = 17

// AuthService implements registration, login and profile management.
type AuthService struct {
	repo   ports.UserRepository
	images ports.ImageStore
	tokens *token.Issuer
	cost   int
	log    zerolog.Logger

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthService(repo ports.UserRepository, images ports.ImageStore, tokens *token.Issuer, cost int, log zerolog.Logger) *AuthService {
	if cost <= 0 {
		cost = DefaultBcryptCost
	}
	return &AuthService{repo: repo, images: images, tokens: tokens, cost: cost, log: log}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	_, err := s.repo.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, domain.ErrUserExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Name:      in.Name,
		Email:     in.Email,
		Password:  string(hash),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Int64("user_id", created.ID).Msg("user registered")
	return created, nil
}

func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (string, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validate.Struct(in); err != nil {
		return "", err
	}

	user, err := s.repo.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Keep the response time close to the wrong-password path.
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(in.Password))
			return "", domain.NewValidationError("email", "No user found with this email.").WithCause(domain.ErrUserNotFound)
		}
		return "", fmt.Errorf("login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)) != nil {
		return "", domain.NewValidationError("email", "Invalid Credentials.").WithCause(domain.ErrInvalidCredentials)
	}

	return s.tokens.Issue(user)
}

func (s *AuthService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	return user, nil
}

// UpdateProfile replaces the caller's profile image. The previous image is
// removed best-effort.
func (s *AuthService) UpdateProfile(ctx context.Context, actorID, userID int64, img *ports.ImageUpload) (*domain.User, error) {
	if actorID != userID {
		return nil, domain.ErrForbidden
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	name, err := storeImage(ctx, s.images, "profile", img)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateProfile(ctx, userID, name); err != nil {
		s.removeImage(ctx, name)
		return nil, fmt.Errorf("update profile: %w", err)
	}

	if user.Profile != "" {
		s.removeImage(ctx, user.Profile)
	}
	user.Profile = name
	return user, nil
}

func (s *AuthService) removeImage(ctx context.Context, name string) {
	if err := s.images.Remove(ctx, name); err != nil {
		s.log.Warn().Err(err).Str("image", name).Msg("failed to remove image")
	}
}

// dummy lazily builds a hash at the configured cost for unknown-email logins.
func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cost)
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to build dummy hash")
		}
		s.dummyHash = h
	})
	return s.dummyHash
}
