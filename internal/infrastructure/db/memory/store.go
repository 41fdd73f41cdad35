// Package memory is an in-process store used for local development and tests.
// It provides the same user and news repositories as the database adapters.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/sirpyerre/news-api/internal/core/domain"
)

type Store struct {
	mu         sync.RWMutex
	users      map[int64]domain.User
	news       map[int64]domain.News
	nextUserID int64
	nextNewsID int64
}

func NewStore() *Store {
	return &Store{
		users: make(map[int64]domain.User),
		news:  make(map[int64]domain.News),
	}
}

// Ping satisfies the readiness checker.
func (s *Store) Ping(context.Context) error { return nil }

// UserRepository is the users view of a Store.
type UserRepository struct{ s *Store }

func NewUserRepository(s *Store) *UserRepository { return &UserRepository{s: s} }

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *UserRepository) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return nil, domain.ErrUserExists
		}
	}

	r.s.nextUserID++
	created := *user
	created.ID = r.s.nextUserID
	r.s.users[created.ID] = created
	return &created, nil
}

func (r *UserRepository) UpdateProfile(_ context.Context, id int64, profile string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Profile = profile
	r.s.users[id] = u
	return nil
}

// NewsRepository is the news view of a Store.
type NewsRepository struct{ s *Store }

func NewNewsRepository(s *Store) *NewsRepository { return &NewsRepository{s: s} }

// List orders by id ascending, matching the database adapters.
func (r *NewsRepository) List(_ context.Context, offset, limit int) ([]domain.News, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := make([]int64, 0, len(r.s.news))
	for id := range r.s.news {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if offset >= len(ids) {
		return []domain.News{}, nil
	}
	ids = ids[offset:]
	if len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]domain.News, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.withAuthor(r.s.news[id]))
	}
	return out, nil
}

func (r *NewsRepository) Count(context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.news)), nil
}

func (r *NewsRepository) FindByID(_ context.Context, id int64) (*domain.News, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n, ok := r.s.news[id]
	if !ok {
		return nil, domain.ErrNewsNotFound
	}
	n = r.withAuthor(n)
	return &n, nil
}

func (r *NewsRepository) Create(_ context.Context, news *domain.News) (*domain.News, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextNewsID++
	created := *news
	created.ID = r.s.nextNewsID
	created.Author = nil
	r.s.news[created.ID] = created
	return &created, nil
}

func (r *NewsRepository) Update(_ context.Context, news *domain.News) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.news[news.ID]; !ok {
		return domain.ErrNewsNotFound
	}
	updated := *news
	updated.Author = nil
	r.s.news[news.ID] = updated
	return nil
}

func (r *NewsRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.news[id]; !ok {
		return domain.ErrNewsNotFound
	}
	delete(r.s.news, id)
	return nil
}

// withAuthor must be called with the read lock held.
func (r *NewsRepository) withAuthor(n domain.News) domain.News {
	if u, ok := r.s.users[n.UserID]; ok {
		n.Author = domain.AuthorOf(&u)
	}
	return n
}
