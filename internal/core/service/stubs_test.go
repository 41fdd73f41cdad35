package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/sirpyerre/news-api/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs shared by the service tests.
// ---------------------------------------------------------------------------

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type stubUserRepo struct {
	users     map[int64]*domain.User
	nextID    int64
	createErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[int64]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	copy := cloneUser(user)
	copy.ID = r.nextID
	r.users[copy.ID] = copy
	return cloneUser(copy), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, id int64, profile string) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Profile = profile
	return nil
}

type stubNewsRepo struct {
	items     map[int64]*domain.News
	nextID    int64
	createErr error
	lastList  [2]int
}

func newStubNewsRepo() *stubNewsRepo {
	return &stubNewsRepo{items: make(map[int64]*domain.News)}
}

func (r *stubNewsRepo) List(_ context.Context, offset, limit int) ([]domain.News, error) {
	r.lastList = [2]int{offset, limit}
	ids := make([]int64, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := []domain.News{}
	for i, id := range ids {
		if i < offset || len(out) == limit {
			continue
		}
		out = append(out, *r.items[id])
	}
	return out, nil
}

func (r *stubNewsRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.items)), nil
}

func (r *stubNewsRepo) FindByID(_ context.Context, id int64) (*domain.News, error) {
	n, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNewsNotFound
	}
	clone := *n
	return &clone, nil
}

func (r *stubNewsRepo) Create(_ context.Context, news *domain.News) (*domain.News, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.nextID++
	clone := *news
	clone.ID = r.nextID
	r.items[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubNewsRepo) Update(_ context.Context, news *domain.News) error {
	if _, ok := r.items[news.ID]; !ok {
		return domain.ErrNewsNotFound
	}
	clone := *news
	r.items[news.ID] = &clone
	return nil
}

func (r *stubNewsRepo) Delete(_ context.Context, id int64) error {
	delete(r.items, id)
	return nil
}

type stubImageStore struct {
	stored    map[string][]byte
	removed   []string
	removeErr error
}

func newStubImageStore() *stubImageStore {
	return &stubImageStore{stored: make(map[string][]byte)}
}

func (s *stubImageStore) Put(_ context.Context, name string, content []byte, _ string) error {
	s.stored[name] = content
	return nil
}

func (s *stubImageStore) Remove(_ context.Context, name string) error {
	s.removed = append(s.removed, name)
	delete(s.stored, name)
	return s.removeErr
}

func (s *stubImageStore) URL(name string) string { return "/images/" + name }

type stubQueue struct {
	names []string
	jobs  [][]domain.News
	err   error
}

func (q *stubQueue) Add(_ context.Context, name string, data []domain.News) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.names = append(q.names, name)
	q.jobs = append(q.jobs, data)
	return "job-1", nil
}

type stubCache struct {
	invalidations int
}

func (c *stubCache) Invalidate(_ context.Context) error {
	c.invalidations++
	return nil
}

type stubNotifier struct {
	mu     sync.Mutex
	sent   []int64
	failOn map[int64]bool
}

func (n *stubNotifier) NewsCreated(_ context.Context, news domain.News) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failOn[news.ID] {
		return errors.New("broker unavailable")
	}
	n.sent = append(n.sent, news.ID)
	return nil
}

type stubDedup struct {
	mu     sync.Mutex
	marked map[string]bool
	dupErr error
}

func newStubDedup() *stubDedup {
	return &stubDedup{marked: make(map[string]bool)}
}

func (d *stubDedup) IsDuplicate(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dupErr != nil {
		return false, d.dupErr
	}
	return d.marked[key], nil
}

func (d *stubDedup) Mark(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.marked[key] = true
	return nil
}
