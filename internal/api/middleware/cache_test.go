package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type mapStore struct {
	data   map[string][]byte
	getErr error
}

func newMapStore() *mapStore { return &mapStore{data: map[string][]byte{}} }

func (s *mapStore) Get(_ context.Context, uri string) ([]byte, bool, error) {
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	b, ok := s.data[uri]
	return b, ok, nil
}

func (s *mapStore) Set(_ context.Context, uri string, body []byte) error {
	s.data[uri] = append([]byte(nil), body...)
	return nil
}

func serveCached(t *testing.T, store ResponseStore, target string, h echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := Cache(store, zerolog.Nop())(h)(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestCache_MissThenHit(t *testing.T) {
	store := newMapStore()
	calls := 0
	h := func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, map[string]int{"calls": calls})
	}

	first := serveCached(t, store, "/api/news?page=2", h)
	if first.Header().Get(HeaderXCache) != "MISS" {
		t.Fatalf("expected MISS, got %q", first.Header().Get(HeaderXCache))
	}
	if _, ok := store.data["/api/news?page=2"]; !ok {
		t.Fatalf("response not stored")
	}

	second := serveCached(t, store, "/api/news?page=2", h)
	if second.Header().Get(HeaderXCache) != "HIT" {
		t.Fatalf("expected HIT, got %q", second.Header().Get(HeaderXCache))
	}
	if calls != 1 {
		t.Fatalf("handler should run once, ran %d times", calls)
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("cached body mismatch: %q vs %q", second.Body.String(), first.Body.String())
	}
}

func TestCache_KeyedByQuery(t *testing.T) {
	store := newMapStore()
	calls := 0
	h := func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, map[string]string{"page": c.QueryParam("page")})
	}

	serveCached(t, store, "/api/news?page=1", h)
	serveCached(t, store, "/api/news?page=2", h)
	if calls != 2 {
		t.Fatalf("different URIs must not share an entry, handler ran %d times", calls)
	}
}

func TestCache_SkipsErrors(t *testing.T) {
	store := newMapStore()
	h := func(c echo.Context) error {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "boom"})
	}

	serveCached(t, store, "/api/news", h)
	if len(store.data) != 0 {
		t.Fatalf("non-200 response must not be cached")
	}
}

func TestCache_StoreFailureFallsThrough(t *testing.T) {
	store := newMapStore()
	store.getErr = errors.New("redis down")
	h := func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"ok": "yes"})
	}

	rec := serveCached(t, store, "/api/news", h)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
