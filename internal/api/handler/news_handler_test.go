package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/news-api/internal/core/domain"
	"github.com/sirpyerre/news-api/internal/core/ports"
)

type stubNewsService struct {
	listFn   func(ctx context.Context, page, limit int) (*domain.NewsPage, error)
	createFn func(ctx context.Context, actorID int64, in ports.NewsInput, img *ports.ImageUpload) (*domain.News, error)
	getFn    func(ctx context.Context, id int64) (*domain.News, error)
	updateFn func(ctx context.Context, actorID, id int64, in ports.NewsInput, img *ports.ImageUpload) error
	deleteFn func(ctx context.Context, actorID, id int64) error
}

func (s *stubNewsService) List(ctx context.Context, page, limit int) (*domain.NewsPage, error) {
	return s.listFn(ctx, page, limit)
}

func (s *stubNewsService) Create(ctx context.Context, actorID int64, in ports.NewsInput, img *ports.ImageUpload) (*domain.News, error) {
	return s.createFn(ctx, actorID, in, img)
}

func (s *stubNewsService) Get(ctx context.Context, id int64) (*domain.News, error) {
	return s.getFn(ctx, id)
}

func (s *stubNewsService) Update(ctx context.Context, actorID, id int64, in ports.NewsInput, img *ports.ImageUpload) error {
	return s.updateFn(ctx, actorID, id, in, img)
}

func (s *stubNewsService) Delete(ctx context.Context, actorID, id int64) error {
	return s.deleteFn(ctx, actorID, id)
}

func sampleNews(id int64, author *domain.Author) domain.News {
	return domain.News{
		ID:        id,
		Title:     "Breaking story",
		Content:   "Something happened today",
		Image:     "cover.png",
		UserID:    1,
		CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Author:    author,
	}
}

func TestNewsHandler_List(t *testing.T) {
	stub := &stubNewsService{
		listFn: func(ctx context.Context, page, limit int) (*domain.NewsPage, error) {
			if page != 2 || limit != 5 {
				t.Fatalf("unexpected paging: page=%d limit=%d", page, limit)
			}
			return &domain.NewsPage{
				Items: []domain.News{
					sampleNews(1, &domain.Author{ID: 1, Name: "Alice Smith", Profile: "me.png"}),
					sampleNews(2, &domain.Author{ID: 1, Name: "Alice Smith"}),
				},
				Total:      12,
				Page:       2,
				Limit:      5,
				TotalPages: 3,
			}, nil
		},
	}
	handler := NewNewsHandler(stub, urlStub{})

	c, rec := newContext(http.MethodGet, "/api/news?page=2&limit=5", nil, "")
	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp listNewsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Metadata != (listMetadata{TotalPages: 3, CurrentPage: 2, CurrentLimit: 5}) {
		t.Fatalf("unexpected metadata: %+v", resp.Metadata)
	}
	if len(resp.News) != 2 {
		t.Fatalf("expected 2 items, got %d", len(resp.News))
	}

	first := resp.News[0]
	if first.Heading != "Breaking story" || first.News != "Something happened today" {
		t.Fatalf("unexpected transform: %+v", first)
	}
	if first.Image != "http://cdn.test/images/cover.png" {
		t.Fatalf("unexpected image url: %q", first.Image)
	}
	if first.Reporter == nil || first.Reporter.Profile != "http://cdn.test/images/me.png" {
		t.Fatalf("unexpected reporter: %+v", first.Reporter)
	}
	if resp.News[1].Reporter.Profile != DefaultAvatarURL {
		t.Fatalf("expected default avatar, got %q", resp.News[1].Reporter.Profile)
	}
}

func TestNewsHandler_List_InvalidQueryFallsBack(t *testing.T) {
	stub := &stubNewsService{
		listFn: func(ctx context.Context, page, limit int) (*domain.NewsPage, error) {
			if page != 0 || limit != 0 {
				t.Fatalf("unparsable values should reach the service as zero, got %d/%d", page, limit)
			}
			return &domain.NewsPage{Page: 1, Limit: 10}, nil
		},
	}
	handler := NewNewsHandler(stub, urlStub{})

	c, rec := newContext(http.MethodGet, "/api/news?page=abc&limit=-", nil, "")
	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"news":[]`) {
		t.Fatalf("empty page must render an empty list: %s", rec.Body.String())
	}
}

func TestNewsHandler_Create(t *testing.T) {
	stub := &stubNewsService{
		createFn: func(ctx context.Context, actorID int64, in ports.NewsInput, img *ports.ImageUpload) (*domain.News, error) {
			if actorID != 7 {
				t.Fatalf("unexpected actor %d", actorID)
			}
			if in.Title != "Breaking story" || in.Content != "Something happened today" {
				t.Fatalf("unexpected input: %+v", in)
			}
			if img == nil || len(img.Content) != len(pngBytes) {
				t.Fatalf("image not forwarded: %+v", img)
			}
			n := sampleNews(3, nil)
			n.UserID = actorID
			return &n, nil
		},
	}
	handler := NewNewsHandler(stub, urlStub{})

	body, ct := multipartBody(t, map[string]string{
		"title":   "Breaking story",
		"content": "Something happened today",
	}, "image", pngBytes)
	c, rec := newContext(http.MethodPost, "/api/news", body, ct)
	withUser(c, 7)

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "News created successfully!") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestNewsHandler_Create_WithoutImage(t *testing.T) {
	stub := &stubNewsService{
		createFn: func(ctx context.Context, actorID int64, in ports.NewsInput, img *ports.ImageUpload) (*domain.News, error) {
			if img != nil {
				t.Fatalf("expected nil upload")
			}
			return nil, domain.NewValidationError("image", "Image field is required.").WithCause(domain.ErrMissingImage)
		},
	}
	handler := NewNewsHandler(stub, urlStub{})

	body, ct := multipartBody(t, map[string]string{"title": "Breaking story"}, "", nil)
	c, _ := newContext(http.MethodPost, "/api/news", body, ct)
	withUser(c, 7)

	if err := handler.Create(c); !errors.Is(err, domain.ErrMissingImage) {
		t.Fatalf("expected ErrMissingImage, got %v", err)
	}
}

func TestNewsHandler_Create_RequiresAuth(t *testing.T) {
	handler := NewNewsHandler(&stubNewsService{}, urlStub{})
	c, _ := newContext(http.MethodPost, "/api/news", nil, "")

	expectStatus(t, handler.Create(c), http.StatusUnauthorized)
}

func TestNewsHandler_Show(t *testing.T) {
	stub := &stubNewsService{
		getFn: func(ctx context.Context, id int64) (*domain.News, error) {
			if id == 404 {
				return nil, nil
			}
			n := sampleNews(id, &domain.Author{ID: 1, Name: "Alice Smith"})
			return &n, nil
		},
	}
	handler := NewNewsHandler(stub, urlStub{})

	t.Run("found", func(t *testing.T) {
		c, rec := newContext(http.MethodGet, "/api/news/5", nil, "")
		withParam(c, "id", "5")
		if err := handler.Show(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if !strings.Contains(rec.Body.String(), `"heading":"Breaking story"`) {
			t.Fatalf("unexpected body: %s", rec.Body.String())
		}
	})

	t.Run("missing renders null", func(t *testing.T) {
		c, rec := newContext(http.MethodGet, "/api/news/404", nil, "")
		withParam(c, "id", "404")
		if err := handler.Show(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if strings.TrimSpace(rec.Body.String()) != `{"news":null}` {
			t.Fatalf("unexpected body: %s", rec.Body.String())
		}
	})

	t.Run("bad id", func(t *testing.T) {
		c, _ := newContext(http.MethodGet, "/api/news/x", nil, "")
		withParam(c, "id", "x")
		expectStatus(t, handler.Show(c), http.StatusBadRequest)
	})
}

func TestNewsHandler_Update(t *testing.T) {
	called := false
	stub := &stubNewsService{
		updateFn: func(ctx context.Context, actorID, id int64, in ports.NewsInput, img *ports.ImageUpload) error {
			called = true
			if actorID != 7 || id != 3 {
				t.Fatalf("unexpected ids: actor=%d id=%d", actorID, id)
			}
			if img != nil {
				t.Fatalf("json update carries no image")
			}
			if in.Title != "Updated title" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return nil
		},
	}
	handler := NewNewsHandler(stub, urlStub{})

	c, rec := newContext(http.MethodPut, "/api/news/3",
		strings.NewReader(`{"title":"Updated title","content":"Updated content body"}`), echo.MIMEApplicationJSON)
	withUser(c, 7)
	withParam(c, "id", "3")

	if err := handler.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected service call and 200, got %d", rec.Code)
	}
}

func TestNewsHandler_Update_Forbidden(t *testing.T) {
	stub := &stubNewsService{
		updateFn: func(ctx context.Context, actorID, id int64, in ports.NewsInput, img *ports.ImageUpload) error {
			return domain.ErrForbidden
		},
	}
	handler := NewNewsHandler(stub, urlStub{})

	c, _ := newContext(http.MethodPut, "/api/news/3", strings.NewReader(`{}`), echo.MIMEApplicationJSON)
	withUser(c, 8)
	withParam(c, "id", "3")

	if err := handler.Update(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestNewsHandler_Destroy(t *testing.T) {
	stub := &stubNewsService{
		deleteFn: func(ctx context.Context, actorID, id int64) error {
			if actorID != 7 || id != 3 {
				t.Fatalf("unexpected ids: actor=%d id=%d", actorID, id)
			}
			return nil
		},
	}
	handler := NewNewsHandler(stub, urlStub{})

	c, rec := newContext(http.MethodDelete, "/api/news/3", nil, "")
	withUser(c, 7)
	withParam(c, "id", "3")

	if err := handler.Destroy(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "News deleted successfully!") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}
