package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/sirpyerre/news-api/internal/core/domain"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(NewStore())

	created, err := repo.Create(ctx, &domain.User{Name: "Alice Doe", Email: "alice@example.com"})
	if err != nil || created.ID != 1 {
		t.Fatalf("unexpected create result: %+v, %v", created, err)
	}
	if _, err := repo.Create(ctx, &domain.User{Email: "ALICE@example.com"}); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	found, err := repo.FindByEmail(ctx, "alice@example.com")
	if err != nil || found.ID != created.ID {
		t.Fatalf("FindByEmail: %+v, %v", found, err)
	}
	if _, err := repo.FindByEmail(ctx, "ghost@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if err := repo.UpdateProfile(ctx, created.ID, "me.png"); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	u, _ := repo.FindByID(ctx, created.ID)
	if u.Profile != "me.png" {
		t.Fatalf("profile not updated: %+v", u)
	}
}

func TestNewsRepository(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	users := NewUserRepository(store)
	repo := NewNewsRepository(store)

	author, _ := users.Create(ctx, &domain.User{Name: "Alice Doe", Email: "alice@example.com", Profile: "a.png"})
	for i := 0; i < 3; i++ {
		if _, err := repo.Create(ctx, &domain.News{Title: "title", UserID: author.ID}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	page, err := repo.List(ctx, 1, 10)
	if err != nil || len(page) != 2 || page[0].ID != 2 {
		t.Fatalf("unexpected page: %+v, %v", page, err)
	}
	if page[0].Author == nil || page[0].Author.Name != "Alice Doe" {
		t.Fatalf("expected author projection, got %+v", page[0].Author)
	}

	empty, _ := repo.List(ctx, 10, 10)
	if len(empty) != 0 {
		t.Fatalf("expected empty page past the end")
	}

	n, _ := repo.Count(ctx)
	if n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}

	got, _ := repo.FindByID(ctx, 1)
	got.Title = "changed"
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	again, _ := repo.FindByID(ctx, 1)
	if again.Title != "changed" {
		t.Fatalf("update not persisted")
	}

	if err := repo.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, 1); !errors.Is(err, domain.ErrNewsNotFound) {
		t.Fatalf("expected ErrNewsNotFound, got %v", err)
	}
}
