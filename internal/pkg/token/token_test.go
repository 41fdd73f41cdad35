package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sirpyerre/news-api/internal/core/domain"
)

func TestIssuer_IssueAndParse(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	iss := NewIssuer("secret", 0)
	iss.now = func() time.Time { return fixed }

	bearer, err := iss.Issue(&domain.User{ID: 7, Name: "Alice Doe", Email: "alice@example.com", Profile: "a.png"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !strings.HasPrefix(bearer, BearerPrefix) {
		t.Fatalf("expected Bearer prefix, got %q", bearer)
	}

	claims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(strings.TrimPrefix(bearer, BearerPrefix), claims)
	if err != nil {
		t.Fatalf("parse unverified: %v", err)
	}
	for _, k := range []string{"id", "name", "email", "profile", "exp"} {
		if _, ok := claims[k]; !ok {
			t.Fatalf("missing claim %q in %+v", k, claims)
		}
	}
	if len(claims) != 5 {
		t.Fatalf("expected exactly 5 claims, got %+v", claims)
	}
	exp, _ := claims.GetExpirationTime()
	if !exp.Time.Equal(fixed.Add(DefaultTTL)) {
		t.Fatalf("expected exp one year after issue, got %v", exp.Time)
	}
}

func TestParse_RoundTrip(t *testing.T) {
	bearer, err := NewIssuer("secret", time.Hour).Issue(&domain.User{ID: 3, Name: "Bob Smith", Email: "bob@example.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := Parse(strings.TrimPrefix(bearer, BearerPrefix), "secret")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.ID != 3 || claims.Email != "bob@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParse_Rejects(t *testing.T) {
	bearer, _ := NewIssuer("secret", time.Hour).Issue(&domain.User{ID: 1})
	raw := strings.TrimPrefix(bearer, BearerPrefix)

	if _, err := Parse(raw, "other"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}

	expired := NewIssuer("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _ := expired.Issue(&domain.User{ID: 1})
	if _, err := Parse(strings.TrimPrefix(old, BearerPrefix), "secret"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}
