package domain

import (
	"math"
	"time"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// News is a published article. Author is only populated on read paths.
type News struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Image     string    `json:"image"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Author    *Author   `json:"user,omitempty"`
}

// NewsPage is one page of the news listing.
type NewsPage struct {
	Items      []News
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// NormalizePage clamps listing parameters: page <= 0 becomes 1, limit outside
// (0, MaxLimit] becomes DefaultLimit.
func NormalizePage(page, limit int) (int, int) {
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}
	return page, limit
}

// Offset returns the number of rows skipped before page.
func Offset(page, limit int) int {
	return (page - 1) * limit
}

// TotalPages is ceil(total/limit).
func TotalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}
