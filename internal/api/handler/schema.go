package handler

import (
	"time"

	"github.com/sirpyerre/news-api/internal/core/domain"
)

// errorResponse is the standard error envelope returned on 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

type userResponse struct {
	Message string       `json:"message,omitempty"`
	User    *domain.User `json:"user"`
}

type loginResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
}

// --- News ---

type reporterResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Profile string `json:"profile"`
}

type newsResponse struct {
	ID        int64             `json:"id"`
	Heading   string            `json:"heading"`
	News      string            `json:"news"`
	Image     string            `json:"image"`
	CreatedAt time.Time         `json:"created_at"`
	Reporter  *reporterResponse `json:"reporter"`
}

type listMetadata struct {
	TotalPages   int `json:"totalPages"`
	CurrentPage  int `json:"currentPage"`
	CurrentLimit int `json:"currentLimit"`
}

type listNewsResponse struct {
	News     []newsResponse `json:"news"`
	Metadata listMetadata   `json:"metadata"`
}

type createNewsResponse struct {
	Message string       `json:"message"`
	News    *domain.News `json:"news"`
}

type showNewsResponse struct {
	News *newsResponse `json:"news"`
}
