package handler

import (
	"github.com/sirpyerre/news-api/internal/core/domain"
)

// DefaultAvatarURL is shown for reporters without a profile image.
const DefaultAvatarURL = "https://cdn-icons-png.flaticon.com/512/149/149071.png"

// imageURLer resolves stored image names to public URLs.
type imageURLer interface {
	URL(name string) string
}

// --- Service result → HTTP response ---

func toNewsResponse(n domain.News, images imageURLer) newsResponse {
	resp := newsResponse{
		ID:        n.ID,
		Heading:   n.Title,
		News:      n.Content,
		Image:     images.URL(n.Image),
		CreatedAt: n.CreatedAt.UTC(),
	}
	if n.Author != nil {
		profile := DefaultAvatarURL
		if n.Author.Profile != "" {
			profile = images.URL(n.Author.Profile)
		}
		resp.Reporter = &reporterResponse{
			ID:      n.Author.ID,
			Name:    n.Author.Name,
			Profile: profile,
		}
	}
	return resp
}

func toListResponse(p *domain.NewsPage, images imageURLer) listNewsResponse {
	items := make([]newsResponse, len(p.Items))
	for i, n := range p.Items {
		items[i] = toNewsResponse(n, images)
	}
	return listNewsResponse{
		News: items,
		Metadata: listMetadata{
			TotalPages:   p.TotalPages,
			CurrentPage:  p.Page,
			CurrentLimit: p.Limit,
		},
	}
}
