package service

import (
	"context"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/sirpyerre/news-api/internal/core/domain"
	"github.com/sirpyerre/news-api/internal/core/ports"
)

// MaxImageSize is the largest accepted upload, 2 MB.
const MaxImageSize = 2 << 20

var allowedImageTypes = []string{
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/webp",
	"image/svg+xml",
}

// checkImage validates an upload bound to the given form field and returns the
// detected MIME type.
func checkImage(field string, img *ports.ImageUpload) (*mimetype.MIME, error) {
	if img == nil {
		return nil, domain.NewValidationError(field, "Image field is required.").WithCause(domain.ErrMissingImage)
	}
	if img.Size > MaxImageSize || int64(len(img.Content)) > MaxImageSize {
		return nil, domain.NewValidationError(field, "Image size must be less than 2 MB.").WithCause(domain.ErrInvalidImage)
	}

	mt := mimetype.Detect(img.Content)
	for _, allowed := range allowedImageTypes {
		if mt.Is(allowed) {
			return mt, nil
		}
	}
	return nil, domain.NewValidationError(field, "Image must be type of png,jpg,jpeg,svg,webp,gif.").WithCause(domain.ErrInvalidImage)
}

// storeImage validates img and writes it under a fresh random name.
func storeImage(ctx context.Context, store ports.ImageStore, field string, img *ports.ImageUpload) (string, error) {
	mt, err := checkImage(field, img)
	if err != nil {
		return "", err
	}

	name := uuid.NewString() + mt.Extension()
	if err := store.Put(ctx, name, img.Content, mt.String()); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return name, nil
}
