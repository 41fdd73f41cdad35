package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/news-api/internal/core/ports"
	"github.com/sirpyerre/news-api/internal/core/service"
)

// formImage reads the uploaded file in field. It returns nil when the request
// carries no such file so services can decide whether the image is required.
// At most MaxImageSize+1 bytes are read; Size keeps the declared length.
func formImage(c echo.Context, field string) (*ports.ImageUpload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, service.MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	return &ports.ImageUpload{
		Filename: fh.Filename,
		Size:     fh.Size,
		Content:  content,
	}, nil
}
