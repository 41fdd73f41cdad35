package middleware

import (
	"bytes"
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sirpyerre/news-api/internal/pkg/metrics"
)

// HeaderXCache reports whether a response came from the cache.
const HeaderXCache = "X-Cache"

// ResponseStore keeps rendered response bodies keyed by request URI.
type ResponseStore interface {
	Get(ctx context.Context, uri string) ([]byte, bool, error)
	Set(ctx context.Context, uri string, body []byte) error
}

// Cache serves GET responses from store and records successful misses.
// Store failures are logged and the request falls through to the handler.
func Cache(store ResponseStore, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}

			ctx := c.Request().Context()
			uri := c.Request().URL.RequestURI()

			body, ok, err := store.Get(ctx, uri)
			switch {
			case err != nil:
				metrics.CacheRequestsTotal.WithLabelValues("error").Inc()
				log.Warn().Err(err).Str("uri", uri).Msg("response cache read failed")
			case ok:
				metrics.CacheRequestsTotal.WithLabelValues("hit").Inc()
				c.Response().Header().Set(HeaderXCache, "HIT")
				return c.JSONBlob(http.StatusOK, body)
			default:
				metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()
			}

			c.Response().Header().Set(HeaderXCache, "MISS")

			res := c.Response()
			capture := &captureWriter{ResponseWriter: res.Writer}
			res.Writer = capture
			defer func() { res.Writer = capture.ResponseWriter }()

			if err := next(c); err != nil {
				return err
			}

			if res.Status == http.StatusOK && capture.buf.Len() > 0 {
				if err := store.Set(ctx, uri, capture.buf.Bytes()); err != nil {
					log.Warn().Err(err).Str("uri", uri).Msg("response cache write failed")
				}
			}
			return nil
		}
	}
}

type captureWriter struct {
	http.ResponseWriter
	buf bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}
