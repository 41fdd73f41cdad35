package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/sirpyerre/news-api/docs"
	"github.com/sirpyerre/news-api/internal/api/handler"
	"github.com/sirpyerre/news-api/internal/api/middleware"
	"github.com/sirpyerre/news-api/internal/core/ports"
	"github.com/sirpyerre/news-api/internal/infrastructure/http/handlers"
)

const (
	bodyLimit        = "10M"
	defaultRateLimit = 20
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Auth   ports.AuthService
	News   ports.NewsService
	Images ports.ImageStore
	// Cache backs the news listing. Nil disables response caching.
	Cache     middleware.ResponseStore
	JWTSecret string
	// Checks are run by the readiness probe.
	Checks map[string]handlers.Check
	// ImageDir is served under /images when images live on local disk.
	ImageDir string
	// RateLimit is requests per second per client IP.
	RateLimit float64
	// Registerer receives the HTTP metrics. Defaults to the global registry.
	Registerer prometheus.Registerer
	Log        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	limit := deps.RateLimit
	if limit <= 0 {
		limit = defaultRateLimit
	}
	registerer := deps.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.Secure())
	e.Use(echomiddleware.BodyLimit(bodyLimit))
	e.Use(echomiddleware.RateLimiter(echomiddleware.NewRateLimiterMemoryStore(rate.Limit(limit))))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: registerer,
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	newsHandler := handler.NewNewsHandler(deps.News, deps.Images)
	requireAuth := middleware.Auth(deps.JWTSecret)

	// --- Ops routes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Checks)

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Hello, it's working"})
	})
	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	if deps.ImageDir != "" {
		e.Static("/images", deps.ImageDir)
	}

	api := e.Group("/api")

	// --- Auth routes ---
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	// --- Profile routes ---
	api.GET("/profile", authHandler.Profile, requireAuth)
	api.PUT("/profile/:id", authHandler.UpdateProfile, requireAuth, middleware.SelfOnly("id"))

	// --- News routes ---
	var listMiddleware []echo.MiddlewareFunc
	if deps.Cache != nil {
		listMiddleware = append(listMiddleware, middleware.Cache(deps.Cache, deps.Log))
	}
	api.GET("/news", newsHandler.List, listMiddleware...)
	api.POST("/news", newsHandler.Create, requireAuth)
	api.GET("/news/:id", newsHandler.Show)
	api.PUT("/news/:id", newsHandler.Update, requireAuth)
	api.DELETE("/news/:id", newsHandler.Destroy, requireAuth)

	return e
}
