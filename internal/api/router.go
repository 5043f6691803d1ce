package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/fazpramim/marketplace/docs"
	"github.com/fazpramim/marketplace/internal/api/handler"
	"github.com/fazpramim/marketplace/internal/api/middleware"
	"github.com/fazpramim/marketplace/internal/core/domain"
	"github.com/fazpramim/marketplace/internal/core/service"
)

const providerUploadLimit = "16M"

// Dependencies carries the services the router exposes.
type Dependencies struct {
	Log           zerolog.Logger
	JWTSecret     string
	AuthRateLimit float64

	Auth     *service.AuthService
	Sessions middleware.SessionResolver
	Runner   *service.FormRunner
	Search   *service.SearchService
	Requests *service.RequestService
	Chat     *service.ChatService
	Profiles *service.ProfileService

	// Readiness lists the dependency checks of /health/ready.
	Readiness map[string]handler.Check
	// Registerer receives the HTTP metrics; nil means the default registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	registerer := deps.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "marketplace",
		Registerer: registerer,
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	formHandler := handler.NewFormHandler(deps.Runner.Navigation(), deps.Runner)
	providerHandler := handler.NewProviderHandler(deps.Search)
	requestHandler := handler.NewRequestHandler(deps.Requests, deps.Search)
	chatHandler := handler.NewChatHandler(deps.Chat, deps.Search)
	profileHandler := handler.NewProfileHandler(deps.Profiles)

	authMiddleware := middleware.Auth(deps.JWTSecret, deps.Sessions)
	rateLimit := echomiddleware.RateLimiter(
		echomiddleware.NewRateLimiterMemoryStore(rate.Limit(deps.AuthRateLimit)),
	)

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/login", authHandler.Login, rateLimit)
	auth.POST("/register/client", authHandler.RegisterClient, rateLimit)
	auth.POST("/register/provider", authHandler.RegisterProvider, rateLimit, echomiddleware.BodyLimit(providerUploadLimit))
	auth.POST("/logout", authHandler.Logout, authMiddleware)
	auth.GET("/me", authHandler.Me, authMiddleware)

	// --- Public API ---
	v1 := e.Group("/v1")
	v1.POST("/forms/:form/validate", formHandler.Validate)
	v1.GET("/forms/:form/state", formHandler.State)
	v1.GET("/forms/navigation", formHandler.FormNavigation)
	v1.GET("/providers", providerHandler.Search)
	v1.GET("/providers/:id", providerHandler.Details)

	// --- Authenticated API ---
	session := v1.Group("", authMiddleware)
	session.GET("/session/navigation", formHandler.SessionNavigation)

	clients := session.Group("", middleware.RBAC(domain.RoleClient))
	clients.POST("/providers/:id/requests", requestHandler.Create)
	clients.GET("/requests", requestHandler.List)
	clients.GET("/chat/:provider_id", chatHandler.Thread)
	clients.POST("/chat/:provider_id/messages", chatHandler.Send)

	providers := session.Group("/profile", middleware.RBAC(domain.RoleProvider))
	providers.GET("", profileHandler.Get)
	providers.PUT("", profileHandler.Update)
	providers.POST("/services", profileHandler.AddService)
	providers.DELETE("/services/:id", profileHandler.RemoveService)

	// --- Health probes, metrics and docs (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(deps.Readiness).Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
