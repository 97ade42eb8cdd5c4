package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/auth-gateway/docs"
	"github.com/99minutos/auth-gateway/internal/api/handler"
	"github.com/99minutos/auth-gateway/internal/api/middleware"
	"github.com/99minutos/auth-gateway/internal/core/domain"
	"github.com/99minutos/auth-gateway/internal/core/ports"
)

// Dependencies is everything the router wires into handlers and middleware.
type Dependencies struct {
	Log     zerolog.Logger
	Auth    ports.AuthService
	Guard   ports.Guard
	Limiter ports.RateLimiter
	Notes   ports.NoteService
	Tasks   handler.TaskQueue
	Hub     handler.ConnectionHub

	Chat          handler.ChatOptions
	WSRequireAuth bool
	// TrustProxy takes the client IP from X-Forwarded-For instead of the
	// socket address.
	TrustProxy bool
	Readiness  []handler.DependencyCheck
	// Registerer receives the HTTP metrics. Defaults to the global registry;
	// tests pass a fresh one so routers can be built repeatedly.
	Registerer prometheus.Registerer
	// Now is the clock used for rate limiting and tokens. Defaults to time.Now.
	Now func() time.Time
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)
	if deps.TrustProxy {
		e.IPExtractor = echo.ExtractIPFromXFFHeader()
	} else {
		e.IPExtractor = echo.ExtractIPDirect()
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "gateway",
		Registerer: deps.Registerer,
		Skipper:    skipMetricsRoute,
	}))
	e.Use(middleware.RateLimit(deps.Limiter, now))

	authenticate := middleware.Authenticate(deps.Guard, now)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Auth, now)
	e.POST("/register", authHandler.Register)
	e.POST("/login", authHandler.Login)
	e.GET("/users/me", authHandler.Me, authenticate)
	e.GET("/admin/users", authHandler.ListUsers, authenticate, middleware.RequireRole(deps.Guard, domain.RoleAdmin))

	// --- Notes ---
	noteHandler := handler.NewNoteHandler(deps.Notes)
	notes := e.Group("/notes", authenticate)
	notes.POST("", noteHandler.Create)
	notes.GET("", noteHandler.List)
	notes.GET("/:id", noteHandler.Get)
	notes.PUT("/:id", noteHandler.Update)
	notes.DELETE("/:id", noteHandler.Delete)

	// --- Background tasks ---
	taskHandler := handler.NewTaskHandler(deps.Tasks, now)
	e.POST("/trigger-task", taskHandler.Trigger, authenticate)

	// --- Broadcast room ---
	chatHandler := handler.NewChatHandler(deps.Hub, deps.Chat, deps.Log)
	if deps.WSRequireAuth {
		e.GET("/ws", chatHandler.Serve, authenticate)
	} else {
		e.GET("/ws", chatHandler.Serve)
	}

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Readiness...)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	e.GET("/metrics", metricsHandler(deps.Registerer))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func skipMetricsRoute(c echo.Context) bool {
	return c.Path() == "/metrics"
}

// metricsHandler serves the registry the middleware writes to when it can be
// gathered, falling back to the default gatherer.
func metricsHandler(reg prometheus.Registerer) echo.HandlerFunc {
	if g, ok := reg.(prometheus.Gatherer); ok {
		return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: g})
	}
	return echoprometheus.NewHandler()
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error()
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
