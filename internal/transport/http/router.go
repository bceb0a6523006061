package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/unicauca/auth-service/internal/metrics"
	"github.com/unicauca/auth-service/internal/models"
	"github.com/unicauca/auth-service/internal/transport/http/handlers"
	"github.com/unicauca/auth-service/internal/transport/http/middleware"
)

// Options - параметры сборки HTTP-роутера.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
	Metrics *metrics.Metrics
	// Public - публичные пути для шлюза; nil - DefaultPublicRoutes.
	Public *middleware.PublicRoutes
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc handlers.AuthService, dec middleware.TokenDecoder, opts Options) http.Handler {
	public := middleware.DefaultPublicRoutes()
	if opts.Public != nil {
		public = *opts.Public
	}

	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),
		middleware.RequestID(),
		middleware.Logging(opts.Logger, opts.Metrics),
		middleware.Timeout(opts.Timeout, opts.Metrics),
		middleware.Authenticate(dec, public, opts.Metrics),
	)

	registerRoutes(root, handlers.New(svc))

	return root
}

// registerRoutes - единая точка регистрации REST-эндпойнтов и их политик доступа.
func registerRoutes(r chi.Router, h *handlers.Handlers) {
	// auth (Public)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authorize(middleware.Public()))
		r.Post("/auth/login", h.Login)
		r.Post("/auth/refresh", h.Refresh)
		r.Post("/auth/logout", h.Logout)
		r.Post("/auth/register", h.Register)
		r.Get("/auth/validate-role/{accountID}/{role}", h.ValidateRole)
		r.Get("/auth/account-id", h.AccountID)
	})

	// сессии и профиль (AuthenticatedAny)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authorize(middleware.AuthenticatedAny()))
		r.Post("/sessions/logout-all", h.LogoutAll)
		r.Get("/me", h.Me)
	})

	// ролевые маршруты
	r.With(middleware.Authorize(middleware.RequiresRole(models.RoleDirector))).
		Get("/director/ping", h.Ping)
	r.With(middleware.Authorize(middleware.RequiresRole(models.RoleCoordinator))).
		Get("/coordinator/ping", h.Ping)
}
