// Package rest is the HTTP API of the intelligence server.
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/intelligence/internal/logging"
	"github.com/dmitrijs2005/intelligence/internal/server/auth"
	"github.com/dmitrijs2005/intelligence/internal/server/metrics"
	"github.com/dmitrijs2005/intelligence/internal/server/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// LoginService exchanges credentials for a token. services.UserService
// satisfies it.
type LoginService interface {
	Login(ctx context.Context, identifier string, password []byte) (string, error)
}

// Pinger reports whether a dependency is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators the router needs. Metrics and DB are optional.
type Deps struct {
	Authenticator *auth.Authenticator
	Users         LoginService
	Storage       *storage.Manager
	Metrics       *metrics.Metrics
	DB            Pinger
	Logger        logging.Logger

	// MaxImageBytes caps PUT bodies. Default 10 MiB.
	MaxImageBytes int64
	// RequestTimeout bounds each request. Default 30s.
	RequestTimeout time.Duration
}

// NewRouter creates the chi router with all middleware and routes.
//
// Routes:
//   - GET /health - Liveness and database reachability
//   - GET /metrics - Prometheus exposition
//   - POST /api/v1/auth/login - Exchange credentials for a token
//   - GET /api/v1/auth/me - Current principal
//   - GET /api/v1/users/{userId}/image - Profile image (public)
//   - PUT, DELETE /api/v1/users/{userId}/image - Admin or self
//   - GET /api/v1/users/{userId}/files - Immediate children of the user tree (admin or self)
//   - GET /api/v1/users/{userId}/usage - Recursive size of the user tree (admin or self)
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = logging.Nop()
	}
	if d.MaxImageBytes <= 0 {
		d.MaxImageBytes = 10 << 20
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}
	h := &handler{
		users:         d.Users,
		storage:       d.Storage,
		db:            d.DB,
		logger:        d.Logger.With("module", "rest"),
		maxImageBytes: d.MaxImageBytes,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	if d.Metrics != nil {
		r.Use(instrument(d.Metrics))
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(d.RequestTimeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) { notFound(w) })
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, http.StatusMethodNotAllowed, "")
	})

	r.Get("/health", h.health)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	required := func(next auth.PrincipalHandler) http.Handler {
		return auth.Required(d.Authenticator, h.authFailed, next)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.login)
			r.Method(http.MethodGet, "/me", required(h.me))
		})

		r.Route("/users/{userId}", func(r chi.Router) {
			r.Get("/image", h.getImage)
			r.Method(http.MethodPut, "/image", required(h.putImage))
			r.Method(http.MethodDelete, "/image", required(h.deleteImage))
			r.Method(http.MethodGet, "/files", required(h.listFiles))
			r.Method(http.MethodGet, "/usage", required(h.usage))
		})
	})

	return r
}
