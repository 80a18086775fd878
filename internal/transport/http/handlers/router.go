package handlers

import (
	"net/http"

	"github.com/vedran77/autotask/internal/logging"
	"github.com/vedran77/autotask/internal/transport/http/middleware"
)

type RouterConfig struct {
	Auth        *AuthHandler
	Tasks       *TaskHandler
	Session     middleware.Authenticator
	Metrics     *middleware.Metrics
	Limiter     *middleware.RateLimiter
	Realtime    http.Handler
	FrontendURL string
	Logger      logging.Logger
	// GoogleEnabled registers the federated login routes.
	GoogleEnabled bool
}

// NewRouter wires every route and wraps the mux in
// request log -> metrics -> CORS.
func NewRouter(cfg RouterConfig) http.Handler {
	auth := middleware.Auth(cfg.Session, cfg.Metrics, cfg.Logger)
	limited := func(h http.HandlerFunc) http.Handler {
		if cfg.Limiter == nil {
			return h
		}
		return cfg.Limiter.Middleware(h)
	}

	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}
	mux.Handle("POST /api/auth/register", limited(cfg.Auth.Register))
	mux.Handle("POST /api/auth/login", limited(cfg.Auth.Login))
	if cfg.GoogleEnabled {
		mux.HandleFunc("GET /api/auth/google", cfg.Auth.GoogleStart)
		mux.HandleFunc("GET /api/auth/google/callback", cfg.Auth.GoogleCallback)
	}
	if cfg.Realtime != nil {
		mux.Handle("GET /ws", cfg.Realtime)
	}

	// Protected
	mux.Handle("GET /api/auth/me", auth(http.HandlerFunc(cfg.Auth.Me)))

	mux.Handle("GET /api/tasks", auth(http.HandlerFunc(cfg.Tasks.List)))
	mux.Handle("POST /api/tasks", auth(http.HandlerFunc(cfg.Tasks.Create)))
	mux.Handle("GET /api/tasks/{id}", auth(http.HandlerFunc(cfg.Tasks.Get)))
	mux.Handle("PUT /api/tasks/{id}", auth(http.HandlerFunc(cfg.Tasks.Update)))
	mux.Handle("DELETE /api/tasks/{id}", auth(http.HandlerFunc(cfg.Tasks.Delete)))

	var h http.Handler = middleware.CORS(cfg.FrontendURL)(mux)
	if cfg.Metrics != nil {
		h = cfg.Metrics.Instrument(h)
	}
	return middleware.Logging(cfg.Logger)(h)
}
