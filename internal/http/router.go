package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterConfig wires handlers and middleware into the router. Nil handlers
// leave their routes unmounted.
type RouterConfig struct {
	Assignments *AssignmentHandler
	Members     *MemberHandler
	Activities  *ActivityHandler
	Audit       *AuditHandler
	Metrics     http.Handler
	Logger      *slog.Logger
	Middleware  []func(http.Handler) http.Handler
}

// NewRouter builds the API router. Middleware runs in order:
//
//	RequestID → RealIP → cfg.Middleware... → Recoverer
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	responder := newResponder(cfg.Logger)

	r.Use(middleware.RequestID, middleware.RealIP)
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}
	r.Use(Recoverer(cfg.Logger))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		responder.writeError(req.Context(), w, http.StatusNotFound, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		responder.writeError(req.Context(), w, http.StatusMethodNotAllowed, nil)
	})

	if h := cfg.Assignments; h != nil {
		r.Route("/assignments", func(r chi.Router) {
			r.Get("/", h.List)
			r.Post("/", h.Create)
			r.Post("/validate", h.Validate)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	}

	if h := cfg.Members; h != nil {
		r.Get("/roles", h.Roles)
		r.Route("/members", func(r chi.Router) {
			r.Get("/", h.List)
			r.Get("/available", h.Available)
			r.Get("/{id}/conflicts", h.Conflicts)
			r.Get("/{id}/grid", h.Grid)
		})
	}

	if h := cfg.Activities; h != nil {
		r.Route("/activities/{id}", func(r chi.Router) {
			r.Get("/status", h.Status)
			r.Post("/start", h.Start)
			r.Post("/complete", h.Complete)
			r.Post("/refresh", h.Refresh)
		})
	}

	if h := cfg.Audit; h != nil {
		r.Get("/audit/conflicts", h.Conflicts)
	}

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	return r
}
