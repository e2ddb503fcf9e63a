package httpapi

import (
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions wires cross-cutting transport concerns.
type RouterOptions struct {
	Sessions *SessionManager

	// CORSAllowedOrigins for the public subscribe/unsubscribe endpoints,
	// which are posted from the static site's origin.
	CORSAllowedOrigins []string

	// StaticDir, when non-empty, serves the subscribe/unsubscribe/admin
	// pages. The admin page redirects to the login page without a session.
	StaticDir string
}

// NewRouter constructs the API HTTP router.
//
// This is intentionally a thin adapter: handlers decode and validate, the
// application layer owns all lifecycle semantics.
func NewRouter(s *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	// Baseline production-safe middleware (minimal but useful).
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	origins := opts.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/api/health", s.handleHealth)

	// Public endpoints.
	r.Post("/api/subscribe", s.handleSubscribe)
	r.Post("/api/unsubscribe", s.handleUnsubscribe)

	// Admin session management.
	r.Post("/api/login", opts.Sessions.HandleLogin)
	r.Post("/api/logout", opts.Sessions.HandleLogout)
	r.Get("/api/auth/check", opts.Sessions.HandleCheck)

	// Operator endpoints.
	r.Group(func(r chi.Router) {
		r.Use(opts.Sessions.RequireAdmin)
		r.Get("/api/stats", s.handleStats)
		r.Patch("/api/subscribers/{email}/tags", s.handleSetTag)
		r.Delete("/api/subscribers/{email}", s.handleDeleteSubscriber)
	})

	if opts.StaticDir != "" {
		mountStatic(r, opts)
	}

	return r
}

func mountStatic(r chi.Router, opts RouterOptions) {
	dir := opts.StaticDir

	// Admin page requires a session; the rest of the site is public.
	r.Get("/admin.html", func(w http.ResponseWriter, req *http.Request) {
		if opts.Sessions == nil || !opts.Sessions.IsAuthenticated(req) {
			http.Redirect(w, req, "/login.html", http.StatusFound)
			return
		}
		http.ServeFile(w, req, filepath.Join(dir, "admin.html"))
	})

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, filepath.Join(dir, "index.html"))
	})
	r.Handle("/*", http.FileServer(http.Dir(dir)))
}
