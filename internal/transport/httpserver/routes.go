package httpserver

import (
	"net/http"
	"time"

	"child-growth-go/internal/config"
	"child-growth-go/internal/transport/httpserver/handler"
	authmw "child-growth-go/internal/transport/httpserver/middleware"
	"child-growth-go/pkg/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, profiles authmw.ProfileSaver, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(authmw.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(authmw.NewCORS(cfg.CORSOrigins, "/api/shared/"))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Common.Health)
		r.Post("/shared/{token}/verify", handlers.Sharing.Verify)

		auth := authmw.NewSupabaseAuth(cfg.Supabase, profiles, log)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Get("/auth/me", handlers.Common.AuthMe)

			r.Get("/children/{child_id}/share-links", handlers.Sharing.ListLinks)
			r.Post("/children/{child_id}/share-links", handlers.Sharing.CreateLink)
			r.Post("/share-links/{id}/revoke", handlers.Sharing.RevokeLink)
			r.Delete("/share-links/{id}", handlers.Sharing.DeleteLink)

			r.Get("/calendar/status", handlers.Calendar.Status)
			r.Get("/calendar/auth-url", handlers.Calendar.AuthURL)
			r.Post("/calendar/exchange-code", handlers.Calendar.ExchangeCode)
			r.Post("/calendar/disconnect", handlers.Calendar.Disconnect)
			r.Get("/calendar/calendars", handlers.Calendar.ListCalendars)
			r.Get("/calendar/events", handlers.Calendar.ListEvents)
			r.Post("/calendar/events", handlers.Calendar.CreateEvent)
			r.Delete("/calendar/events/{event_id}", handlers.Calendar.DeleteEvent)
		})
	})

	return r
}
