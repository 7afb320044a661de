package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/apothio/storefront-reco/internal/config"
	"github.com/apothio/storefront-reco/internal/transport/http/handlers"
	authmw "github.com/apothio/storefront-reco/internal/transport/http/middleware"
)

func New(
	interactions *handlers.InteractionsHandler,
	recs *handlers.RecommendationsHandler,
	refresh *handlers.RefreshHandler,
	auth *authmw.AuthMiddleware,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	r.Use(authmw.RequestID)
	r.Use(authmw.SecurityHeaders)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(authmw.AccessLog)

	if cfg.RLEnabled {
		r.Use(httprate.LimitByIP(cfg.RLLimit, cfg.RLWindow))
	}

	r.Get("/healthz", handlers.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Require)
		r.Post("/interactions", interactions.Create)
		r.Get("/recommendations", recs.Get)
		r.Post("/recommendations/refresh", refresh.Refresh)
	})

	return r
}
