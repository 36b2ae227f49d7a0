// Package api exposes limit rotation over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/set-night/promolimits/internal/middleware"
)

type RouterDeps struct {
	Limits         *LimitHandler
	Limiter        *middleware.KeyedLimiter
	AllowedOrigins []string
	// TrustProxy lets X-Forwarded-For / X-Real-IP replace RemoteAddr.
	TrustProxy     bool
}

func NewRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()

	// ---- Global Middleware ----
	r.Use(chimw.RequestID)
	if deps.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Location"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api/v1/partners/{partnerID}/limits", func(pr chi.Router) {
		if deps.Limiter != nil {
			pr.Use(middleware.RateLimitHTTP(deps.Limiter))
		}
		pr.Post("/", deps.Limits.SetPartnerPromoCodeLimit)
		pr.Get("/{limitID}", deps.Limits.GetPartnerLimit)
	})

	return r
}
