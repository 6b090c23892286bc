package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xavierca1/ligue-crm/internal/infra/http/middleware"
)

type Router struct {
	Health    *HealthHandler
	Board     *BoardHandler
	Leads     *LeadHandler
	Stages    *StageHandler
	Messages  *MessageHandler
	Cashback  *CashbackHandler
	Users     *UserHandler
	Instances *InstanceHandler

	Limiter        *RateLimiter
	AllowedOrigins []string
	TrustProxy     bool // X-Forwarded-For / X-Real-IP só valem atrás de proxy confiável
}

func (rt Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if rt.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", middleware.ClinicHeader, middleware.OperatorHeader},
	}))

	r.Get("/health", rt.Health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	limit := func(next http.Handler) http.Handler { return next }
	if rt.Limiter != nil {
		limit = rt.Limiter.Middleware
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Clinic)

		r.Route("/funnels/{funnelID}", func(r chi.Router) {
			r.Get("/board", rt.Board.Get)
			r.With(limit).Post("/board/drag", rt.Board.DragStart)
			r.With(limit).Post("/board/hover", rt.Board.DragEnter)
			r.With(limit).Post("/board/drop", rt.Board.Drop)
			r.With(limit).Post("/board/end", rt.Board.DragEnd)
			r.Get("/leads", rt.Leads.List)
			r.Get("/stages", rt.Stages.List)
			r.Get("/messages", rt.Messages.List)
		})

		r.With(limit).Post("/messages", rt.Messages.Save)
		r.With(limit).Delete("/messages/{id}", rt.Messages.Delete)

		r.Get("/cashback", rt.Cashback.Get)
		r.With(limit).Put("/cashback", rt.Cashback.Save)

		r.Get("/users", rt.Users.List)
		r.With(limit).Post("/users", rt.Users.Create)

		r.Get("/instances", rt.Instances.List)
		r.With(limit).Post("/instances", rt.Instances.Create)
		r.With(limit).Delete("/instances/{id}", rt.Instances.Delete)
	})

	return r
}
