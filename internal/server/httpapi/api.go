// Package httpapi exposes the services as a JSON REST API under /api.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/prisonkeeper/internal/logging"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/config"
	"github.com/dmitrijs2005/prisonkeeper/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type API struct {
	svc        *services.Services
	store      Pinger
	logger     logging.Logger
	secret     []byte
	production bool
	limiter    *Limiter
	metrics    *Metrics
	gatherer   prometheus.Gatherer
}

// New builds the API. Collectors are registered on reg, which also backs
// /metrics.
func New(svc *services.Services, store Pinger, cfg *config.Config, logger logging.Logger, reg *prometheus.Registry) (*API, error) {
	m, err := NewMetrics(reg)
	if err != nil {
		return nil, err
	}
	return &API{
		svc:        svc,
		store:      store,
		logger:     logger.With("module", "http"),
		secret:     []byte(cfg.SecretKey),
		production: cfg.IsProduction(),
		limiter:    NewLimiter(cfg.PublicArchiveRatePerMinute, time.Minute),
		metrics:    m,
		gatherer:   reg,
	}, nil
}

// Handler returns the root router.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(withRequestID, a.withRecover, a.withLogging, a.withMetrics)

	r.Get("/health", a.health)
	r.Handle("/metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", a.login)
		r.Post("/auth/refresh", a.refresh)
		r.Post("/auth/logout", a.logout)
		r.With(a.withRate).Post("/manual-archive/public", a.manualArchivePublic)

		r.Group(func(r chi.Router) {
			r.Use(a.authenticate)

			r.Get("/auth/me", a.me)

			r.Get("/archive", a.listArchives)
			r.Get("/archive/{id}", a.getArchive)
			r.Post("/archive/{id}/restore", a.restoreArchive)
			r.Delete("/archive/{id}", a.deleteArchive)
			r.Post("/manual-archive", a.manualArchive)

			mountEntity(r, a, "prisons", a.svc.Prisons, true)
			mountEntity(r, a, "inmates", a.svc.Inmates, true)
			mountEntity(r, a, "woreda-inmates", a.svc.WoredaInmates, true)
			mountEntity(r, a, "notices", a.svc.Notices, true)
			mountEntity(r, a, "clearances", a.svc.Clearances, true)
			mountEntity(r, a, "visitors", a.svc.Visitors, true)
			mountEntity(r, a, "reports", a.svc.Reports, true)
			mountEntity(r, a, "transfers", a.svc.Transfers, true)
			mountEntity(r, a, "incidents", a.svc.Incidents, true)
			mountEntity(r, a, "users", a.svc.UserRecords, false)
			mountEntity(r, a, "parole-records", a.svc.Parole.EntityService, true)
			r.Post("/users", a.createUser)
			r.Put("/users/{id}/password", a.setPassword)
			r.Post("/parole-records/{id}/behavior-logs", a.addBehaviorLog)

			r.Get("/stats/dashboard", a.dashboard)

			r.Post("/uploads/presign", a.presignUpload)
			r.Get("/uploads/url", a.downloadURL)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.store.Ping(ctx); err != nil {
		a.logger.Warn(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, Envelope{Success: false, Message: "database unavailable"})
		return
	}
	writeData(w, http.StatusOK, "", map[string]any{"status": "ok", "time": time.Now().UTC()})
}
