package httpsession

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter mounts the health and metrics endpoints. /healthz runs
// SELECT 1 through a request-scoped session.
func NewRouter(a Acquirer, gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(Middleware(a, logger))
		r.Get("/healthz", healthz(logger))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func healthz(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := MustFromContext(r.Context())

		var one int
		status, code := "ok", http.StatusOK
		if err := s.QueryRowContext(r.Context(), "SELECT 1").Scan(&one); err != nil {
			logger.Error("health check failed", "error", err, "session", s.ID())
			status, code = "unavailable", http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(map[string]string{"status": status}); err != nil {
			logger.Error("healthz response encode failed", "error", err)
		}
	}
}
