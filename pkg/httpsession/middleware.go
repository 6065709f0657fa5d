// Package httpsession exposes the database session as a per-request
// dependency for HTTP handlers.
package httpsession

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/TechXTT/wikidb/pkg/runtime"
)

// Acquirer hands out sessions. *runtime.Engine implements it.
type Acquirer interface {
	Acquire(ctx context.Context) (*runtime.Session, error)
}

type ctxKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *runtime.Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the request's session, if the middleware ran.
func FromContext(ctx context.Context) (*runtime.Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*runtime.Session)
	return s, ok
}

// MustFromContext is FromContext for handlers mounted behind Middleware.
func MustFromContext(ctx context.Context) *runtime.Session {
	s, ok := FromContext(ctx)
	if !ok {
		panic("httpsession: no session in context; is the middleware mounted?")
	}
	return s
}

// Middleware acquires one session per request and releases it when the
// wrapped handler returns, panics, or the client goes away. Requests that
// cannot get a session are answered with 503 Service Unavailable.
func Middleware(a Acquirer, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := a.Acquire(r.Context())
			if err != nil {
				logger.Error("acquire session", "error", err, "path", r.URL.Path)
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}
			defer func() {
				if err := s.Close(); err != nil {
					logger.Warn("release session", "error", err, "session", s.ID())
				}
			}()
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}
