package runtime

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/TechXTT/wikidb/internal/logging"
	"github.com/TechXTT/wikidb/internal/plugin"
)

// connectionTimeout bounds the connectivity check done by Open.
const connectionTimeout = 5 * time.Second

var (
	// ErrConnectivity wraps failures to establish or check out a pooled connection.
	ErrConnectivity = errors.New("database unreachable")

	// ErrEngineClosed is returned by Acquire after Close.
	ErrEngineClosed = errors.New("engine is closed")
)

// Engine owns the process-wide connection pool and hands out sessions.
// It is safe for concurrent use.
type Engine struct {
	db      *sql.DB
	locator Locator
	logger  *slog.Logger
	echo    bool
	hooks   atomic.Pointer[plugin.Chain]
	closed  atomic.Bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for lifecycle and echo output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithEcho logs every statement issued through a session.
func WithEcho(on bool) Option {
	return func(e *Engine) { e.echo = on }
}

// WithHooks registers session lifecycle hooks.
func WithHooks(h ...plugin.Hooks) Option {
	return func(e *Engine) { e.Use(h...) }
}

// Open parses locator, builds the pool and verifies it can reach the
// database.
func Open(ctx context.Context, locator string, opts ...Option) (*Engine, error) {
	loc, err := ParseLocator(locator)
	if err != nil {
		return nil, err
	}
	db, err := Connect(loc)
	if err != nil {
		return nil, err
	}

	e := NewEngine(db, opts...)
	e.locator = loc

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("%w: ping %s: %w", ErrConnectivity, loc.Redacted(), err)
	}

	e.logger.Info("database engine ready",
		"driver", loc.Driver,
		"locator", loc.Redacted(),
		"echo", e.echo,
	)
	return e, nil
}

// NewEngine wraps an existing pool. It does not check connectivity.
func NewEngine(db *sql.DB, opts ...Option) *Engine {
	e := &Engine{
		db:     db,
		logger: logging.NewNop(),
	}
	e.hooks.Store(&plugin.Chain{})
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Use appends lifecycle hooks. Sessions acquired afterwards report to them.
func (e *Engine) Use(h ...plugin.Hooks) {
	for {
		cur := e.hooks.Load()
		next := make(plugin.Chain, 0, len(*cur)+len(h))
		next = append(next, *cur...)
		next = append(next, h...)
		if e.hooks.CompareAndSwap(cur, &next) {
			return
		}
	}
}

func (e *Engine) chain() plugin.Chain {
	return *e.hooks.Load()
}

// Acquire checks one connection out of the pool and binds a new session
// to it, dialling a fresh connection if none is idle. The caller must
// Close the session; WithSession does this automatically.
func (e *Engine) Acquire(ctx context.Context) (*Session, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}
	conn, err := e.db.Conn(ctx)
	if err != nil {
		err = fmt.Errorf("%w: acquire connection: %w", ErrConnectivity, err)
		e.chain().AcquireFailed(ctx, err)
		e.logger.Warn("session acquire failed", "error", err)
		return nil, err
	}

	s := newSession(ctx, e, conn)
	e.chain().AfterAcquire(ctx, s.event(0))
	e.logger.Debug("session acquired", "session", s.id)
	return s, nil
}

// WithSession runs fn with a fresh session and releases it when fn
// returns or panics. A release error is joined to fn's error.
func (e *Engine) WithSession(ctx context.Context, fn func(context.Context, *Session) error) (err error) {
	s, err := e.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()
	return fn(ctx, s)
}

// DB returns the underlying pool.
func (e *Engine) DB() *sql.DB {
	return e.db
}

// Locator returns the parsed locator. It is the zero value for engines
// built with NewEngine.
func (e *Engine) Locator() Locator {
	return e.locator
}

// Stats returns connection pool statistics.
func (e *Engine) Stats() sql.DBStats {
	return e.db.Stats()
}

// Close closes the pool. Calling it more than once is a no-op.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := e.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	e.logger.Info("database engine closed")
	return nil
}
