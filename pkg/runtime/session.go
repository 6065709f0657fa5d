package runtime

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TechXTT/wikidb/internal/plugin"
)

var (
	// ErrSessionClosed is returned by operations on a released session.
	ErrSessionClosed = errors.New("session is closed")

	// Transaction state errors from Begin and Commit.
	ErrNoTransaction         = errors.New("no transaction in progress")
	ErrTransactionInProgress = errors.New("transaction already in progress")
)

// querier is satisfied by both *sql.Conn and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Session is one unit of work bound to a single pooled connection.
// A session belongs to one logical operation and must not be shared
// across requests.
type Session struct {
	id         uuid.UUID
	engine     *Engine
	conn       *sql.Conn
	acquiredAt time.Time

	// hookCtx keeps the acquiring context's values for release hooks.
	hookCtx context.Context

	mu     sync.Mutex
	tx     *sql.Tx
	closed bool
	once   sync.Once
}

func newSession(ctx context.Context, e *Engine, conn *sql.Conn) *Session {
	return &Session{
		id:         uuid.New(),
		engine:     e,
		conn:       conn,
		acquiredAt: time.Now(),
		hookCtx:    context.WithoutCancel(ctx),
	}
}

// ID identifies the session in logs and hooks.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// AcquiredAt reports when the connection was checked out.
func (s *Session) AcquiredAt() time.Time {
	return s.acquiredAt
}

func (s *Session) event(held time.Duration) plugin.SessionEvent {
	return plugin.SessionEvent{ID: s.id, AcquiredAt: s.acquiredAt, Held: held}
}

// current returns the open transaction, or the connection when there is none.
func (s *Session) current() (querier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.tx != nil {
		return s.tx, nil
	}
	return s.conn, nil
}

func (s *Session) echo(query string, args []any, start time.Time) {
	if !s.engine.echo {
		return
	}
	s.engine.logger.Info("sql",
		"session", s.id,
		"query", query,
		"args", args,
		"elapsed", time.Since(start),
	)
}

// ExecContext runs a statement that returns no rows.
func (s *Session) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	q, err := s.current()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := q.ExecContext(ctx, query, args...)
	s.echo(query, args, start)
	if err != nil {
		return nil, fmt.Errorf("exec: %w", err)
	}
	return res, nil
}

// QueryContext runs a query returning rows. The caller must close them
// before the session is released.
func (s *Session) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	q, err := s.current()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	rows, err := q.QueryContext(ctx, query, args...)
	s.echo(query, args, start)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return rows, nil
}

// QueryRowContext runs a query expected to return at most one row.
// On a closed session the returned row's Scan reports sql.ErrConnDone.
func (s *Session) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	q, err := s.current()
	if err != nil {
		q = s.conn
	}
	start := time.Now()
	row := q.QueryRowContext(ctx, query, args...)
	s.echo(query, args, start)
	return row
}

// Begin starts a transaction on the session's connection. Subsequent
// statements run inside it until Commit or Rollback.
func (s *Session) Begin(ctx context.Context, opts *sql.TxOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.tx != nil {
		return ErrTransactionInProgress
	}
	tx, err := s.conn.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	s.tx = tx
	return nil
}

// Commit commits the open transaction.
func (s *Session) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.tx == nil {
		return ErrNoTransaction
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Rollback aborts the open transaction. Without one it does nothing.
func (s *Session) Rollback() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback transaction: %w", err)
	}
	return nil
}

// InTx runs fn inside a transaction, committing if fn succeeds and
// rolling back otherwise.
func (s *Session) InTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if err := s.Begin(ctx, nil); err != nil {
		return err
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := s.Rollback(); rbErr != nil {
			err = errors.Join(err, rbErr)
		}
	}()
	if err := fn(ctx); err != nil {
		return err
	}
	committed = true
	return s.Commit()
}

// Close rolls back any pending transaction and returns the connection to
// the pool. Only the first call does anything; later calls return nil.
func (s *Session) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		tx := s.tx
		s.tx = nil
		s.mu.Unlock()

		var errs []error
		if tx != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				errs = append(errs, fmt.Errorf("rollback pending transaction: %w", rbErr))
			}
		}
		if cErr := s.conn.Close(); cErr != nil && !errors.Is(cErr, sql.ErrConnDone) {
			errs = append(errs, fmt.Errorf("release connection: %w", cErr))
		}
		err = errors.Join(errs...)

		held := time.Since(s.acquiredAt)
		s.engine.chain().AfterRelease(s.hookCtx, s.event(held))
		s.engine.logger.Debug("session released", "session", s.id, "held", held)
	})
	return err
}
