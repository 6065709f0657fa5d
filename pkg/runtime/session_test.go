package runtime

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TechXTT/wikidb/internal/logging"
)

func TestSession_EchoLogsStatements(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	var buf bytes.Buffer
	e := NewEngine(mockDB, WithEcho(true), WithLogger(logging.New("info", "text", &buf)))

	mock.ExpectExec(`INSERT INTO pages \(title\) VALUES \(\?\)`).
		WithArgs("Home").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = e.WithSession(context.Background(), func(ctx context.Context, s *Session) error {
		_, err := s.ExecContext(ctx, "INSERT INTO pages (title) VALUES (?)", "Home")
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Contains(t, buf.String(), "INSERT INTO pages")
	assert.Contains(t, buf.String(), "msg=sql")
}

func TestSession_EchoDisabled(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	var buf bytes.Buffer
	e := NewEngine(mockDB, WithLogger(logging.New("info", "text", &buf)))

	mock.ExpectQuery(`SELECT title FROM pages`).
		WillReturnRows(sqlmock.NewRows([]string{"title"}).AddRow("Home"))

	err = e.WithSession(context.Background(), func(ctx context.Context, s *Session) error {
		rows, err := s.QueryContext(ctx, "SELECT title FROM pages")
		if err != nil {
			return err
		}
		defer rows.Close()
		var titles []string
		for rows.Next() {
			var title string
			if err := rows.Scan(&title); err != nil {
				return err
			}
			titles = append(titles, title)
		}
		assert.Equal(t, []string{"Home"}, titles)
		return rows.Err()
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.NotContains(t, buf.String(), "SELECT title")
}

func TestSession_InTxCommits(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	e := NewEngine(mockDB)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO pages`).WithArgs("Home").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err = e.WithSession(context.Background(), func(ctx context.Context, s *Session) error {
		return s.InTx(ctx, func(ctx context.Context) error {
			_, err := s.ExecContext(ctx, "INSERT INTO pages (title) VALUES (?)", "Home")
			return err
		})
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSession_InTxRollsBackOnError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	e := NewEngine(mockDB)
	errInsert := errors.New("duplicate title")

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO pages`).WillReturnError(errInsert)
	mock.ExpectRollback()

	err = e.WithSession(context.Background(), func(ctx context.Context, s *Session) error {
		return s.InTx(ctx, func(ctx context.Context) error {
			_, err := s.ExecContext(ctx, "INSERT INTO pages (title) VALUES (?)", "Home")
			return err
		})
	})
	require.ErrorIs(t, err, errInsert)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSession_CloseRollsBackOpenTransaction(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	e := NewEngine(mockDB)
	mock.ExpectBegin()
	mock.ExpectRollback()

	s, err := e.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Begin(context.Background(), nil))
	require.NoError(t, s.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSession_TransactionState(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	e := NewEngine(mockDB)
	ctx := context.Background()
	mock.ExpectBegin()
	mock.ExpectRollback()

	s, err := e.Acquire(ctx)
	require.NoError(t, err)
	defer s.Close()

	assert.ErrorIs(t, s.Commit(), ErrNoTransaction)
	assert.NoError(t, s.Rollback())

	require.NoError(t, s.Begin(ctx, nil))
	assert.ErrorIs(t, s.Begin(ctx, nil), ErrTransactionInProgress)
	require.NoError(t, s.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}
