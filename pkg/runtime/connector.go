package runtime

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "github.com/lib/pq"              // registers "postgres"
	_ "github.com/mattn/go-sqlite3"    // registers "sqlite3"
)

// Connect opens a connection pool for the parsed locator. No connection
// is dialled until the pool is first used.
func Connect(loc Locator) (*sql.DB, error) {
	if loc.DSN == "" {
		return nil, fmt.Errorf("%w: empty DSN", ErrInvalidLocator)
	}
	db, err := sql.Open(loc.Driver, loc.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", loc.Driver, err)
	}
	return db, nil
}
