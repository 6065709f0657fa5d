package runtime

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidLocator is returned for empty, malformed or unsupported
// data-source locators.
var ErrInvalidLocator = errors.New("invalid database locator")

// Dialects understood by ParseLocator.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// database/sql driver names registered by connector.go.
const (
	DriverPQ     = "postgres"
	DriverPGX    = "pgx"
	DriverSQLite = "sqlite3"
)

// Locator is a parsed data-source locator of the form
// <dialect>[+<driver>]://<user>:<password>@<host>:<port>/<database>.
type Locator struct {
	Dialect string
	// Driver is the database/sql driver name to open.
	Driver string
	// DSN is the driver-specific connection string.
	DSN string

	raw *url.URL
}

// ParseLocator maps a locator onto a registered driver and its DSN.
func ParseLocator(raw string) (Locator, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Locator{}, fmt.Errorf("%w: empty", ErrInvalidLocator)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Locator{}, fmt.Errorf("%w: %w", ErrInvalidLocator, err)
	}
	if u.Scheme == "" {
		return Locator{}, fmt.Errorf("%w: missing scheme", ErrInvalidLocator)
	}

	dialect, driver, _ := strings.Cut(strings.ToLower(u.Scheme), "+")
	switch dialect {
	case "postgres", "postgresql":
		return postgresLocator(u, driver)
	case "sqlite":
		return sqliteLocator(u, driver)
	default:
		return Locator{}, fmt.Errorf("%w: unsupported dialect %q", ErrInvalidLocator, dialect)
	}
}

func postgresLocator(u *url.URL, driver string) (Locator, error) {
	var name string
	switch driver {
	case "", "pq", "psycopg2":
		name = DriverPQ
	case "pgx", "asyncpg":
		name = DriverPGX
	default:
		return Locator{}, fmt.Errorf("%w: unsupported postgres driver %q", ErrInvalidLocator, driver)
	}

	dsn := *u
	dsn.Scheme = "postgres"
	// Disable SSL unless the locator asks for it.
	q := dsn.Query()
	if !q.Has("sslmode") {
		q.Set("sslmode", "disable")
	}
	dsn.RawQuery = q.Encode()

	return Locator{Dialect: DialectPostgres, Driver: name, DSN: dsn.String(), raw: u}, nil
}

func sqliteLocator(u *url.URL, driver string) (Locator, error) {
	switch driver {
	case "", "sqlite3", "pysqlite":
	default:
		return Locator{}, fmt.Errorf("%w: unsupported sqlite driver %q", ErrInvalidLocator, driver)
	}
	if u.Host != "" {
		return Locator{}, fmt.Errorf("%w: sqlite locator must not name a host", ErrInvalidLocator)
	}

	// sqlite:///rel.db is relative, sqlite:////abs.db is absolute,
	// sqlite:// alone is a shared in-memory database.
	path := strings.TrimPrefix(u.Path, "/")
	var dsn string
	if path == "" {
		dsn = "file::memory:?cache=shared"
		if u.RawQuery != "" {
			dsn += "&" + u.RawQuery
		}
	} else {
		dsn = "file:" + path
		if u.RawQuery != "" {
			dsn += "?" + u.RawQuery
		}
	}
	return Locator{Dialect: DialectSQLite, Driver: DriverSQLite, DSN: dsn, raw: u}, nil
}

// Redacted renders the locator with any password masked.
func (l Locator) Redacted() string {
	if l.raw == nil {
		return ""
	}
	return l.raw.Redacted()
}
