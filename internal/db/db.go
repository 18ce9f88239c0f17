package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/glebarez/go-sqlite"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// ParseDatabaseURL maps a DATABASE_URL value to a driver name and a DSN the
// driver understands. sqlite:///relative.db and sqlite:////abs/path.db follow
// the usual URL convention; postgres:// URLs are passed through to pgx.
func ParseDatabaseURL(databaseURL string) (driver, dsn string, err error) {
	u := strings.TrimSpace(databaseURL)
	switch {
	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		return DriverPostgres, u, nil
	case strings.HasPrefix(u, "sqlite:///"):
		return DriverSQLite, sqliteDSN(strings.TrimPrefix(u, "sqlite:///")), nil
	case strings.HasPrefix(u, "sqlite://"):
		return DriverSQLite, sqliteDSN(strings.TrimPrefix(u, "sqlite://")), nil
	case strings.Contains(u, "://"):
		return "", "", fmt.Errorf("unsupported database URL scheme in %q", u)
	case u == "":
		return "", "", fmt.Errorf("database URL is empty")
	default:
		return DriverSQLite, sqliteDSN(u), nil
	}
}

func sqliteDSN(path string) string {
	if path == "" {
		path = ":memory:"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Connect opens the connection pool described by databaseURL and verifies it.
func Connect(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	driver, dsn, err := ParseDatabaseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	pool, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite allows a single writer; one connection serializes units of
		// work instead of failing them with SQLITE_BUSY.
		pool.SetMaxOpenConns(1)
	} else {
		pool.SetMaxOpenConns(25)
		pool.SetMaxIdleConns(5)
		pool.SetConnMaxIdleTime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.InfoContext(ctx, "Connected to database", "driver", driver)
	return pool, nil
}

// InitializeDB connects and brings the schema up to date.
func InitializeDB(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	pool, err := Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, pool); err != nil {
		_ = pool.Close()
		return nil, err
	}

	slog.InfoContext(ctx, "DB connection initialized and schema verified.")
	return pool, nil
}
