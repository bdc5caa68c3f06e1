package store

import (
	"context"
	"strings"
)

// Open picks a backend from the DSN: postgres:// and postgresql:// go to
// Postgres, anything else is a SQLite file path (an optional "sqlite:"
// prefix is accepted).
func Open(ctx context.Context, dsn, password string) (RateStore, error) {
	dsn = strings.TrimSpace(dsn)
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return OpenPostgres(ctx, dsn, password)
	}
	path := strings.TrimPrefix(dsn, "sqlite:")
	path = strings.TrimPrefix(path, "//")
	return OpenSQLite(ctx, path)
}

// Backend names the store kind for logs.
func Backend(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres"
	}
	return "sqlite"
}
