package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

type primaryKey struct{}

// WithPrimary marks ctx so repository reads skip the read replica. Write paths
// use it to read back rows they just wrote.
func WithPrimary(ctx context.Context) context.Context {
	return context.WithValue(ctx, primaryKey{}, true)
}

// UsesPrimary reports whether ctx was marked by WithPrimary.
func UsesPrimary(ctx context.Context) bool {
	on, _ := ctx.Value(primaryKey{}).(bool)
	return on
}

// reader returns the replica unless there is none or ctx asks for the primary.
func reader(ctx context.Context, primary, replica *gorm.DB) *gorm.DB {
	if replica == nil || UsesPrimary(ctx) {
		return primary.WithContext(ctx)
	}
	return replica.WithContext(ctx)
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505; SQLite reports "UNIQUE constraint failed".
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}
