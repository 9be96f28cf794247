package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-tracker/pkg/database"
)

// querier returns the scoped database handle stored in ctx.
func querier(ctx context.Context) (database.Querier, error) {
	scope, ok := database.GetScope(ctx)
	if !ok || scope.Conn == nil {
		return nil, fmt.Errorf("no database scope in context")
	}
	return scope.Conn, nil
}

// nullString returns nil if the string is empty, otherwise returns the string pointer.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// derefString returns the pointed-to string, or "" for NULL.
func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func joinColumns(columns []string) string {
	return strings.Join(columns, ", ")
}
