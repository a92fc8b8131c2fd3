// package repositories provides persistence layer implementations for all model types.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/imgmatch/internal/models"
)

// Querier is satisfied by [sql.DB], [sql.Conn] and [sql.Tx].
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Conn)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// encodeRefs stores a reference list as a JSON array (never "null").
func encodeRefs(refs []models.ImageReference) (string, error) {
	data, err := json.Marshal(models.Strings(refs))
	if err != nil {
		return "", fmt.Errorf("failed to encode references: %w", err)
	}
	return string(data), nil
}

func decodeRefs(raw string) ([]models.ImageReference, error) {
	var ss []string
	if err := json.Unmarshal([]byte(raw), &ss); err != nil {
		return nil, fmt.Errorf("failed to decode references: %w", err)
	}
	return models.References(ss), nil
}
