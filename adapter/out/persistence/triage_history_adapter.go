package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"mailtriage/core/port/out"
	"mailtriage/pkg/apperr"
)

// HistoryAdapter stores workflow variables of completed instances in
// PostgreSQL, implementing out.VariableHistoryRepository.
type HistoryAdapter struct {
	db *sqlx.DB
}

func NewHistoryAdapter(db *sqlx.DB) *HistoryAdapter {
	return &HistoryAdapter{db: db}
}

func (a *HistoryAdapter) Save(ctx context.Context, instanceID, name, value string) error {
	query := `
		INSERT INTO workflow_variables (instance_id, name, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (instance_id, name) DO UPDATE SET value = EXCLUDED.value`

	if _, err := a.db.ExecContext(ctx, query, instanceID, name, value); err != nil {
		return apperr.DatabaseError(err)
	}
	return nil
}

func (a *HistoryAdapter) Get(ctx context.Context, instanceID, name string) (string, error) {
	query := `
		SELECT value FROM workflow_variables
		WHERE instance_id = $1 AND name = $2`

	var value string
	if err := a.db.QueryRowxContext(ctx, query, instanceID, name).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", out.ErrVariableNotFound
		}
		return "", apperr.DatabaseError(err)
	}
	return value, nil
}

var _ out.VariableHistoryRepository = (*HistoryAdapter)(nil)
