package persistence

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"mailtriage/core/domain"
	"mailtriage/core/port/out"
	"mailtriage/pkg/apperr"
)

// TriageLogAdapter writes one audit row per processed message,
// implementing out.TriageLogRepository.
type TriageLogAdapter struct {
	db *sqlx.DB
}

func NewTriageLogAdapter(db *sqlx.DB) *TriageLogAdapter {
	return &TriageLogAdapter{db: db}
}

func (a *TriageLogAdapter) Insert(ctx context.Context, rec *domain.TriageRecord) error {
	query := `
		INSERT INTO triage_log (sender, subject, category, ticket_id, status, attachments, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := a.db.QueryRowxContext(ctx, query,
		rec.Sender, rec.Subject, rec.Category, rec.TicketID, rec.Status,
		pq.Array(rec.Attachments), rec.ProcessedAt,
	).Scan(&rec.ID)
	if err != nil {
		return apperr.DatabaseError(err)
	}
	return nil
}

func (a *TriageLogAdapter) Recent(ctx context.Context, limit int) ([]*domain.TriageRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
		SELECT id, sender, subject, category, ticket_id, status, attachments, processed_at
		FROM triage_log
		ORDER BY processed_at DESC
		LIMIT $1`

	rows, err := a.db.QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, apperr.DatabaseError(err)
	}
	defer rows.Close()

	var records []*domain.TriageRecord
	for rows.Next() {
		var (
			rec         domain.TriageRecord
			attachments pq.StringArray
		)
		err := rows.Scan(&rec.ID, &rec.Sender, &rec.Subject, &rec.Category,
			&rec.TicketID, &rec.Status, &attachments, &rec.ProcessedAt)
		if err != nil {
			return nil, apperr.DatabaseError(err)
		}
		rec.Attachments = attachments
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.DatabaseError(err)
	}
	return records, nil
}

var _ out.TriageLogRepository = (*TriageLogAdapter)(nil)
