package repository

import (
	"context"

	"github.com/St1cky1/task-tracker/internal/entity"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditRepository struct {
	db *pgxpool.Pool
}

func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{
		db: db,
	}
}

func (r *AuditRepository) Create(ctx context.Context, audit *entity.AuditRecord) error {
	query := `
	INSERT INTO audit_log (user_id, action, entity_type, entity_id, old_values, new_values, changes, changed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, CURRENT_TIMESTAMP))
	RETURNING id, changed_at
	`

	var changedAt interface{}
	if !audit.ChangedAt.IsZero() {
		changedAt = audit.ChangedAt
	}

	return r.db.QueryRow(
		ctx,
		query,
		audit.UserID,
		audit.Action,
		audit.EntityType,
		audit.EntityID,
		audit.OldValues,
		audit.NewValues,
		audit.Changes,
		changedAt,
	).Scan(&audit.ID, &audit.ChangedAt)
}

// ListByEntity - история изменений сущности, новые сверху
func (r *AuditRepository) ListByEntity(ctx context.Context, entityType string, entityID int) ([]entity.AuditRecord, error) {
	query := `
	SELECT id, user_id, action, entity_type, entity_id, old_values, new_values, changes, changed_at
	FROM audit_log
	WHERE entity_type = $1 AND entity_id = $2
	ORDER BY changed_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	audits := make([]entity.AuditRecord, 0)
	for rows.Next() {
		var audit entity.AuditRecord
		err := rows.Scan(
			&audit.ID,
			&audit.UserID,
			&audit.Action,
			&audit.EntityType,
			&audit.EntityID,
			&audit.OldValues,
			&audit.NewValues,
			&audit.Changes,
			&audit.ChangedAt,
		)
		if err != nil {
			return nil, err
		}
		audits = append(audits, audit)
	}
	return audits, rows.Err()
}
