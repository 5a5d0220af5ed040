package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/rpattn/lexcms/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository wires a repository backed by pgxpool.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Insert(ctx context.Context, record domain.SearchReplaceRecord) error {
	if r.pool == nil {
		return fmt.Errorf("audit repository not initialized")
	}

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO search_replace_audit
		   (id, operation_id, page_id, field_path, old_value, new_value, performed_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ID,
		record.OperationID,
		record.PageID,
		record.FieldPath,
		record.OldValue,
		record.NewValue,
		record.PerformedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}

	return nil
}

// ListActiveByOperation returns the records of one operation that have not
// been rolled back yet, in insertion order.
func (r *auditRepository) ListActiveByOperation(ctx context.Context, operationID uuid.UUID) ([]domain.SearchReplaceRecord, error) {
	return r.listByOperation(ctx, operationID, true)
}

// ListByOperation returns every record of one operation, rolled back or not.
func (r *auditRepository) ListByOperation(ctx context.Context, operationID uuid.UUID) ([]domain.SearchReplaceRecord, error) {
	return r.listByOperation(ctx, operationID, false)
}

func (r *auditRepository) listByOperation(ctx context.Context, operationID uuid.UUID, activeOnly bool) ([]domain.SearchReplaceRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("audit repository not initialized")
	}

	query := `SELECT id, operation_id, page_id, field_path, old_value, new_value,
	                 performed_by, created_at, rolled_back, rolled_back_at
	          FROM search_replace_audit
	          WHERE operation_id = $1`
	if activeOnly {
		query += " AND rolled_back = false"
	}
	query += " ORDER BY created_at, id"

	rows, err := r.pool.Query(ctx, query, operationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	defer rows.Close()

	records := []domain.SearchReplaceRecord{}
	for rows.Next() {
		var (
			record       domain.SearchReplaceRecord
			createdAt    pgtype.Timestamptz
			rolledBackAt pgtype.Timestamptz
		)
		if scanErr := rows.Scan(
			&record.ID,
			&record.OperationID,
			&record.PageID,
			&record.FieldPath,
			&record.OldValue,
			&record.NewValue,
			&record.PerformedBy,
			&createdAt,
			&record.RolledBack,
			&rolledBackAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", scanErr)
		}

		if createdAt.Valid {
			record.CreatedAt = createdAt.Time
		}
		if rolledBackAt.Valid {
			at := rolledBackAt.Time
			record.RolledBackAt = &at
		}
		records = append(records, record)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate audit records: %w", rowsErr)
	}

	return records, nil
}

// MarkRolledBack flips the rolled-back flag for the given records within an
// operation. Already-consumed records are left untouched. Returns the number
// of records marked.
func (r *auditRepository) MarkRolledBack(ctx context.Context, operationID uuid.UUID, recordIDs []uuid.UUID, at time.Time) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("audit repository not initialized")
	}
	if len(recordIDs) == 0 {
		return 0, nil
	}

	tag, err := r.pool.Exec(
		ctx,
		`UPDATE search_replace_audit
		 SET rolled_back = true, rolled_back_at = $3
		 WHERE operation_id = $1 AND id = ANY($2) AND rolled_back = false`,
		operationID,
		recordIDs,
		at,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark audit records rolled back: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// ListOperations returns grouped operation summaries, newest first.
func (r *auditRepository) ListOperations(ctx context.Context, limit int, offset int) ([]domain.OperationSummary, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("audit repository not initialized")
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT operation_id,
		        min(performed_by),
		        count(*),
		        count(DISTINCT page_id),
		        bool_or(NOT rolled_back),
		        min(created_at)
		 FROM search_replace_audit
		 GROUP BY operation_id
		 ORDER BY min(created_at) DESC
		 LIMIT $1 OFFSET $2`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	defer rows.Close()

	summaries := []domain.OperationSummary{}
	for rows.Next() {
		var (
			summary   domain.OperationSummary
			createdAt pgtype.Timestamptz
		)
		if scanErr := rows.Scan(
			&summary.OperationID,
			&summary.PerformedBy,
			&summary.TotalChanges,
			&summary.PageCount,
			&summary.Active,
			&createdAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan operation summary: %w", scanErr)
		}
		if createdAt.Valid {
			summary.CreatedAt = createdAt.Time
		}
		summaries = append(summaries, summary)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate operation summaries: %w", rowsErr)
	}

	return summaries, nil
}
