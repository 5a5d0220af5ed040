package repository

import (
	"context"
	"time"

	"github.com/rpattn/lexcms/internal/domain"

	"github.com/google/uuid"
)

// PageRepository defines the interface for page content operations
type PageRepository interface {
	List(ctx context.Context, filter domain.StatusFilter) ([]domain.Page, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Page, error)
	GetBySlug(ctx context.Context, slug string) (domain.Page, error)
	Create(ctx context.Context, page domain.Page) (domain.Page, error)
	Update(ctx context.Context, page domain.Page) (domain.Page, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AuditRepository stores search-replace change records. Records are
// append-only: nothing updates them except MarkRolledBack, which flips the
// rolled-back pair exactly once per record.
type AuditRepository interface {
	Insert(ctx context.Context, record domain.SearchReplaceRecord) error
	ListActiveByOperation(ctx context.Context, operationID uuid.UUID) ([]domain.SearchReplaceRecord, error)
	ListByOperation(ctx context.Context, operationID uuid.UUID) ([]domain.SearchReplaceRecord, error)
	MarkRolledBack(ctx context.Context, operationID uuid.UUID, recordIDs []uuid.UUID, at time.Time) (int, error)
	ListOperations(ctx context.Context, limit int, offset int) ([]domain.OperationSummary, error)
}

// SettingsRepository stores the singleton site settings blob.
type SettingsRepository interface {
	Get(ctx context.Context) (domain.SiteSettings, error)
	Put(ctx context.Context, data map[string]any) (domain.SiteSettings, error)
}

// RedirectRepository stores public path redirects.
type RedirectRepository interface {
	List(ctx context.Context) ([]domain.Redirect, error)
	Create(ctx context.Context, redirect domain.Redirect) (domain.Redirect, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
