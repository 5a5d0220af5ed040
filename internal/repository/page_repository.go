package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rpattn/lexcms/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

const pageColumns = "id, slug, title, meta_title, meta_description, status, content, created_at, updated_at"

// pageRepository implements PageRepository backed by pgxpool
type pageRepository struct {
	pool *pgxpool.Pool
}

// NewPageRepository creates a new page repository
func NewPageRepository(pool *pgxpool.Pool) PageRepository {
	return &pageRepository{pool: pool}
}

// List retrieves pages filtered by status. StatusFilterAll returns every page.
func (r *pageRepository) List(ctx context.Context, filter domain.StatusFilter) ([]domain.Page, error) {
	query := "SELECT " + pageColumns + " FROM pages ORDER BY slug"
	args := []any{}
	if filter != "" && filter != domain.StatusFilterAll {
		query = "SELECT " + pageColumns + " FROM pages WHERE status = $1 ORDER BY slug"
		args = append(args, string(filter))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	pages := []domain.Page{}
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pages: %w", err)
	}

	return pages, nil
}

// GetByID retrieves a page by ID
func (r *pageRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Page, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+pageColumns+" FROM pages WHERE id = $1", id)
	page, err := scanPage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Page{}, fmt.Errorf("page %s: %w", id, ErrNotFound)
	}
	return page, err
}

// GetBySlug retrieves a page by its public slug
func (r *pageRepository) GetBySlug(ctx context.Context, slug string) (domain.Page, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+pageColumns+" FROM pages WHERE slug = $1", slug)
	page, err := scanPage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Page{}, fmt.Errorf("page %q: %w", slug, ErrNotFound)
	}
	return page, err
}

// Create inserts a new page
func (r *pageRepository) Create(ctx context.Context, page domain.Page) (domain.Page, error) {
	contentJSON, err := page.ContentJSON()
	if err != nil {
		return domain.Page{}, fmt.Errorf("failed to marshal content: %w", err)
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO pages (id, slug, title, meta_title, meta_description, status, content)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+pageColumns,
		page.ID, page.Slug, page.Title, page.MetaTitle, page.MetaDescription, string(page.Status), contentJSON,
	)
	created, err := scanPage(row)
	if err != nil {
		return domain.Page{}, fmt.Errorf("failed to create page: %w", err)
	}
	return created, nil
}

// Update persists the plain text fields and the full content tree in one
// statement per page.
func (r *pageRepository) Update(ctx context.Context, page domain.Page) (domain.Page, error) {
	contentJSON, err := page.ContentJSON()
	if err != nil {
		return domain.Page{}, fmt.Errorf("failed to marshal content: %w", err)
	}

	row := r.pool.QueryRow(ctx,
		`UPDATE pages
		 SET slug = $2, title = $3, meta_title = $4, meta_description = $5,
		     status = $6, content = $7, updated_at = now()
		 WHERE id = $1
		 RETURNING `+pageColumns,
		page.ID, page.Slug, page.Title, page.MetaTitle, page.MetaDescription, string(page.Status), contentJSON,
	)
	updated, err := scanPage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Page{}, fmt.Errorf("page %s: %w", page.ID, ErrNotFound)
	}
	if err != nil {
		return domain.Page{}, fmt.Errorf("failed to update page: %w", err)
	}
	return updated, nil
}

// Delete removes a page
func (r *pageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM pages WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete page: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("page %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanPage(row pgx.Row) (domain.Page, error) {
	var (
		page        domain.Page
		status      string
		contentJSON []byte
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
	)
	if err := row.Scan(
		&page.ID,
		&page.Slug,
		&page.Title,
		&page.MetaTitle,
		&page.MetaDescription,
		&status,
		&contentJSON,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Page{}, err
		}
		return domain.Page{}, fmt.Errorf("failed to scan page: %w", err)
	}

	content, err := domain.ContentFromJSON(json.RawMessage(contentJSON))
	if err != nil {
		return domain.Page{}, fmt.Errorf("failed to decode content: %w", err)
	}

	page.Status = domain.PageStatus(status)
	page.Content = content
	if createdAt.Valid {
		page.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		page.UpdatedAt = updatedAt.Time
	}
	return page, nil
}
