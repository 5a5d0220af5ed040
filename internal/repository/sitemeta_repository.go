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

type settingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository wires a repository backed by pgxpool.
func NewSettingsRepository(pool *pgxpool.Pool) SettingsRepository {
	return &settingsRepository{pool: pool}
}

func (r *settingsRepository) Get(ctx context.Context) (domain.SiteSettings, error) {
	row := r.pool.QueryRow(ctx, "SELECT data, updated_at FROM site_settings WHERE id = 1")

	var (
		raw       []byte
		updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&raw, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SiteSettings{Data: map[string]any{}}, nil
		}
		return domain.SiteSettings{}, fmt.Errorf("failed to load site settings: %w", err)
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return domain.SiteSettings{}, fmt.Errorf("failed to decode site settings: %w", err)
	}

	settings := domain.SiteSettings{Data: data}
	if updatedAt.Valid {
		settings.UpdatedAt = updatedAt.Time
	}
	return settings, nil
}

func (r *settingsRepository) Put(ctx context.Context, data map[string]any) (domain.SiteSettings, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return domain.SiteSettings{}, fmt.Errorf("failed to marshal site settings: %w", err)
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO site_settings (id, data, updated_at) VALUES (1, $1, now())
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
		 RETURNING data, updated_at`,
		raw,
	)

	var (
		stored    []byte
		updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&stored, &updatedAt); err != nil {
		return domain.SiteSettings{}, fmt.Errorf("failed to store site settings: %w", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(stored, &decoded); err != nil {
		return domain.SiteSettings{}, fmt.Errorf("failed to decode site settings: %w", err)
	}

	settings := domain.SiteSettings{Data: decoded}
	if updatedAt.Valid {
		settings.UpdatedAt = updatedAt.Time
	}
	return settings, nil
}

type redirectRepository struct {
	pool *pgxpool.Pool
}

// NewRedirectRepository wires a repository backed by pgxpool.
func NewRedirectRepository(pool *pgxpool.Pool) RedirectRepository {
	return &redirectRepository{pool: pool}
}

func (r *redirectRepository) List(ctx context.Context) ([]domain.Redirect, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT id, from_path, to_path, permanent, created_at FROM redirects ORDER BY from_path")
	if err != nil {
		return nil, fmt.Errorf("failed to list redirects: %w", err)
	}
	defer rows.Close()

	redirects := []domain.Redirect{}
	for rows.Next() {
		var (
			redirect  domain.Redirect
			createdAt pgtype.Timestamptz
		)
		if scanErr := rows.Scan(&redirect.ID, &redirect.FromPath, &redirect.ToPath, &redirect.Permanent, &createdAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan redirect: %w", scanErr)
		}
		if createdAt.Valid {
			redirect.CreatedAt = createdAt.Time
		}
		redirects = append(redirects, redirect)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate redirects: %w", rowsErr)
	}

	return redirects, nil
}

func (r *redirectRepository) Create(ctx context.Context, redirect domain.Redirect) (domain.Redirect, error) {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO redirects (id, from_path, to_path, permanent) VALUES ($1, $2, $3, $4)`,
		redirect.ID, redirect.FromPath, redirect.ToPath, redirect.Permanent,
	)
	if err != nil {
		return domain.Redirect{}, fmt.Errorf("failed to create redirect: %w", err)
	}
	return redirect, nil
}

func (r *redirectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM redirects WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete redirect: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("redirect %s: %w", id, ErrNotFound)
	}
	return nil
}
