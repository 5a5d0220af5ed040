package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PageStatus filters which pages an operation touches. It never changes
// matcher behavior.
type PageStatus string

const (
	PageStatusPublished PageStatus = "published"
	PageStatusDraft     PageStatus = "draft"
)

// StatusFilter is the scope selector accepted by list operations.
type StatusFilter string

const (
	StatusFilterAll       StatusFilter = "all"
	StatusFilterPublished StatusFilter = "published"
	StatusFilterDraft     StatusFilter = "draft"
)

// ValidStatusFilter reports whether the filter is one of the accepted values.
func ValidStatusFilter(filter StatusFilter) bool {
	switch filter {
	case StatusFilterAll, StatusFilterPublished, StatusFilterDraft:
		return true
	}
	return false
}

// Page is one unit of site content: a handful of plain text attributes plus
// an arbitrarily nested JSONB content tree holding section data.
type Page struct {
	ID              uuid.UUID      `json:"id"`
	Slug            string         `json:"slug"`
	Title           string         `json:"title"`
	MetaTitle       string         `json:"metaTitle"`
	MetaDescription string         `json:"metaDescription"`
	Status          PageStatus     `json:"status"`
	Content         map[string]any `json:"content"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// NewPage creates a page with a fresh identifier.
func NewPage(slug, title string, status PageStatus, content map[string]any) Page {
	now := time.Now()
	return Page{
		ID:        uuid.New(),
		Slug:      slug,
		Title:     title,
		Status:    status,
		Content:   copyTree(content),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// URL returns the public path the page is served at.
func (p Page) URL() string {
	if p.Slug == "home" || p.Slug == "" {
		return "/"
	}
	return "/" + p.Slug
}

// ContentJSON marshals the content tree for JSONB storage.
func (p *Page) ContentJSON() (json.RawMessage, error) {
	if p.Content == nil {
		p.Content = make(map[string]any)
	}
	return json.Marshal(p.Content)
}

// ContentFromJSON decodes a JSONB payload into a content tree.
func ContentFromJSON(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var content map[string]any
	err := json.Unmarshal(raw, &content)
	return content, err
}

func copyTree(content map[string]any) map[string]any {
	copied := make(map[string]any, len(content))
	for k, v := range content {
		copied[k] = v
	}
	return copied
}
