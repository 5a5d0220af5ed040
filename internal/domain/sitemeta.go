package domain

import (
	"time"

	"github.com/google/uuid"
)

// SiteSettings is the singleton JSONB blob of site-wide configuration the
// admin panel edits (contact details, social links, footer text).
type SiteSettings struct {
	Data      map[string]any `json:"data"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Redirect maps an old public path to its replacement.
type Redirect struct {
	ID        uuid.UUID `json:"id"`
	FromPath  string    `json:"fromPath"`
	ToPath    string    `json:"toPath"`
	Permanent bool      `json:"permanent"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewRedirect creates a redirect with a fresh identifier.
func NewRedirect(fromPath, toPath string, permanent bool) Redirect {
	return Redirect{
		ID:        uuid.New(),
		FromPath:  fromPath,
		ToPath:    toPath,
		Permanent: permanent,
		CreatedAt: time.Now(),
	}
}
