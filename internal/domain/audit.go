package domain

import (
	"time"

	"github.com/google/uuid"
)

// SearchReplaceRecord is the persisted proof of one field-level change made
// by an execute run. Records are append-only; only the rolled-back pair may
// change, and only once.
type SearchReplaceRecord struct {
	ID           uuid.UUID  `json:"id"`
	OperationID  uuid.UUID  `json:"operationId"`
	PageID       uuid.UUID  `json:"pageId"`
	FieldPath    string     `json:"fieldPath"`
	OldValue     string     `json:"oldValue"`
	NewValue     string     `json:"newValue"`
	PerformedBy  string     `json:"performedBy"`
	CreatedAt    time.Time  `json:"createdAt"`
	RolledBack   bool       `json:"rolledBack"`
	RolledBackAt *time.Time `json:"rolledBackAt,omitempty"`
}

// OperationSummary aggregates one operation's audit records for listing.
type OperationSummary struct {
	OperationID  uuid.UUID `json:"operationId"`
	PerformedBy  string    `json:"performedBy"`
	TotalChanges int       `json:"totalChanges"`
	PageCount    int       `json:"pageCount"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
}
