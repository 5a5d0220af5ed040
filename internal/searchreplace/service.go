package searchreplace

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/rpattn/lexcms/internal/auth"
	"github.com/rpattn/lexcms/internal/domain"
	"github.com/rpattn/lexcms/internal/repository"
	"github.com/rpattn/lexcms/pkg/jsonpath"
)

var (
	// ErrValidation marks request errors the client can correct.
	ErrValidation = errors.New("validation failed")

	// ErrOperationNotFound is returned when a rollback target has no active
	// audit records. An unknown operation and a fully rolled-back one are
	// indistinguishable here.
	ErrOperationNotFound = errors.New("operation not found")
)

const contentRoot = "content"

// textField is one of the fixed plain-text page attributes the engine scans
// in addition to the content tree.
type textField struct {
	name string
	ref  func(*domain.Page) *string
}

var textFields = []textField{
	{"title", func(p *domain.Page) *string { return &p.Title }},
	{"metaTitle", func(p *domain.Page) *string { return &p.MetaTitle }},
	{"metaDescription", func(p *domain.Page) *string { return &p.MetaDescription }},
}

func textFieldByName(name string) (textField, bool) {
	for _, field := range textFields {
		if field.name == name {
			return field, true
		}
	}
	return textField{}, false
}

// Request carries the parameters of one preview or execute call.
type Request struct {
	SearchText    string
	ReplaceText   string
	CaseSensitive bool
	StatusFilter  domain.StatusFilter
}

// PageMatch is one located occurrence with page identifying info attached.
type PageMatch struct {
	PageID    uuid.UUID `json:"pageId"`
	PageTitle string    `json:"pageTitle"`
	PageURL   string    `json:"pageUrl"`
	FieldPath string    `json:"fieldPath"`
	OldValue  string    `json:"oldValue"`
	NewValue  string    `json:"newValue"`
}

// PreviewResult is the dry-run response: matches, aggregates, and the token
// required to execute.
type PreviewResult struct {
	Matches       []PageMatch `json:"matches"`
	TotalMatches  int         `json:"totalMatches"`
	AffectedPages int         `json:"affectedPages"`
	ConfirmToken  string      `json:"confirmToken"`
}

// ExecuteResult reports aggregate counts of the intended change set. The
// audit log, not this response, is authoritative for what actually landed.
type ExecuteResult struct {
	OperationID   uuid.UUID `json:"operationId"`
	TotalChanges  int       `json:"totalChanges"`
	AffectedPages int       `json:"affectedPages"`
}

// RollbackResult reports how many audit records were restored and consumed.
type RollbackResult struct {
	OperationID     uuid.UUID `json:"operationId"`
	RestoredChanges int       `json:"restoredChanges"`
}

// Service implements the preview / execute / rollback protocol over the
// page store and the audit store.
type Service struct {
	pages  repository.PageRepository
	audit  repository.AuditRepository
	tokens *TokenCodec
	now    func() time.Time
}

// NewService creates a search-replace service.
func NewService(pages repository.PageRepository, audit repository.AuditRepository, tokens *TokenCodec) *Service {
	return &Service{
		pages:  pages,
		audit:  audit,
		tokens: tokens,
		now:    time.Now,
	}
}

// Preview runs the matcher across the filtered page set without writing
// anything and issues a confirmation token bound to the request parameters.
func (s *Service) Preview(ctx context.Context, req Request) (PreviewResult, error) {
	req, err := normalize(req)
	if err != nil {
		return PreviewResult{}, err
	}

	pages, err := s.pages.List(ctx, req.StatusFilter)
	if err != nil {
		return PreviewResult{}, fmt.Errorf("failed to load pages: %w", err)
	}

	result := PreviewResult{Matches: []PageMatch{}}
	for _, page := range pages {
		_, matches := replacePage(page, req)
		if len(matches) == 0 {
			continue
		}
		result.Matches = append(result.Matches, matches...)
		result.TotalMatches += len(matches)
		result.AffectedPages++
	}

	result.ConfirmToken = s.tokens.Issue(req)
	return result, nil
}

// Execute re-derives the match set live (never trusting the previewed one),
// writes one audit record per field-level change before mutating each page,
// then applies the combined update per page. Individual page failures are
// logged and skipped; aggregates reflect the full intended set.
func (s *Service) Execute(ctx context.Context, req Request, confirmToken string) (ExecuteResult, error) {
	if confirmToken == "" {
		return ExecuteResult{}, fmt.Errorf("%w: confirmation token is required, run a preview first", ErrValidation)
	}

	req, err := normalize(req)
	if err != nil {
		return ExecuteResult{}, err
	}
	if req.SearchText == req.ReplaceText {
		return ExecuteResult{}, fmt.Errorf("%w: search and replace text are identical", ErrValidation)
	}
	if err := s.tokens.Verify(confirmToken, req); err != nil {
		return ExecuteResult{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	performedBy, ok := auth.UserIDFromContext(ctx)
	if !ok {
		performedBy = "unknown"
	}

	candidates, err := s.pages.List(ctx, req.StatusFilter)
	if err != nil {
		return ExecuteResult{}, fmt.Errorf("failed to load pages: %w", err)
	}

	result := ExecuteResult{OperationID: uuid.New()}
	for _, candidate := range candidates {
		if _, matches := replacePage(candidate, req); len(matches) == 0 {
			continue
		}

		// Re-fetch so the write is based on current state, not the listing
		// snapshot. The match set may legitimately differ from the preview.
		page, err := s.pages.GetByID(ctx, candidate.ID)
		if err != nil {
			log.Printf("[SEARCH-REPLACE] skipping page %s: %v", candidate.ID, err)
			continue
		}

		updated, matches := replacePage(page, req)
		if len(matches) == 0 {
			continue
		}

		result.TotalChanges += len(matches)
		result.AffectedPages++

		// Audit precedes mutation: a crash here leaves a record of the
		// intended change without the write, never the reverse.
		audited := true
		for _, match := range matches {
			record := domain.SearchReplaceRecord{
				ID:          uuid.New(),
				OperationID: result.OperationID,
				PageID:      page.ID,
				FieldPath:   match.FieldPath,
				OldValue:    match.OldValue,
				NewValue:    match.NewValue,
				PerformedBy: performedBy,
			}
			if err := s.audit.Insert(ctx, record); err != nil {
				log.Printf("[SEARCH-REPLACE] audit insert failed for page %s path %s: %v", page.ID, match.FieldPath, err)
				audited = false
				break
			}
		}
		if !audited {
			// Never apply an unaudited write.
			continue
		}

		if _, err := s.pages.Update(ctx, updated); err != nil {
			log.Printf("[SEARCH-REPLACE] update failed for page %s: %v", page.ID, err)
		}
	}

	return result, nil
}

// Rollback restores every non-rolled-back change of an operation by
// re-injecting old values at their recorded paths, page by page, then marks
// the applied records consumed. A record whose path no longer resolves is
// logged and skipped without failing the batch.
func (s *Service) Rollback(ctx context.Context, operationID uuid.UUID) (RollbackResult, error) {
	records, err := s.audit.ListActiveByOperation(ctx, operationID)
	if err != nil {
		return RollbackResult{}, fmt.Errorf("failed to load audit records: %w", err)
	}
	if len(records) == 0 {
		return RollbackResult{}, ErrOperationNotFound
	}

	groups := map[uuid.UUID][]domain.SearchReplaceRecord{}
	var pageOrder []uuid.UUID
	for _, record := range records {
		if _, seen := groups[record.PageID]; !seen {
			pageOrder = append(pageOrder, record.PageID)
		}
		groups[record.PageID] = append(groups[record.PageID], record)
	}

	result := RollbackResult{OperationID: operationID}
	for _, pageID := range pageOrder {
		page, err := s.pages.GetByID(ctx, pageID)
		if err != nil {
			log.Printf("[SEARCH-REPLACE] rollback skipping page %s: %v", pageID, err)
			continue
		}

		var applied []uuid.UUID
		for _, record := range groups[pageID] {
			if err := restoreRecord(&page, record); err != nil {
				log.Printf("[SEARCH-REPLACE] rollback skipping %s on page %s: %v", record.FieldPath, pageID, err)
				continue
			}
			applied = append(applied, record.ID)
		}
		if len(applied) == 0 {
			continue
		}

		if _, err := s.pages.Update(ctx, page); err != nil {
			log.Printf("[SEARCH-REPLACE] rollback update failed for page %s: %v", pageID, err)
			continue
		}

		marked, err := s.audit.MarkRolledBack(ctx, operationID, applied, s.now())
		if err != nil {
			log.Printf("[SEARCH-REPLACE] failed to mark records rolled back for page %s: %v", pageID, err)
			continue
		}
		result.RestoredChanges += marked
	}

	return result, nil
}

// Operations lists grouped audit summaries for the admin rollback view.
func (s *Service) Operations(ctx context.Context, limit, offset int) ([]domain.OperationSummary, error) {
	return s.audit.ListOperations(ctx, limit, offset)
}

// restoreRecord writes the record's old value back at its recorded path.
// Plain fields are set directly; content-tree paths are re-parsed with the
// leading content segment discarded.
func restoreRecord(page *domain.Page, record domain.SearchReplaceRecord) error {
	if field, ok := textFieldByName(record.FieldPath); ok {
		*field.ref(page) = record.OldValue
		return nil
	}

	path, err := jsonpath.Parse(record.FieldPath)
	if err != nil {
		return fmt.Errorf("unparseable field path: %w", err)
	}
	if len(path) < 2 || path[0].IsIndex || path[0].Key != contentRoot {
		return fmt.Errorf("field path %q is outside the content tree", record.FieldPath)
	}
	if page.Content == nil {
		return fmt.Errorf("page has no content tree")
	}
	if err := jsonpath.Set(page.Content, path[1:], record.OldValue); err != nil {
		return fmt.Errorf("content shape diverged: %w", err)
	}
	return nil
}

// replacePage applies the matcher to the fixed text fields and the content
// tree of one page, returning an updated copy and the matches found. The
// input page is not modified.
func replacePage(page domain.Page, req Request) (domain.Page, []PageMatch) {
	updated := page
	var matches []PageMatch

	for _, field := range textFields {
		value := *field.ref(&page)
		if !Contains(value, req.SearchText, req.CaseSensitive) {
			continue
		}
		replaced := Replace(value, req.SearchText, req.ReplaceText, req.CaseSensitive)
		*field.ref(&updated) = replaced
		matches = append(matches, PageMatch{
			PageID:    page.ID,
			PageTitle: page.Title,
			PageURL:   page.URL(),
			FieldPath: field.name,
			OldValue:  value,
			NewValue:  replaced,
		})
	}

	if page.Content != nil {
		rebuilt, treeMatches := Walk(page.Content, req.SearchText, req.ReplaceText, req.CaseSensitive, jsonpath.Root(contentRoot))
		if tree, ok := rebuilt.(map[string]any); ok {
			updated.Content = tree
		}
		for _, match := range treeMatches {
			matches = append(matches, PageMatch{
				PageID:    page.ID,
				PageTitle: page.Title,
				PageURL:   page.URL(),
				FieldPath: match.Path.String(),
				OldValue:  match.OldValue,
				NewValue:  match.NewValue,
			})
		}
	}

	return updated, matches
}

func normalize(req Request) (Request, error) {
	if req.SearchText == "" {
		return req, fmt.Errorf("%w: searchText is required", ErrValidation)
	}
	if req.StatusFilter == "" {
		req.StatusFilter = domain.StatusFilterAll
	}
	if !domain.ValidStatusFilter(req.StatusFilter) {
		return req, fmt.Errorf("%w: statusFilter must be one of all, published, draft", ErrValidation)
	}
	return req, nil
}
