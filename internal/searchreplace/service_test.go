package searchreplace

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rpattn/lexcms/internal/auth"
	"github.com/rpattn/lexcms/internal/domain"
)

type mockPageRepo struct {
	pages     []domain.Page
	updateErr map[uuid.UUID]error
	events    *[]string
}

func (m *mockPageRepo) List(_ context.Context, filter domain.StatusFilter) ([]domain.Page, error) {
	var result []domain.Page
	for _, page := range m.pages {
		if filter != domain.StatusFilterAll && string(page.Status) != string(filter) {
			continue
		}
		result = append(result, clonePage(page))
	}
	return result, nil
}

func (m *mockPageRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Page, error) {
	for _, page := range m.pages {
		if page.ID == id {
			return clonePage(page), nil
		}
	}
	return domain.Page{}, errors.New("page not found")
}

func (m *mockPageRepo) GetBySlug(_ context.Context, slug string) (domain.Page, error) {
	for _, page := range m.pages {
		if page.Slug == slug {
			return clonePage(page), nil
		}
	}
	return domain.Page{}, errors.New("page not found")
}

func (m *mockPageRepo) Create(_ context.Context, page domain.Page) (domain.Page, error) {
	m.pages = append(m.pages, clonePage(page))
	return page, nil
}

func (m *mockPageRepo) Update(_ context.Context, page domain.Page) (domain.Page, error) {
	if err := m.updateErr[page.ID]; err != nil {
		return domain.Page{}, err
	}
	if m.events != nil {
		*m.events = append(*m.events, "update "+page.ID.String())
	}
	for i := range m.pages {
		if m.pages[i].ID == page.ID {
			m.pages[i] = clonePage(page)
			return page, nil
		}
	}
	return domain.Page{}, errors.New("page not found")
}

func (m *mockPageRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i := range m.pages {
		if m.pages[i].ID == id {
			m.pages = append(m.pages[:i], m.pages[i+1:]...)
			return nil
		}
	}
	return errors.New("page not found")
}

type mockAuditRepo struct {
	records []domain.SearchReplaceRecord
	events  *[]string
}

func (m *mockAuditRepo) Insert(_ context.Context, record domain.SearchReplaceRecord) error {
	record.CreatedAt = time.Now()
	m.records = append(m.records, record)
	if m.events != nil {
		*m.events = append(*m.events, "audit "+record.PageID.String())
	}
	return nil
}

func (m *mockAuditRepo) ListActiveByOperation(_ context.Context, operationID uuid.UUID) ([]domain.SearchReplaceRecord, error) {
	var result []domain.SearchReplaceRecord
	for _, record := range m.records {
		if record.OperationID == operationID && !record.RolledBack {
			result = append(result, record)
		}
	}
	return result, nil
}

func (m *mockAuditRepo) ListByOperation(_ context.Context, operationID uuid.UUID) ([]domain.SearchReplaceRecord, error) {
	var result []domain.SearchReplaceRecord
	for _, record := range m.records {
		if record.OperationID == operationID {
			result = append(result, record)
		}
	}
	return result, nil
}

func (m *mockAuditRepo) MarkRolledBack(_ context.Context, operationID uuid.UUID, recordIDs []uuid.UUID, at time.Time) (int, error) {
	ids := map[uuid.UUID]bool{}
	for _, id := range recordIDs {
		ids[id] = true
	}
	marked := 0
	for i := range m.records {
		record := &m.records[i]
		if record.OperationID == operationID && ids[record.ID] && !record.RolledBack {
			record.RolledBack = true
			stamp := at
			record.RolledBackAt = &stamp
			marked++
		}
	}
	return marked, nil
}

func (m *mockAuditRepo) ListOperations(_ context.Context, _ int, _ int) ([]domain.OperationSummary, error) {
	return []domain.OperationSummary{}, nil
}

func clonePage(page domain.Page) domain.Page {
	copied := page
	raw, _ := json.Marshal(page.Content)
	var tree map[string]any
	_ = json.Unmarshal(raw, &tree)
	copied.Content = tree
	return copied
}

func acmePage() domain.Page {
	page := domain.NewPage("home", "Welcome to Acme Law", domain.PageStatusPublished, map[string]any{
		"hero": map[string]any{"tagline": "Acme Law fights for you"},
	})
	return page
}

func newFixture(pages ...domain.Page) (*Service, *mockPageRepo, *mockAuditRepo) {
	events := []string{}
	pageRepo := &mockPageRepo{pages: pages, events: &events}
	auditRepo := &mockAuditRepo{events: &events}
	service := NewService(pageRepo, auditRepo, NewTokenCodec("test-secret", 15*time.Minute))
	return service, pageRepo, auditRepo
}

func acmeRequest() Request {
	return Request{
		SearchText:    "Acme Law",
		ReplaceText:   "Liberty Law",
		CaseSensitive: true,
		StatusFilter:  domain.StatusFilterAll,
	}
}

func TestPreviewScenario(t *testing.T) {
	service, _, _ := newFixture(acmePage())

	result, err := service.Preview(context.Background(), acmeRequest())
	if err != nil {
		t.Fatalf("preview: %v", err)
	}

	if result.TotalMatches != 2 {
		t.Fatalf("expected 2 matches, got %d", result.TotalMatches)
	}
	if result.AffectedPages != 1 {
		t.Fatalf("expected 1 affected page, got %d", result.AffectedPages)
	}
	if result.ConfirmToken == "" {
		t.Fatal("expected a confirmation token")
	}

	paths := map[string]bool{}
	for _, match := range result.Matches {
		paths[match.FieldPath] = true
		if match.PageURL != "/" {
			t.Fatalf("unexpected page url %q", match.PageURL)
		}
	}
	if !paths["title"] || !paths["content.hero.tagline"] {
		t.Fatalf("unexpected match paths: %v", paths)
	}
}

func TestPreviewIsIdempotentAndReadOnly(t *testing.T) {
	service, pageRepo, auditRepo := newFixture(acmePage())

	first, err := service.Preview(context.Background(), acmeRequest())
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	second, err := service.Preview(context.Background(), acmeRequest())
	if err != nil {
		t.Fatalf("preview: %v", err)
	}

	if !reflect.DeepEqual(first.Matches, second.Matches) {
		t.Fatal("two previews over unchanged data disagreed")
	}
	if first.TotalMatches != second.TotalMatches || first.AffectedPages != second.AffectedPages {
		t.Fatal("preview aggregates changed between calls")
	}

	if len(auditRepo.records) != 0 {
		t.Fatal("preview must not write audit records")
	}
	if pageRepo.pages[0].Title != "Welcome to Acme Law" {
		t.Fatal("preview must not mutate pages")
	}
}

func TestPreviewRejectsEmptySearch(t *testing.T) {
	service, _, _ := newFixture(acmePage())

	req := acmeRequest()
	req.SearchText = ""
	if _, err := service.Preview(context.Background(), req); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPreviewRejectsBadStatusFilter(t *testing.T) {
	service, _, _ := newFixture(acmePage())

	req := acmeRequest()
	req.StatusFilter = "archived"
	if _, err := service.Preview(context.Background(), req); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStatusFilterScopesPreview(t *testing.T) {
	draft := domain.NewPage("draft-page", "Acme Law draft", domain.PageStatusDraft, nil)
	service, _, _ := newFixture(acmePage(), draft)

	req := acmeRequest()
	req.StatusFilter = domain.StatusFilterPublished
	result, err := service.Preview(context.Background(), req)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if result.AffectedPages != 1 {
		t.Fatalf("draft page leaked into published scope: %d pages", result.AffectedPages)
	}
}

func TestExecuteRequiresToken(t *testing.T) {
	service, _, auditRepo := newFixture(acmePage())

	_, err := service.Execute(context.Background(), acmeRequest(), "")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(auditRepo.records) != 0 {
		t.Fatal("failed execute must not write audit records")
	}
}

func TestExecuteNoOpGuard(t *testing.T) {
	service, pageRepo, auditRepo := newFixture(acmePage())

	preview, err := service.Preview(context.Background(), acmeRequest())
	if err != nil {
		t.Fatalf("preview: %v", err)
	}

	req := acmeRequest()
	req.ReplaceText = req.SearchText
	_, err = service.Execute(context.Background(), req, preview.ConfirmToken)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(auditRepo.records) != 0 {
		t.Fatal("no-op execute must produce zero audit rows")
	}
	if pageRepo.pages[0].Title != "Welcome to Acme Law" {
		t.Fatal("no-op execute must produce zero writes")
	}
}

func TestExecuteRejectsMismatchedToken(t *testing.T) {
	service, _, _ := newFixture(acmePage())

	other := acmeRequest()
	other.SearchText = "Something Else"
	preview, err := service.Preview(context.Background(), other)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}

	if _, err := service.Execute(context.Background(), acmeRequest(), preview.ConfirmToken); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExecuteAppliesChangesAndAudits(t *testing.T) {
	page := acmePage()
	service, pageRepo, auditRepo := newFixture(page)

	ctx := auth.ContextWithUserID(context.Background(), "editor@firm")
	preview, err := service.Preview(ctx, acmeRequest())
	if err != nil {
		t.Fatalf("preview: %v", err)
	}

	result, err := service.Execute(ctx, acmeRequest(), preview.ConfirmToken)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if result.TotalChanges != 2 || result.AffectedPages != 1 {
		t.Fatalf("unexpected aggregates: %+v", result)
	}
	if result.OperationID == uuid.Nil {
		t.Fatal("expected a fresh operation id")
	}

	if len(auditRepo.records) != 2 {
		t.Fatalf("expected 2 audit records, got %d", len(auditRepo.records))
	}
	for _, record := range auditRepo.records {
		if record.OperationID != result.OperationID {
			t.Fatal("audit records must share the operation id")
		}
		if record.PerformedBy != "editor@firm" {
			t.Fatalf("unexpected acting user %q", record.PerformedBy)
		}
		if record.RolledBack {
			t.Fatal("fresh records must not be rolled back")
		}
	}

	stored, _ := pageRepo.GetByID(ctx, page.ID)
	if stored.Title != "Welcome to Liberty Law" {
		t.Fatalf("title not updated: %q", stored.Title)
	}
	tagline := stored.Content["hero"].(map[string]any)["tagline"]
	if tagline != "Liberty Law fights for you" {
		t.Fatalf("content not updated: %v", tagline)
	}
}

func TestExecuteAuditsBeforeWriting(t *testing.T) {
	page := acmePage()
	events := []string{}
	pageRepo := &mockPageRepo{pages: []domain.Page{page}, events: &events}
	auditRepo := &mockAuditRepo{events: &events}
	service := NewService(pageRepo, auditRepo, NewTokenCodec("test-secret", 15*time.Minute))

	preview, err := service.Preview(context.Background(), acmeRequest())
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if _, err := service.Execute(context.Background(), acmeRequest(), preview.ConfirmToken); err != nil {
		t.Fatalf("execute: %v", err)
	}

	want := []string{
		"audit " + page.ID.String(),
		"audit " + page.ID.String(),
		"update " + page.ID.String(),
	}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("event order %v, want %v", events, want)
	}
}

func TestExecuteContinuesPastFailedPage(t *testing.T) {
	broken := acmePage()
	healthy := domain.NewPage("about", "About Acme Law", domain.PageStatusPublished, nil)

	service, pageRepo, auditRepo := newFixture(broken, healthy)
	pageRepo.updateErr = map[uuid.UUID]error{broken.ID: errors.New("write refused")}

	preview, err := service.Preview(context.Background(), acmeRequest())
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	result, err := service.Execute(context.Background(), acmeRequest(), preview.ConfirmToken)
	if err != nil {
		t.Fatalf("execute should not fail the batch: %v", err)
	}

	// Aggregates report the full intended set; the audit log is the source
	// of truth for what actually landed.
	if result.TotalChanges != 3 || result.AffectedPages != 2 {
		t.Fatalf("unexpected aggregates: %+v", result)
	}
	if len(auditRepo.records) != 3 {
		t.Fatalf("expected audit rows for the full intended set, got %d", len(auditRepo.records))
	}

	stored, _ := pageRepo.GetByID(context.Background(), healthy.ID)
	if stored.Title != "About Liberty Law" {
		t.Fatalf("healthy page not updated: %q", stored.Title)
	}
}

func TestExecuteThenRollbackIdentity(t *testing.T) {
	page := acmePage()
	service, pageRepo, auditRepo := newFixture(page)

	preview, err := service.Preview(context.Background(), acmeRequest())
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	executed, err := service.Execute(context.Background(), acmeRequest(), preview.ConfirmToken)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	rollback, err := service.Rollback(context.Background(), executed.OperationID)
	if err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if rollback.RestoredChanges != 2 {
		t.Fatalf("expected 2 restored changes, got %d", rollback.RestoredChanges)
	}

	stored, _ := pageRepo.GetByID(context.Background(), page.ID)
	if stored.Title != "Welcome to Acme Law" {
		t.Fatalf("title not restored: %q", stored.Title)
	}
	tagline := stored.Content["hero"].(map[string]any)["tagline"]
	if tagline != "Acme Law fights for you" {
		t.Fatalf("content not restored: %v", tagline)
	}

	for _, record := range auditRepo.records {
		if !record.RolledBack || record.RolledBackAt == nil {
			t.Fatalf("record not marked rolled back: %+v", record)
		}
	}

	// A second rollback finds nothing active.
	if _, err := service.Rollback(context.Background(), executed.OperationID); !errors.Is(err, ErrOperationNotFound) {
		t.Fatalf("expected not-found on double rollback, got %v", err)
	}
}

func TestRollbackUnknownOperation(t *testing.T) {
	service, _, _ := newFixture(acmePage())

	if _, err := service.Rollback(context.Background(), uuid.New()); !errors.Is(err, ErrOperationNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestRollbackSkipsDivergedPaths(t *testing.T) {
	page := acmePage()
	service, pageRepo, auditRepo := newFixture(page)

	operationID := uuid.New()
	good := domain.SearchReplaceRecord{
		ID:          uuid.New(),
		OperationID: operationID,
		PageID:      page.ID,
		FieldPath:   "title",
		OldValue:    "Original Title",
		NewValue:    "Welcome to Acme Law",
		PerformedBy: "editor@firm",
	}
	diverged := domain.SearchReplaceRecord{
		ID:          uuid.New(),
		OperationID: operationID,
		PageID:      page.ID,
		FieldPath:   "content.sections[4].heading",
		OldValue:    "gone",
		NewValue:    "also gone",
		PerformedBy: "editor@firm",
	}
	auditRepo.records = append(auditRepo.records, good, diverged)

	result, err := service.Rollback(context.Background(), operationID)
	if err != nil {
		t.Fatalf("rollback must not fail the batch: %v", err)
	}
	if result.RestoredChanges != 1 {
		t.Fatalf("expected 1 restored change, got %d", result.RestoredChanges)
	}

	stored, _ := pageRepo.GetByID(context.Background(), page.ID)
	if stored.Title != "Original Title" {
		t.Fatalf("title not restored: %q", stored.Title)
	}

	for _, record := range auditRepo.records {
		if record.ID == good.ID && !record.RolledBack {
			t.Fatal("applied record must be marked rolled back")
		}
		if record.ID == diverged.ID && record.RolledBack {
			t.Fatal("skipped record must stay active")
		}
	}
}
