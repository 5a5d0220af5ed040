package searchreplace

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func postBody(t *testing.T, handler http.Handler, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/search-replace", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandlerPreview(t *testing.T) {
	service, _, _ := newFixture(acmePage())
	handler := NewHTTPHandler(service)

	rec := postBody(t, handler, map[string]any{
		"searchText":    "Acme Law",
		"replaceText":   "Liberty Law",
		"caseSensitive": true,
		"statusFilter":  "all",
		"dryRun":        true,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}

	var result PreviewResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.TotalMatches != 2 || result.AffectedPages != 1 {
		t.Fatalf("unexpected aggregates: %+v", result)
	}
	if result.ConfirmToken == "" {
		t.Fatal("expected a confirmation token")
	}
}

func TestHandlerExecuteFlow(t *testing.T) {
	service, _, _ := newFixture(acmePage())
	handler := NewHTTPHandler(service)

	preview := postBody(t, handler, map[string]any{
		"searchText":    "Acme Law",
		"replaceText":   "Liberty Law",
		"statusFilter":  "all",
		"dryRun":        true,
		"caseSensitive": true,
	})
	var previewResult PreviewResult
	if err := json.Unmarshal(preview.Body.Bytes(), &previewResult); err != nil {
		t.Fatalf("decode preview: %v", err)
	}

	rec := postBody(t, handler, map[string]any{
		"searchText":    "Acme Law",
		"replaceText":   "Liberty Law",
		"caseSensitive": true,
		"statusFilter":  "all",
		"dryRun":        false,
		"confirmToken":  previewResult.ConfirmToken,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}

	var result ExecuteResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode execute: %v", err)
	}
	if result.TotalChanges != 2 || result.AffectedPages != 1 {
		t.Fatalf("unexpected aggregates: %+v", result)
	}
}

func TestHandlerExecuteRequiresReplaceText(t *testing.T) {
	service, _, _ := newFixture(acmePage())
	handler := NewHTTPHandler(service)

	// replaceText absent entirely: distinguish from explicit empty string.
	rec := postBody(t, handler, map[string]any{
		"searchText":   "Acme Law",
		"statusFilter": "all",
		"dryRun":       false,
		"confirmToken": "whatever",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body)
	}
}

func TestHandlerExecuteAllowsEmptyReplaceText(t *testing.T) {
	service, _, _ := newFixture(acmePage())
	handler := NewHTTPHandler(service)

	preview := postBody(t, handler, map[string]any{
		"searchText":    "Acme Law",
		"replaceText":   "",
		"caseSensitive": true,
		"statusFilter":  "all",
		"dryRun":        true,
	})
	var previewResult PreviewResult
	if err := json.Unmarshal(preview.Body.Bytes(), &previewResult); err != nil {
		t.Fatalf("decode preview: %v", err)
	}

	rec := postBody(t, handler, map[string]any{
		"searchText":    "Acme Law",
		"replaceText":   "",
		"caseSensitive": true,
		"statusFilter":  "all",
		"dryRun":        false,
		"confirmToken":  previewResult.ConfirmToken,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("clearing matched text should be allowed, got %d: %s", rec.Code, rec.Body)
	}
}

func TestHandlerValidationErrors(t *testing.T) {
	service, _, _ := newFixture(acmePage())
	handler := NewHTTPHandler(service)

	rec := postBody(t, handler, map[string]any{
		"searchText": "",
		"dryRun":     true,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty searchText: expected 400, got %d", rec.Code)
	}

	rec = postBody(t, handler, map[string]any{
		"rollback":    true,
		"operationId": "not-a-uuid",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad operationId: expected 400, got %d", rec.Code)
	}
}

func TestHandlerRollbackNotFound(t *testing.T) {
	service, _, _ := newFixture(acmePage())
	handler := NewHTTPHandler(service)

	rec := postBody(t, handler, map[string]any{
		"rollback":    true,
		"operationId": uuid.New().String(),
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["error"] == "" {
		t.Fatal("error responses must carry an error field")
	}
}

func TestHandlerRejectsNonPost(t *testing.T) {
	service, _, _ := newFixture(acmePage())
	handler := NewHTTPHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/api/search-replace", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
