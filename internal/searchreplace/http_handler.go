package searchreplace

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/rpattn/lexcms/internal/domain"
)

// Handler exposes the search-replace protocol as a single POST endpoint,
// disambiguated by the fields present in the body, plus a read-only
// operations listing.
type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the service with the protocol endpoint.
func NewHTTPHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type requestBody struct {
	SearchText    string  `json:"searchText"`
	ReplaceText   *string `json:"replaceText"`
	CaseSensitive bool    `json:"caseSensitive"`
	StatusFilter  string  `json:"statusFilter"`
	DryRun        *bool   `json:"dryRun"`
	ConfirmToken  string  `json:"confirmToken"`
	Rollback      bool    `json:"rollback"`
	OperationID   string  `json:"operationId"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only POST is supported")
		return
	}

	var body requestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}

	if body.Rollback {
		h.handleRollback(w, r, body)
		return
	}

	req := Request{
		SearchText:    body.SearchText,
		CaseSensitive: body.CaseSensitive,
		StatusFilter:  domain.StatusFilter(body.StatusFilter),
	}
	if body.ReplaceText != nil {
		req.ReplaceText = *body.ReplaceText
	}

	if body.DryRun == nil || *body.DryRun {
		result, err := h.service.Preview(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}

	// Distinguish "clear the matched text" (explicit empty string) from a
	// missing parameter.
	if body.ReplaceText == nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "replaceText is required to execute")
		return
	}

	result, err := h.service.Execute(r.Context(), req, body.ConfirmToken)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleRollback(w http.ResponseWriter, r *http.Request, body requestBody) {
	operationID, err := uuid.Parse(body.OperationID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "operationId must be a valid UUID")
		return
	}

	result, err := h.service.Rollback(r.Context(), operationID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// OperationsHandler serves GET listings of past operations for the
// rollback UI.
func (h *Handler) OperationsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only GET is supported")
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		summaries, err := h.service.Operations(r.Context(), limit, offset)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"operations": summaries})
	})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, ErrOperationNotFound):
		writeError(w, http.StatusNotFound, "not_found", "operation not found or already rolled back")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
