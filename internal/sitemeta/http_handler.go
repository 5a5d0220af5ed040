package sitemeta

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rpattn/lexcms/internal/domain"
	"github.com/rpattn/lexcms/internal/repository"
)

// Handler exposes site settings and redirect management.
type Handler struct {
	settings  repository.SettingsRepository
	redirects repository.RedirectRepository
}

// NewHandler creates a site metadata handler.
func NewHandler(settings repository.SettingsRepository, redirects repository.RedirectRepository) *Handler {
	return &Handler{settings: settings, redirects: redirects}
}

// GetSettings handles GET /api/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// PutSettings handles PUT /api/settings
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON object")
		return
	}

	settings, err := h.settings.Put(r.Context(), data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// ListRedirects handles GET /api/redirects
func (h *Handler) ListRedirects(w http.ResponseWriter, r *http.Request) {
	redirects, err := h.redirects.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"redirects": redirects})
}

type redirectPayload struct {
	FromPath  string `json:"fromPath"`
	ToPath    string `json:"toPath"`
	Permanent *bool  `json:"permanent"`
}

// CreateRedirect handles POST /api/redirects
func (h *Handler) CreateRedirect(w http.ResponseWriter, r *http.Request) {
	var payload redirectPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be valid JSON")
		return
	}

	from := strings.TrimSpace(payload.FromPath)
	to := strings.TrimSpace(payload.ToPath)
	if !strings.HasPrefix(from, "/") || !strings.HasPrefix(to, "/") {
		writeError(w, http.StatusBadRequest, "fromPath and toPath must start with /")
		return
	}
	if from == to {
		writeError(w, http.StatusBadRequest, "fromPath and toPath must differ")
		return
	}

	permanent := true
	if payload.Permanent != nil {
		permanent = *payload.Permanent
	}

	created, err := h.redirects.Create(r.Context(), domain.NewRedirect(from, to, permanent))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// DeleteRedirect handles DELETE /api/redirects/{id}
func (h *Handler) DeleteRedirect(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	if err := h.redirects.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": http.StatusText(status), "message": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
