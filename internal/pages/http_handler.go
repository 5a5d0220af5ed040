package pages

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rpattn/lexcms/internal/domain"
	"github.com/rpattn/lexcms/internal/repository"
)

// Handler exposes page CRUD for the admin panel.
type Handler struct {
	pages repository.PageRepository
}

// NewHandler creates a page CRUD handler.
func NewHandler(pages repository.PageRepository) *Handler {
	return &Handler{pages: pages}
}

type pagePayload struct {
	Slug            string         `json:"slug"`
	Title           string         `json:"title"`
	MetaTitle       string         `json:"metaTitle"`
	MetaDescription string         `json:"metaDescription"`
	Status          string         `json:"status"`
	Content         map[string]any `json:"content"`
}

// List handles GET /api/pages?status=...
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.StatusFilter(r.URL.Query().Get("status"))
	if filter == "" {
		filter = domain.StatusFilterAll
	}
	if !domain.ValidStatusFilter(filter) {
		writeError(w, http.StatusBadRequest, "status must be one of all, published, draft")
		return
	}

	list, err := h.pages.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pages": list})
}

// Get handles GET /api/pages/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	page, err := h.pages.GetByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Create handles POST /api/pages
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(payload.Slug) == "" {
		writeError(w, http.StatusBadRequest, "slug is required")
		return
	}

	status := domain.PageStatus(payload.Status)
	if payload.Status == "" {
		status = domain.PageStatusDraft
	}
	if status != domain.PageStatusPublished && status != domain.PageStatusDraft {
		writeError(w, http.StatusBadRequest, "status must be published or draft")
		return
	}

	page := domain.NewPage(payload.Slug, payload.Title, status, payload.Content)
	page.MetaTitle = payload.MetaTitle
	page.MetaDescription = payload.MetaDescription

	created, err := h.pages.Create(r.Context(), page)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update handles PUT /api/pages/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	page, err := h.pages.GetByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	if payload.Slug != "" {
		page.Slug = payload.Slug
	}
	page.Title = payload.Title
	page.MetaTitle = payload.MetaTitle
	page.MetaDescription = payload.MetaDescription
	if payload.Status != "" {
		status := domain.PageStatus(payload.Status)
		if status != domain.PageStatusPublished && status != domain.PageStatusDraft {
			writeError(w, http.StatusBadRequest, "status must be published or draft")
			return
		}
		page.Status = status
	}
	if payload.Content != nil {
		page.Content = payload.Content
	}

	updated, err := h.pages.Update(r.Context(), page)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/pages/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.pages.Delete(r.Context(), id); err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func decodePayload(w http.ResponseWriter, r *http.Request) (pagePayload, bool) {
	var payload pagePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be valid JSON")
		return pagePayload{}, false
	}
	return payload, true
}

func writeRepoError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
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
