package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/scrollie/internal/models"
	"github.com/atinyakov/scrollie/internal/service"
)

// ContentService defines the project creation operation.
type ContentService interface {
	Create(ctx context.Context, in service.CreateInput) (*service.Created, error)
}

// ProjectService defines the operations on stored projects.
type ProjectService interface {
	List(ctx context.Context, f service.ListFilter) ([]models.Project, error)
	Get(ctx context.Context, id string) (*models.Project, error)
	Update(ctx context.Context, id string, patch service.ProjectPatch) (*models.Project, error)
	Delete(ctx context.Context, id string) error
	AddItem(ctx context.Context, id string) (*models.Project, error)
	UpdateItem(ctx context.Context, id string, index int, item models.ContentItem) (*models.Project, error)
	RemoveItem(ctx context.Context, id string, index int) (*models.Project, error)
	MoveItem(ctx context.Context, id string, index int, d models.Direction) (*models.Project, error)
	AddBullet(ctx context.Context, id string, index int) (*models.Project, error)
	UpdateBullet(ctx context.Context, id string, index, bullet int, text string) (*models.Project, error)
	RemoveBullet(ctx context.Context, id string, index, bullet int) (*models.Project, error)
}

// ProjectHandler serves the /api/projects endpoints.
type ProjectHandler struct {
	ContentService ContentService
	ProjectService ProjectService
	Logger         *zap.Logger
}

// MoveRequest represents the JSON payload for reordering an item.
type MoveRequest struct {
	Direction models.Direction `json:"direction"`
}

// BulletRequest represents the JSON payload for editing a bullet.
type BulletRequest struct {
	Text string `json:"text"`
}

// List returns projects, newest first. Query parameters: type, q, limit.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := service.ListFilter{Type: models.ProjectType(q.Get("type")), Query: q.Get("q")}
	if f.Type != "" && !f.Type.Valid() {
		badRequest(w, "unknown project type")
		return
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			badRequest(w, "limit must be a non-negative integer")
			return
		}
		f.Limit = n
	}
	projects, err := h.ProjectService.List(r.Context(), f)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// Create generates and stores a new project. The response reports whether
// the content came from the model or is placeholder content.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateInput
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	out, err := h.ContentService.Create(r.Context(), req)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// Get serves GET /api/projects/{id}.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.ProjectService.Get(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, p, err)
}

// Update serves PATCH /api/projects/{id} and applies a partial update.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch service.ProjectPatch
	if err := decodeBody(r, &patch); err != nil {
		badRequest(w, err.Error())
		return
	}
	p, err := h.ProjectService.Update(r.Context(), chi.URLParam(r, "id"), patch)
	h.respond(w, p, err)
}

// Delete serves DELETE /api/projects/{id}.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.ProjectService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddItem serves POST /api/projects/{id}/items and appends a placeholder item.
func (h *ProjectHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	p, err := h.ProjectService.AddItem(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, p, err)
}

// UpdateItem serves PUT /api/projects/{id}/items/{index}.
func (h *ProjectHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	index, ok := urlIndex(w, r, "index")
	if !ok {
		return
	}
	var item models.ContentItem
	if err := decodeBody(r, &item); err != nil {
		badRequest(w, err.Error())
		return
	}
	p, err := h.ProjectService.UpdateItem(r.Context(), chi.URLParam(r, "id"), index, item)
	h.respond(w, p, err)
}

// RemoveItem serves DELETE /api/projects/{id}/items/{index}.
func (h *ProjectHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	index, ok := urlIndex(w, r, "index")
	if !ok {
		return
	}
	p, err := h.ProjectService.RemoveItem(r.Context(), chi.URLParam(r, "id"), index)
	h.respond(w, p, err)
}

// MoveItem serves POST /api/projects/{id}/items/{index}/move.
func (h *ProjectHandler) MoveItem(w http.ResponseWriter, r *http.Request) {
	index, ok := urlIndex(w, r, "index")
	if !ok {
		return
	}
	var req MoveRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	p, err := h.ProjectService.MoveItem(r.Context(), chi.URLParam(r, "id"), index, req.Direction)
	h.respond(w, p, err)
}

// AddBullet serves POST /api/projects/{id}/items/{index}/bullets.
func (h *ProjectHandler) AddBullet(w http.ResponseWriter, r *http.Request) {
	index, ok := urlIndex(w, r, "index")
	if !ok {
		return
	}
	p, err := h.ProjectService.AddBullet(r.Context(), chi.URLParam(r, "id"), index)
	h.respond(w, p, err)
}

// UpdateBullet serves PUT /api/projects/{id}/items/{index}/bullets/{b}.
func (h *ProjectHandler) UpdateBullet(w http.ResponseWriter, r *http.Request) {
	index, ok := urlIndex(w, r, "index")
	if !ok {
		return
	}
	bullet, ok := urlIndex(w, r, "bullet")
	if !ok {
		return
	}
	var req BulletRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	p, err := h.ProjectService.UpdateBullet(r.Context(), chi.URLParam(r, "id"), index, bullet, req.Text)
	h.respond(w, p, err)
}

// RemoveBullet serves DELETE /api/projects/{id}/items/{index}/bullets/{b}.
func (h *ProjectHandler) RemoveBullet(w http.ResponseWriter, r *http.Request) {
	index, ok := urlIndex(w, r, "index")
	if !ok {
		return
	}
	bullet, ok := urlIndex(w, r, "bullet")
	if !ok {
		return
	}
	p, err := h.ProjectService.RemoveBullet(r.Context(), chi.URLParam(r, "id"), index, bullet)
	h.respond(w, p, err)
}

func (h *ProjectHandler) respond(w http.ResponseWriter, p *models.Project, err error) {
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// urlIndex parses a non-negative integer path parameter. It writes a 400
// response and returns false when the value is malformed.
func urlIndex(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || n < 0 {
		badRequest(w, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}
