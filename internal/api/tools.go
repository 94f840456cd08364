package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/erazemk/orodjarna/internal/imaging"
	"github.com/erazemk/orodjarna/internal/model"
	"github.com/erazemk/orodjarna/internal/store"
)

const maxPhotoSize = 10 << 20

// ToolsHandler handles tool register endpoints.
type ToolsHandler struct {
	DB     *sql.DB
	Photos imaging.Normalizer
}

type toolRequest struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Holder string `json:"holder"`
}

type custodyRequest struct {
	Holder string `json:"holder"`
}

// List handles GET /api/tools. ?q= matches code, name or holder; ?holder=
// lists the tools of one holder exactly.
func (h *ToolsHandler) List(w http.ResponseWriter, r *http.Request) {
	var tools []model.Tool
	var err error

	if holder := strings.TrimSpace(r.URL.Query().Get("holder")); holder != "" {
		tools, err = store.SearchTools(r.Context(), h.DB, model.ToolFilter{
			Field: model.FieldHolder, Match: model.MatchEquals, Value: holder,
		})
	} else {
		tools, err = store.ListTools(r.Context(), h.DB, strings.TrimSpace(r.URL.Query().Get("q")))
	}
	if err != nil {
		slog.Error("listing tools", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list tools")
		return
	}
	if tools == nil {
		tools = []model.Tool{}
	}
	jsonResponse(w, http.StatusOK, tools)
}

// Create handles POST /api/tools.
func (h *ToolsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req toolRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Holder = strings.TrimSpace(req.Holder)

	if req.Name == "" || req.Holder == "" {
		jsonError(w, http.StatusBadRequest, "name and holder required")
		return
	}
	if !normalizeCode(&req) {
		jsonError(w, http.StatusBadRequest, "code must be a numeric management code")
		return
	}

	if taken, err := h.codeTaken(r, req.Code, 0); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to check code")
		return
	} else if taken {
		jsonError(w, http.StatusConflict, "code already in use")
		return
	}

	tool, err := store.CreateTool(r.Context(), h.DB, req.Code, req.Name, req.Holder)
	if err != nil {
		slog.Error("creating tool", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create tool")
		return
	}

	slog.Info("tool created", "subject", subject(r), "tool", tool.Name, "code", tool.Code)
	jsonResponse(w, http.StatusCreated, tool)
}

// Get handles GET /api/tools/{id}. The response includes the tool's most
// recent custody changes.
func (h *ToolsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid tool id")
		return
	}

	tool, err := store.GetTool(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get tool")
		return
	}
	if tool == nil {
		jsonError(w, http.StatusNotFound, "tool not found")
		return
	}

	history, err := store.ListCustodyChanges(r.Context(), h.DB, id, 20)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get custody history")
		return
	}
	if history == nil {
		history = []model.CustodyChange{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"tool":    tool,
		"history": history,
	})
}

// Update handles PUT /api/tools/{id}.
func (h *ToolsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid tool id")
		return
	}

	var req toolRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}
	if !normalizeCode(&req) {
		jsonError(w, http.StatusBadRequest, "code must be a numeric management code")
		return
	}

	tool, err := store.GetTool(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get tool")
		return
	}
	if tool == nil || tool.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "tool not found")
		return
	}

	if taken, err := h.codeTaken(r, req.Code, id); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to check code")
		return
	} else if taken {
		jsonError(w, http.StatusConflict, "code already in use")
		return
	}

	if err := store.UpdateTool(r.Context(), h.DB, id, req.Code, req.Name); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update tool")
		return
	}

	tool, _ = store.GetTool(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, tool)
}

// Delete handles DELETE /api/tools/{id}.
func (h *ToolsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid tool id")
		return
	}

	if err := store.DeleteTool(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete tool")
		return
	}

	slog.Info("tool deleted", "subject", subject(r), "id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "tool deleted"})
}

// SetCustody handles PUT /api/tools/{id}/custody. It records the change the
// same way a chat command does, with the API caller as source.
func (h *ToolsHandler) SetCustody(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid tool id")
		return
	}

	var req custodyRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Holder = strings.TrimSpace(req.Holder)
	if req.Holder == "" {
		jsonError(w, http.StatusBadRequest, "holder required")
		return
	}

	err := store.UpdateToolCustody(r.Context(), h.DB, id, model.ToolUpdate{
		Holder:      req.Holder,
		Location:    req.Holder,
		LastUpdated: time.Now(),
		Source:      "api:" + subject(r),
	})
	if errors.Is(err, model.ErrToolNotFound) {
		jsonError(w, http.StatusNotFound, "tool not found")
		return
	}
	if err != nil {
		slog.Error("updating custody", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update custody")
		return
	}

	tool, _ := store.GetTool(r.Context(), h.DB, id)
	slog.Info("custody updated", "subject", subject(r), "id", id, "to", req.Holder)
	jsonResponse(w, http.StatusOK, tool)
}

// UploadPhoto handles PUT /api/tools/{id}/photo. The photo is normalized to
// a bounded JPEG before it is stored.
func (h *ToolsHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid tool id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	photo, err := h.Photos.Normalize(file)
	if errors.Is(err, imaging.ErrUnsupported) {
		jsonError(w, http.StatusBadRequest, "photo must be JPEG, PNG, GIF or WebP")
		return
	}
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid photo")
		return
	}

	tool, err := store.GetTool(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get tool")
		return
	}
	if tool == nil || tool.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "tool not found")
		return
	}

	if err := store.SetToolImage(r.Context(), h.DB, id, photo.Data, photo.MIME); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to save photo")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"message": "photo uploaded",
		"width":   photo.Width,
		"height":  photo.Height,
	})
}

// GetPhoto handles GET /api/tools/{id}/photo.
func (h *ToolsHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid tool id")
		return
	}

	data, mime, err := store.GetToolImage(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get photo")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}

// normalizeCode stores the request's code in the form chat lookups search
// for. An empty code is allowed; anything else must be a management code.
func normalizeCode(req *toolRequest) bool {
	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		return true
	}
	code, ok := model.NormalizeCode(req.Code)
	if !ok {
		return false
	}
	req.Code = code
	return true
}

// codeTaken reports whether another active tool uses code.
func (h *ToolsHandler) codeTaken(r *http.Request, code string, self int64) (bool, error) {
	if code == "" {
		return false, nil
	}
	tools, err := store.SearchTools(r.Context(), h.DB, model.ToolFilter{
		Field: model.FieldCode, Match: model.MatchEquals, Value: code,
	})
	if err != nil {
		return false, err
	}
	for _, t := range tools {
		if t.ID != self {
			return true, nil
		}
	}
	return false, nil
}

func subject(r *http.Request) string {
	if c := GetClaims(r.Context()); c != nil {
		return c.Subject
	}
	return ""
}
