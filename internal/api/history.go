package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/erazemk/orodjarna/internal/model"
	"github.com/erazemk/orodjarna/internal/store"
)

// HistoryHandler serves the custody log.
type HistoryHandler struct {
	DB *sql.DB
}

// List handles GET /api/history. ?tool_id= filters by tool and ?limit=
// caps the result (default 100).
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	var toolID int64
	limit := 100

	if v := r.URL.Query().Get("tool_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			jsonError(w, http.StatusBadRequest, "invalid tool_id")
			return
		}
		toolID = id
	}

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	changes, err := store.ListCustodyChanges(r.Context(), h.DB, toolID, limit)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list custody history")
		return
	}
	if changes == nil {
		changes = []model.CustodyChange{}
	}
	jsonResponse(w, http.StatusOK, changes)
}
