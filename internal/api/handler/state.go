package handler

import (
	"net/http"

	"github.com/mcoot/cardduel/internal/api/response"
	"github.com/mcoot/cardduel/internal/model"
)

// SnapshotSource provides the live public view of the table
type SnapshotSource interface {
	Snapshot() model.Snapshot
}

// StateHandler serves the live table state
type StateHandler struct {
	source SnapshotSource
}

// NewStateHandler creates a new state handler
func NewStateHandler(source SnapshotSource) *StateHandler {
	return &StateHandler{source: source}
}

// Get handles GET /api/v1/state
func (h *StateHandler) Get(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.StateFromSnapshot(h.source.Snapshot()))
}
