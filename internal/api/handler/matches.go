package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/cardduel/internal/api/response"
	"github.com/mcoot/cardduel/internal/model"
	"github.com/mcoot/cardduel/internal/storage"
)

const (
	defaultMatchLimit = 20
	maxMatchLimit     = 100
)

// MatchHandler serves the match history
type MatchHandler struct {
	storage storage.Storage
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(storage storage.Storage) *MatchHandler {
	return &MatchHandler{storage: storage}
}

// List handles GET /api/v1/matches
func (h *MatchHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultMatchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxMatchLimit {
			WriteError(w, NewInvalidRequestError(fmt.Sprintf("limit must be between 1 and %d", maxMatchLimit)))
			return
		}
		limit = n
	}

	matches, err := h.storage.ListRecentMatches(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchListFromModel(matches))
}

// Get handles GET /api/v1/matches/{id}
func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.MatchID(mux.Vars(r)["id"])

	match, err := h.storage.GetMatch(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchFromModel(match))
}
