package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/cardduel/internal/api/apierr"
	"github.com/mcoot/cardduel/internal/api/handler"
	"github.com/mcoot/cardduel/internal/api/response"
	"github.com/mcoot/cardduel/internal/middleware"
	"github.com/mcoot/cardduel/internal/sse"
	"github.com/mcoot/cardduel/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger  *slog.Logger
	Table   handler.SnapshotSource
	Storage storage.Storage
	Hub     *sse.Hub // Optional; /events is not routed without one
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	stateHandler := handler.NewStateHandler(cfg.Table)
	matchHandler := handler.NewMatchHandler(cfg.Storage)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger, writePanicError))
	api.Use(middleware.Logging(cfg.Logger))

	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	api.HandleFunc("/state", stateHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/matches", matchHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/matches/{id}", matchHandler.Get).Methods(http.MethodGet)

	if cfg.Hub != nil {
		eventsHandler := handler.NewEventsHandler(cfg.Hub)
		api.HandleFunc("/events", eventsHandler.Stream).Methods(http.MethodGet)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewNotFoundError())
	})

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}

// writePanicError answers a recovered panic with the standard JSON error body
func writePanicError(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
