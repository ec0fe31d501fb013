package handlers

import (
	"errors"
	"net/http"

	"github.com/courtside-dev/scoreboard-system/services"
)

type ScoreboardHandler struct {
	scoreboard services.ScoreboardService
	exporter   services.ExportService
}

func NewScoreboardHandler(scoreboard services.ScoreboardService, exporter services.ExportService) *ScoreboardHandler {
	return &ScoreboardHandler{scoreboard: scoreboard, exporter: exporter}
}

// PublicListHandler handles GET /public/scoreboard/{eventID}. Same query
// semantics as the admin read, without authentication.
func (h *ScoreboardHandler) PublicListHandler(w http.ResponseWriter, r *http.Request) {
	eventID := pathParam(r, "eventID", "id")
	if eventID == "" {
		badRequestResponse(w, r, errors.New("missing eventID path parameter"))
		return
	}

	query := services.ScoreboardQuery{
		CategoryRef: categoryRefFromRequest(r, ""),
		RoundName:   r.URL.Query().Get("roundName"),
	}
	matches, err := h.scoreboard.ListMatches(r.Context(), eventID, query)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"success": true, "matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ExportHandler handles POST /matches/{eventID}/export: uploads a scoreboard
// snapshot to the blob store and returns its public URL.
func (h *ScoreboardHandler) ExportHandler(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		errorResponse(w, r, http.StatusServiceUnavailable, "blob store is not configured", nil)
		return
	}
	eventID := pathParam(r, "eventID", "id")
	if eventID == "" {
		badRequestResponse(w, r, errors.New("missing eventID path parameter"))
		return
	}

	query := services.ScoreboardQuery{
		CategoryRef: categoryRefFromRequest(r, ""),
		RoundName:   r.URL.Query().Get("roundName"),
	}
	result, err := h.exporter.ExportScoreboard(r.Context(), eventID, query)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"success": true, "export": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
