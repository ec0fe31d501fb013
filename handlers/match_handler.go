package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/courtside-dev/scoreboard-system/models"
	"github.com/courtside-dev/scoreboard-system/services"
)

type MatchHandler struct {
	generator  services.GeneratorService
	scores     services.ScoreService
	scoreboard services.ScoreboardService
}

func NewMatchHandler(
	generator services.GeneratorService,
	scores services.ScoreService,
	scoreboard services.ScoreboardService,
) *MatchHandler {
	return &MatchHandler{
		generator:  generator,
		scores:     scores,
		scoreboard: scoreboard,
	}
}

// pathParam returns the first non-empty URL parameter among names. The
// admin match routes mount event- and match-scoped operations at a shared
// {id} position, so handlers accept either spelling.
func pathParam(r *http.Request, names ...string) string {
	for _, name := range names {
		if value := chi.URLParam(r, name); value != "" {
			return value
		}
	}
	return ""
}

// categoryRefFromRequest builds the tagged category ref from the id path
// parameter (or query fallback) plus the optional label query parameter.
func categoryRefFromRequest(r *http.Request, idParam string) models.CategoryRef {
	rawID := chi.URLParam(r, idParam)
	if rawID == "" {
		rawID = r.URL.Query().Get("categoryId")
	}
	label := r.URL.Query().Get("categoryLabel")
	if label == "" {
		label = r.URL.Query().Get("categoryName")
	}
	return models.ParseCategoryRef(rawID, label)
}

// GenerateHandler handles POST /matches/generate/{eventID}/{categoryID}.
func (h *MatchHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	eventID := pathParam(r, "eventID", "id")
	if eventID == "" {
		badRequestResponse(w, r, errors.New("missing eventID path parameter"))
		return
	}
	ref := categoryRefFromRequest(r, "categoryID")
	roundName := r.URL.Query().Get("roundName")

	stats, err := h.generator.GenerateFromBracket(r.Context(), eventID, ref, roundName)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"success": true,
		"message": fmt.Sprintf("generated %d matches, %d already existed", stats.CreatedCount, stats.SkippedCount),
		"stats":   stats,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GenerateLeagueHandler handles POST /matches/generate-league/{eventID}/{categoryID}.
func (h *MatchHandler) GenerateLeagueHandler(w http.ResponseWriter, r *http.Request) {
	eventID := pathParam(r, "eventID", "id")
	if eventID == "" {
		badRequestResponse(w, r, errors.New("missing eventID path parameter"))
		return
	}
	ref := categoryRefFromRequest(r, "categoryID")

	result, err := h.generator.GenerateLeague(r.Context(), eventID, ref)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"success":       true,
		"createdCount":  result.CreatedCount,
		"existingCount": result.ExistingCount,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateHandler handles POST /matches (manual single-match creation).
func (h *MatchHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input services.CreateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.generator.CreateManualMatch(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"success": true, "match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateScoreHandler handles PUT /matches/{matchID}/score.
func (h *MatchHandler) UpdateScoreHandler(w http.ResponseWriter, r *http.Request) {
	matchID := pathParam(r, "matchID", "id")
	if matchID == "" {
		badRequestResponse(w, r, errors.New("missing matchID path parameter"))
		return
	}

	var input services.UpdateScoreInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.scores.UpdateScore(r.Context(), matchID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"success": true, "match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// FinalizeHandler handles POST /matches/{eventID}/finalize.
func (h *MatchHandler) FinalizeHandler(w http.ResponseWriter, r *http.Request) {
	eventID := pathParam(r, "eventID", "id")
	if eventID == "" {
		badRequestResponse(w, r, errors.New("missing eventID path parameter"))
		return
	}

	var input services.FinalizeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.scores.FinalizeRound(r.Context(), eventID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"success":        true,
		"finalizedCount": result.FinalizedCount,
		"matches":        result.Matches,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler handles DELETE /matches/{matchID}.
func (h *MatchHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	matchID := pathParam(r, "matchID", "id")
	if matchID == "" {
		badRequestResponse(w, r, errors.New("missing matchID path parameter"))
		return
	}

	if err := h.scoreboard.DeleteMatch(r.Context(), matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"success": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteByCategoryHandler handles DELETE /matches/category/{eventID}.
func (h *MatchHandler) DeleteByCategoryHandler(w http.ResponseWriter, r *http.Request) {
	eventID := pathParam(r, "eventID", "id")
	if eventID == "" {
		badRequestResponse(w, r, errors.New("missing eventID path parameter"))
		return
	}

	query := services.ScoreboardQuery{
		CategoryRef: categoryRefFromRequest(r, ""),
		RoundName:   r.URL.Query().Get("roundName"),
	}
	deleted, err := h.scoreboard.DeleteByScope(r.Context(), eventID, query)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"success": true, "deletedCount": deleted}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler handles GET /matches/{eventID} (admin scoreboard read).
func (h *MatchHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
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
