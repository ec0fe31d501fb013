package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/courtside-dev/scoreboard-system/repositories"
	"github.com/courtside-dev/scoreboard-system/services"
)

type EventHandler struct {
	eventRepo repositories.EventRepository
}

func NewEventHandler(eventRepo repositories.EventRepository) *EventHandler {
	return &EventHandler{eventRepo: eventRepo}
}

// CategoriesHandler handles GET /events/{eventID}/categories: the category
// configuration (incl. setsPerMatch) admin clients build finalize calls from.
func (h *EventHandler) CategoriesHandler(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	if eventID == "" {
		badRequestResponse(w, r, errors.New("missing eventID path parameter"))
		return
	}

	categories, err := h.eventRepo.GetCategories(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			notFoundResponse(w, r, services.ErrEventNotFound)
			return
		}
		serverErrorResponse(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"success": true, "categories": categories}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
