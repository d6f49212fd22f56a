package handlers

import (
	"net/http"
	"strconv"

	"github.com/steamcup/tournament-engine/services"
)

type ProgressionHandler struct {
	progressionService services.ProgressionService
}

func NewProgressionHandler(progressionService services.ProgressionService) *ProgressionHandler {
	return &ProgressionHandler{progressionService: progressionService}
}

// AdvanceTeamsHandler godoc
// @Summary Advance qualified teams out of a phase
// @Tags phases
// @Accept json
// @Produce json
// @Param phaseID path int true "Source phase ID"
// @Success 201 {object} map[string]interface{}
// @Router /phases/{phaseID}/advance [post]
func (h *ProgressionHandler) AdvanceTeamsHandler(w http.ResponseWriter, r *http.Request) {
	phaseID, err := getIDFromURL(r, "phaseID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.AdvanceInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.FromPhaseID = phaseID

	progressions, err := h.progressionService.AdvanceTeams(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"progressions": progressions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListProgressionsHandler lists progressions into a phase, optionally
// scoped by ?category_id=.
func (h *ProgressionHandler) ListProgressionsHandler(w http.ResponseWriter, r *http.Request) {
	phaseID, err := getIDFromURL(r, "phaseID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var categoryID *int
	if categoryStr := r.URL.Query().Get("category_id"); categoryStr != "" {
		parsed, err := strconv.Atoi(categoryStr)
		if err != nil || parsed < 1 {
			errorResponse(w, r, http.StatusBadRequest, "category_id must be a positive integer")
			return
		}
		categoryID = &parsed
	}

	progressions, err := h.progressionService.ListProgressions(r.Context(), phaseID, categoryID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"progressions": progressions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ProgressionHandler) RevokeProgressionHandler(w http.ResponseWriter, r *http.Request) {
	progressionID, err := getIDFromURL(r, "progressionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.progressionService.RevokeProgression(r.Context(), progressionID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"revoked": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
