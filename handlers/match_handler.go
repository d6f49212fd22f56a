package handlers

import (
	"net/http"
	"strconv"

	"github.com/steamcup/tournament-engine/models"
	"github.com/steamcup/tournament-engine/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

// RecordResultHandler godoc
// @Summary Record a match result and advance the winner
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Success 200 {object} map[string]interface{}
// @Router /matches/{matchID}/result [post]
func (h *MatchHandler) RecordResultHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.MatchResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.RecordResult(r.Context(), matchID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) GetMatchHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListMatchesHandler filters by optional ?round= and ?status= query
// parameters.
func (h *MatchHandler) ListMatchesHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var round *int
	if roundStr := r.URL.Query().Get("round"); roundStr != "" {
		parsed, err := strconv.Atoi(roundStr)
		if err != nil || parsed < 1 {
			errorResponse(w, r, http.StatusBadRequest, "round must be a positive integer")
			return
		}
		round = &parsed
	}

	var status *models.MatchStatus
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		parsed := models.MatchStatus(statusStr)
		status = &parsed
	}

	matches, err := h.matchService.ListMatches(r.Context(), tournamentID, round, status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
