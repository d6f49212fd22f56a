package handlers

import (
	"context"
	"net/http"

	"github.com/steamcup/tournament-engine/models"
	"github.com/steamcup/tournament-engine/services"
)

type TournamentHandler struct {
	seedingService services.SeedingService
	bracketService services.BracketService
}

func NewTournamentHandler(seedingService services.SeedingService, bracketService services.BracketService) *TournamentHandler {
	return &TournamentHandler{
		seedingService: seedingService,
		bracketService: bracketService,
	}
}

// CalculateSeedingHandler godoc
// @Summary Calculate tournament seeding by aggregate score
// @Tags tournaments
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 201 {object} map[string]interface{}
// @Router /tournaments/{tournamentID}/seeding [post]
func (h *TournamentHandler) CalculateSeedingHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	seedings, err := h.seedingService.CalculateSeeding(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"seedings": seedings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type manualSeedingRequest struct {
	Assignments []services.SeedAssignment `json:"assignments"`
}

// ApplyManualSeedingHandler godoc
// @Summary Replace the seeding with an explicit seed assignment
// @Tags tournaments
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]interface{}
// @Router /tournaments/{tournamentID}/seeding [put]
func (h *TournamentHandler) ApplyManualSeedingHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req manualSeedingRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	seedings, err := h.seedingService.ApplyManualSeeding(r.Context(), tournamentID, req.Assignments)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"seedings": seedings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GenerateBracketHandler godoc
// @Summary Generate the elimination bracket for a seeded tournament
// @Tags tournaments
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 201 {object} map[string]interface{}
// @Router /tournaments/{tournamentID}/bracket [post]
func (h *TournamentHandler) GenerateBracketHandler(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, h.bracketService.GenerateEliminationBracket)
}

// GenerateRoundRobinHandler godoc
// @Summary Generate the round-robin schedule for a seeded tournament
// @Tags tournaments
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 201 {object} map[string]interface{}
// @Router /tournaments/{tournamentID}/round-robin [post]
func (h *TournamentHandler) GenerateRoundRobinHandler(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, h.bracketService.GenerateRoundRobin)
}

func (h *TournamentHandler) generate(w http.ResponseWriter, r *http.Request, fn func(context.Context, int) (*models.Tournament, error)) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := fn(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetTournamentHandler godoc
// @Summary Get a tournament with seedings, rounds, matches and standings
// @Tags tournaments
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]interface{}
// @Router /tournaments/{tournamentID} [get]
func (h *TournamentHandler) GetTournamentHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.bracketService.GetFullTournamentData(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
