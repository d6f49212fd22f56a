package handlers

import (
	"net/http"

	"github.com/steamcup/tournament-engine/middleware"
	"github.com/steamcup/tournament-engine/models"
	"github.com/steamcup/tournament-engine/services"
)

type ScheduleHandler struct {
	scheduleService services.ScheduleService
}

func NewScheduleHandler(scheduleService services.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

// AllocateSlotsHandler godoc
// @Summary Generate the time-slot grid for an event
// @Tags events
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 201 {object} map[string]interface{}
// @Router /events/{eventID}/slots [post]
func (h *ScheduleHandler) AllocateSlotsHandler(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	slots, err := h.scheduleService.AllocateSlots(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"slots": slots}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type assignSlotsRequest struct {
	CategoryID int `json:"category_id"`
}

// AssignSlotsHandler godoc
// @Summary Auto-assign a category's teams onto available slots
// @Tags events
// @Accept json
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} map[string]interface{}
// @Router /events/{eventID}/slots/assign [post]
func (h *ScheduleHandler) AssignSlotsHandler(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req assignSlotsRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	slots, err := h.scheduleService.AssignSlots(r.Context(), eventID, req.CategoryID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"slots": slots}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScheduleHandler) ListSlotsHandler(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var status *models.SlotStatus
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		parsed := models.SlotStatus(statusStr)
		status = &parsed
	}

	slots, err := h.scheduleService.ListSlots(r.Context(), eventID, status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"slots": slots}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ReserveSlotHandler godoc
// @Summary Reserve an available time slot for a team
// @Tags events
// @Accept json
// @Produce json
// @Param slotID path int true "Slot ID"
// @Success 200 {object} map[string]interface{}
// @Router /slots/{slotID}/reserve [post]
func (h *ScheduleHandler) ReserveSlotHandler(w http.ResponseWriter, r *http.Request) {
	slotID, err := getIDFromURL(r, "slotID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.ReserveSlotInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	slot, err := h.scheduleService.ReserveSlot(r.Context(), slotID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"slot": slot}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScheduleHandler) ReleaseSlotHandler(w http.ResponseWriter, r *http.Request) {
	slotID, err := getIDFromURL(r, "slotID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.scheduleService.ReleaseSlot(r.Context(), slotID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"released": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScheduleHandler) DetectConflictsHandler(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conflicts, err := h.scheduleService.DetectConflicts(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"conflicts": conflicts}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScheduleHandler) ListConflictsHandler(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conflicts, err := h.scheduleService.ListConflicts(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"conflicts": conflicts}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type resolveConflictRequest struct {
	Method string `json:"method"`
}

// ResolveConflictHandler settles a flagged conflict, either marking it
// manually handled or rebooking the second slot automatically. The
// resolver recorded on the conflict is the authenticated user, not a
// caller-supplied id.
func (h *ScheduleHandler) ResolveConflictHandler(w http.ResponseWriter, r *http.Request) {
	conflictID, err := getIDFromURL(r, "conflictID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req resolveConflictRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	resolverID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		errorResponse(w, r, http.StatusUnauthorized, err.Error())
		return
	}

	if err := h.scheduleService.ResolveConflict(r.Context(), conflictID, req.Method, resolverID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"resolved": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
