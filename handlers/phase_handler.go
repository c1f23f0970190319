package handlers

import (
	"net/http"

	"github.com/Dosada05/killrace-tournament/services"
)

type PhaseHandler struct {
	phaseService services.PhaseService
}

func NewPhaseHandler(ps services.PhaseService) *PhaseHandler {
	return &PhaseHandler{phaseService: ps}
}

func (h *PhaseHandler) CurrentPhase(w http.ResponseWriter, r *http.Request) {
	phase, err := h.phaseService.CurrentPhase(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, jsonResponse{"phase": phase})
}

func (h *PhaseHandler) ListPhases(w http.ResponseWriter, r *http.Request) {
	phases, err := h.phaseService.ListPhases(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, jsonResponse{"phases": phases})
}

func (h *PhaseHandler) StartPhase(w http.ResponseWriter, r *http.Request) {
	var input services.StartPhaseInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	phase, err := h.phaseService.StartPhase(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	respond(w, r, http.StatusCreated, jsonResponse{"phase": phase})
}

func (h *PhaseHandler) UpdatePhaseStatus(w http.ResponseWriter, r *http.Request) {
	phaseID, err := getIDFromURL(r, "phaseID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdatePhaseInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	phase, err := h.phaseService.UpdatePhaseStatus(r.Context(), phaseID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, jsonResponse{"phase": phase})
}

func (h *PhaseHandler) DeletePhase(w http.ResponseWriter, r *http.Request) {
	phaseID, err := getIDFromURL(r, "phaseID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.phaseService.DeletePhase(r.Context(), phaseID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
