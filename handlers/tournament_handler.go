package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/killrace-tournament/middleware"
	"github.com/Dosada05/killrace-tournament/services"
	"github.com/go-chi/chi/v5"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(ts services.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournamentService: ts}
}

// GetCurrent возвращает {"tournament": null}, если турнир ещё не создан.
func (h *TournamentHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	tournament, err := h.tournamentService.GetCurrent(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, jsonResponse{"tournament": tournament})
}

func (h *TournamentHandler) CreateTournament(w http.ResponseWriter, r *http.Request) {
	var input services.TournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.CreateTournament(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	respond(w, r, http.StatusCreated, jsonResponse{"tournament": tournament})
}

func (h *TournamentHandler) UpdateTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.TournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.UpdateTournament(r.Context(), tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, jsonResponse{"tournament": tournament})
}

func (h *TournamentHandler) QualifierRankings(w http.ResponseWriter, r *http.Request) {
	teams, err := h.tournamentService.QualifierRankings(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, jsonResponse{"teams": teams})
}

func (h *TournamentHandler) CheckQualification(w http.ResponseWriter, r *http.Request) {
	group := parseGroup(chi.URLParam(r, "group"))

	result, err := h.tournamentService.CheckQualification(r.Context(), group)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, result)
}

func (h *TournamentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.tournamentService.Stats(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, jsonResponse{"stats": stats})
}

func (h *TournamentHandler) Reset(w http.ResponseWriter, r *http.Request) {
	actor, err := middleware.GetUsernameFromContext(r.Context())
	if err != nil {
		actor = "unknown"
	}
	slog.WarnContext(r.Context(), "tournament reset requested", "by", actor)

	result, err := h.tournamentService.Reset(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, jsonResponse{
		"message": "tournament reset",
		"archive": result,
	})
}
