package handlers

import (
	"net/http"

	"github.com/Dosada05/killrace-tournament/services"
	"github.com/go-chi/chi/v5"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

// ListMatches - ?type=qualifier|semifinal, без параметра возвращаются все матчи.
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.matchService.ListMatches(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, jsonResponse{"matches": matches})
}

func (h *MatchHandler) RecordQualifierResult(w http.ResponseWriter, r *http.Request) {
	var input services.QualifierResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.matchService.RecordQualifierResult(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	respond(w, r, http.StatusCreated, jsonResponse{
		"match":           result.Match,
		"teams":           result.Teams,
		"newly_qualified": result.NewlyQualified,
	})
}

func (h *MatchHandler) TeamRankings(w http.ResponseWriter, r *http.Request) {
	group := parseGroup(chi.URLParam(r, "group"))

	teams, err := h.matchService.TeamRankings(r.Context(), group)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, jsonResponse{"group": group, "teams": teams})
}

func (h *MatchHandler) QualifiedTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.matchService.QualifiedTeams(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, jsonResponse{"teams": teams})
}

func (h *MatchHandler) ListSemifinals(w http.ResponseWriter, r *http.Request) {
	semis, err := h.matchService.ListSemifinals(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, jsonResponse{"semifinals": semis})
}

func (h *MatchHandler) GenerateSemifinals(w http.ResponseWriter, r *http.Request) {
	semis, err := h.matchService.GenerateSemifinals(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	respond(w, r, http.StatusCreated, jsonResponse{"semifinals": semis})
}

func (h *MatchHandler) RecordSemifinalResult(w http.ResponseWriter, r *http.Request) {
	var input services.SemifinalResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.matchService.RecordSemifinalResult(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	respond(w, r, http.StatusCreated, jsonResponse{"game": result.Game, "series": result.Series})
}

func (h *MatchHandler) GetFinals(w http.ResponseWriter, r *http.Request) {
	finals, err := h.matchService.GetFinals(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, jsonResponse{"finals": finals})
}

func (h *MatchHandler) GenerateFinals(w http.ResponseWriter, r *http.Request) {
	finals, err := h.matchService.GenerateFinals(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	respond(w, r, http.StatusCreated, jsonResponse{"finals": finals})
}

func (h *MatchHandler) RecordFinalsResult(w http.ResponseWriter, r *http.Request) {
	var input services.FinalsResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.matchService.RecordFinalsResult(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	respond(w, r, http.StatusCreated, jsonResponse{"game": result.Game, "series": result.Series})
}
