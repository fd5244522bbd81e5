package handlers

import (
	"net/http"

	"github.com/jeonghakhur/tennis-tab-sub000/models"
	"github.com/jeonghakhur/tennis-tab-sub000/repositories"
	"github.com/jeonghakhur/tennis-tab-sub000/services"
)

type MatchHandler struct {
	matchService  services.MatchService
	resultService services.ResultService
}

func NewMatchHandler(matchService services.MatchService, resultService services.ResultService) *MatchHandler {
	return &MatchHandler{matchService: matchService, resultService: resultService}
}

// ListMatchesHandler returns a config's matches, optionally narrowed by
// ?phase=, ?group_id= and ?round= query parameters.
func (h *MatchHandler) ListMatchesHandler(w http.ResponseWriter, r *http.Request) {
	configID, err := getIDFromURL(r, "configID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	filter, err := matchFilterFromQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.matchService.ListDisplayMatches(r.Context(), configID, filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) GetMatchHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetDisplayMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RecordResultHandler godoc
// @Summary Record a match result and propagate it through the bracket
// @Tags matches
// @Param matchID path int true "Match ID"
// @Success 200 {object} models.BracketMatch
// @Router /matches/{matchID}/result [put]
func (h *MatchHandler) RecordResultHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.RecordResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.resultService.RecordResult(r.Context(), matchID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func matchFilterFromQuery(r *http.Request) (repositories.MatchFilter, error) {
	var filter repositories.MatchFilter
	q := r.URL.Query()

	if raw := q.Get("phase"); raw != "" {
		phase := models.MatchPhase(raw)
		filter.Phase = &phase
	}
	if raw := q.Get("group_id"); raw != "" {
		id, err := parsePositiveInt("group_id", raw)
		if err != nil {
			return filter, err
		}
		filter.GroupID = &id
	}
	if raw := q.Get("round"); raw != "" {
		round, err := parsePositiveInt("round", raw)
		if err != nil {
			return filter, err
		}
		filter.RoundNumber = &round
	}
	if q.Get("main_only") == "true" {
		filter.MainOnly = true
	}
	return filter, nil
}
