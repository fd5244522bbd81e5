package handlers

import (
	"net/http"

	"github.com/jeonghakhur/tennis-tab-sub000/services"
)

type GroupHandler struct {
	seedingService     services.SeedingService
	preliminaryService services.PreliminaryService
}

func NewGroupHandler(seedingService services.SeedingService, preliminaryService services.PreliminaryService) *GroupHandler {
	return &GroupHandler{seedingService: seedingService, preliminaryService: preliminaryService}
}

// FormGroupsHandler godoc
// @Summary Distribute the confirmed roster into preliminary groups
// @Tags groups
// @Param configID path int true "Bracket config ID"
// @Success 201 {array} models.PreliminaryGroup
// @Router /bracket-configs/{configID}/groups [post]
func (h *GroupHandler) FormGroupsHandler(w http.ResponseWriter, r *http.Request) {
	configID, err := getIDFromURL(r, "configID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	groups, err := h.seedingService.FormGroups(r.Context(), configID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"groups": groups}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type moveTeamRequest struct {
	GroupID int `json:"group_id"`
}

func (h *GroupHandler) MoveTeamHandler(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var req moveTeamRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.seedingService.MoveTeam(r.Context(), teamID, req.GroupID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type commitOrderRequest struct {
	Placements []services.TeamPlacement `json:"placements"`
}

func (h *GroupHandler) CommitGroupOrderHandler(w http.ResponseWriter, r *http.Request) {
	configID, err := getIDFromURL(r, "configID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var req commitOrderRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.seedingService.CommitGroupOrder(r.Context(), configID, req.Placements); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GroupHandler) GeneratePreliminaryHandler(w http.ResponseWriter, r *http.Request) {
	configID, err := getIDFromURL(r, "configID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.preliminaryService.GenerateMatches(r.Context(), configID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GroupHandler) DeletePreliminaryHandler(w http.ResponseWriter, r *http.Request) {
	configID, err := getIDFromURL(r, "configID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.preliminaryService.DeleteMatches(r.Context(), configID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GroupHandler) DeleteGroupsHandler(w http.ResponseWriter, r *http.Request) {
	configID, err := getIDFromURL(r, "configID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.preliminaryService.DeleteGroups(r.Context(), configID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GroupHandler) GroupStandingsHandler(w http.ResponseWriter, r *http.Request) {
	groupID, err := getIDFromURL(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.preliminaryService.GroupStandings(r.Context(), groupID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GroupHandler) CommitFinalRanksHandler(w http.ResponseWriter, r *http.Request) {
	groupID, err := getIDFromURL(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.preliminaryService.CommitFinalRanks(r.Context(), groupID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
