package handlers

import (
	"net/http"

	"github.com/jeonghakhur/tennis-tab-sub000/services"
)

type BracketHandler struct {
	seedingService services.SeedingService
	bracketService services.BracketService
}

func NewBracketHandler(seedingService services.SeedingService, bracketService services.BracketService) *BracketHandler {
	return &BracketHandler{seedingService: seedingService, bracketService: bracketService}
}

// GetOrCreateConfigHandler godoc
// @Summary Get or lazily create a division's bracket config
// @Tags brackets
// @Param divisionID path int true "Division ID"
// @Success 200 {object} models.BracketConfig
// @Router /divisions/{divisionID}/bracket-config [post]
func (h *BracketHandler) GetOrCreateConfigHandler(w http.ResponseWriter, r *http.Request) {
	divisionID, err := getIDFromURL(r, "divisionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var opts services.ConfigOptions
	if r.ContentLength > 0 {
		if err := readJSON(w, r, &opts); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	config, err := h.seedingService.GetOrCreateConfig(r.Context(), divisionID, opts)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"config": config}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) UpdateOptionsHandler(w http.ResponseWriter, r *http.Request) {
	configID, err := getIDFromURL(r, "configID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var opts services.ConfigOptions
	if err := readJSON(w, r, &opts); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	config, err := h.seedingService.UpdateOptions(r.Context(), configID, opts)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"config": config}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetDivisionBracketHandler returns the full client view: config, groups
// with seated entries, and display-ready matches.
func (h *BracketHandler) GetDivisionBracketHandler(w http.ResponseWriter, r *http.Request) {
	divisionID, err := getIDFromURL(r, "divisionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	config, err := h.bracketService.GetDivisionBracket(r.Context(), divisionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": config}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) PreviewSeedOrderHandler(w http.ResponseWriter, r *http.Request) {
	divisionID, err := getIDFromURL(r, "divisionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	pairs, err := h.seedingService.PreviewSeedOrder(r.Context(), divisionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"slots": pairs}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type generateBracketRequest struct {
	// SeedOrder is either a ranked list to fold server-side or, when
	// Positional is set, a bracket-size layout whose nil entries are open
	// slots.
	SeedOrder  []*int `json:"seed_order"`
	Positional bool   `json:"positional,omitempty"`
}

func (h *BracketHandler) GenerateMainBracketHandler(w http.ResponseWriter, r *http.Request) {
	configID, err := getIDFromURL(r, "configID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var req generateBracketRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.bracketService.GenerateMainBracket(r.Context(), configID, req.SeedOrder, req.Positional)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type generateRoundRequest struct {
	SeedOrder []int `json:"seed_order,omitempty"`
}

func (h *BracketHandler) GenerateNextRoundHandler(w http.ResponseWriter, r *http.Request) {
	configID, err := getIDFromURL(r, "configID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var req generateRoundRequest
	if r.ContentLength > 0 {
		if err := readJSON(w, r, &req); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	matches, err := h.bracketService.GenerateNextRound(r.Context(), configID, req.SeedOrder)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) DeleteRoundHandler(w http.ResponseWriter, r *http.Request) {
	configID, err := getIDFromURL(r, "configID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	round, err := getIDFromURL(r, "round")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.bracketService.DeleteRound(r.Context(), configID, round); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BracketHandler) DeleteMainBracketHandler(w http.ResponseWriter, r *http.Request) {
	configID, err := getIDFromURL(r, "configID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.bracketService.DeleteMainBracket(r.Context(), configID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BracketHandler) DeleteConfigHandler(w http.ResponseWriter, r *http.Request) {
	configID, err := getIDFromURL(r, "configID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.bracketService.DeleteConfig(r.Context(), configID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
