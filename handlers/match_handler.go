package handlers

import (
	"net/http"

	"github.com/Dosada05/wishly/middleware"
	"github.com/Dosada05/wishly/services"
)

type MatchHandler struct {
	matchingService services.MatchingService
}

func NewMatchHandler(ms services.MatchingService) *MatchHandler {
	return &MatchHandler{matchingService: ms}
}

// MatchOccasion godoc
// @Summary      Draw Secret Santa pairs (creator only)
// @Description  Pairs are stored but never returned; each member reads only their own receiver.
// @Tags         matching
// @Produce      json
// @Security     BearerAuth
// @Param        occasionID path string true "occasion id"
// @Success      200 {object} models.MatchResult
// @Failure      409 {object} map[string]string
// @Failure      422 {object} map[string]string
// @Router       /occasions/{occasionID}/match [post]
func (h *MatchHandler) MatchOccasion(w http.ResponseWriter, r *http.Request) {
	occasionID, err := getIDFromURL(r, "occasionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	result, err := h.matchingService.MatchOccasion(r.Context(), occasionID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ResetMatch godoc
// @Summary  Discard the draw so it can be run again (creator only)
// @Tags     matching
// @Security BearerAuth
// @Param    occasionID path string true "occasion id"
// @Success  204
// @Router   /occasions/{occasionID}/match [delete]
func (h *MatchHandler) ResetMatch(w http.ResponseWriter, r *http.Request) {
	occasionID, err := getIDFromURL(r, "occasionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.matchingService.ResetMatch(r.Context(), occasionID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetMyAssignment godoc
// @Summary  Who I am buying for
// @Tags     matching
// @Produce  json
// @Security BearerAuth
// @Param    occasionID path string true "occasion id"
// @Success  200 {object} models.MyAssignment
// @Failure  409 {object} map[string]string
// @Router   /occasions/{occasionID}/assignment [get]
func (h *MatchHandler) GetMyAssignment(w http.ResponseWriter, r *http.Request) {
	occasionID, err := getIDFromURL(r, "occasionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	assignment, err := h.matchingService.GetMyAssignment(r.Context(), occasionID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"assignment": assignment}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
