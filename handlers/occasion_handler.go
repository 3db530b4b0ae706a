package handlers

import (
	"net/http"

	"github.com/Dosada05/wishly/middleware"
	"github.com/Dosada05/wishly/services"
)

type OccasionHandler struct {
	occasionService services.OccasionService
}

func NewOccasionHandler(os services.OccasionService) *OccasionHandler {
	return &OccasionHandler{
		occasionService: os,
	}
}

// CreateOccasion godoc
// @Summary  Create an occasion
// @Tags     occasions
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    input body services.CreateOccasionInput true "occasion"
// @Success  201 {object} map[string]interface{}
// @Router   /occasions [post]
func (h *OccasionHandler) CreateOccasion(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.CreateOccasionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	occasion, err := h.occasionService.CreateOccasion(r.Context(), currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"occasion": occasion}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListMyOccasions godoc
// @Summary  Occasions I am a member of
// @Tags     occasions
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} map[string]interface{}
// @Router   /occasions [get]
func (h *OccasionHandler) ListMyOccasions(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	occasions, err := h.occasionService.ListMyOccasions(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"occasions": occasions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetOccasion godoc
// @Summary  Occasion details with members and my assignment
// @Tags     occasions
// @Produce  json
// @Security BearerAuth
// @Param    occasionID path string true "occasion id"
// @Success  200 {object} services.OccasionDetails
// @Failure  403 {object} map[string]string
// @Router   /occasions/{occasionID} [get]
func (h *OccasionHandler) GetOccasion(w http.ResponseWriter, r *http.Request) {
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

	details, err := h.occasionService.GetOccasionDetails(r.Context(), occasionID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, details, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateOccasion godoc
// @Summary  Update an occasion (creator only)
// @Tags     occasions
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    occasionID path string true "occasion id"
// @Param    input body services.UpdateOccasionInput true "fields to change"
// @Success  200 {object} map[string]interface{}
// @Router   /occasions/{occasionID} [put]
func (h *OccasionHandler) UpdateOccasion(w http.ResponseWriter, r *http.Request) {
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

	var input services.UpdateOccasionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	occasion, err := h.occasionService.UpdateOccasion(r.Context(), occasionID, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"occasion": occasion}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteOccasion godoc
// @Summary  Delete an occasion (creator only)
// @Tags     occasions
// @Security BearerAuth
// @Param    occasionID path string true "occasion id"
// @Success  204
// @Router   /occasions/{occasionID} [delete]
func (h *OccasionHandler) DeleteOccasion(w http.ResponseWriter, r *http.Request) {
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

	if err := h.occasionService.DeleteOccasion(r.Context(), occasionID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// LeaveOccasion godoc
// @Summary  Leave an occasion
// @Tags     occasions
// @Security BearerAuth
// @Param    occasionID path string true "occasion id"
// @Success  204
// @Router   /occasions/{occasionID}/members/me [delete]
func (h *OccasionHandler) LeaveOccasion(w http.ResponseWriter, r *http.Request) {
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

	if err := h.occasionService.LeaveOccasion(r.Context(), occasionID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveMember godoc
// @Summary  Remove a member (creator only)
// @Tags     occasions
// @Security BearerAuth
// @Param    occasionID path string true "occasion id"
// @Param    userID path string true "member id"
// @Success  204
// @Router   /occasions/{occasionID}/members/{userID} [delete]
func (h *OccasionHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	occasionID, err := getIDFromURL(r, "occasionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	memberID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.occasionService.RemoveMember(r.Context(), occasionID, currentUserID, memberID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
