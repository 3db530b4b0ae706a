package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/wishly/middleware"
	"github.com/Dosada05/wishly/services"
	"github.com/go-chi/chi/v5"
)

type InviteHandler struct {
	inviteService services.InviteService
}

func NewInviteHandler(is services.InviteService) *InviteHandler {
	return &InviteHandler{
		inviteService: is,
	}
}

type sendInviteRequest struct {
	Email string `json:"email"`
}

// SendInvite godoc
// @Summary  Invite someone to an occasion by e-mail
// @Tags     invites
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    occasionID path string true "occasion id"
// @Param    input body sendInviteRequest true "invitee"
// @Success  201 {object} map[string]interface{}
// @Failure  409 {object} map[string]string
// @Router   /occasions/{occasionID}/invites [post]
func (h *InviteHandler) SendInvite(w http.ResponseWriter, r *http.Request) {
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

	var input sendInviteRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Email == "" {
		badRequestResponse(w, r, errors.New("email is required"))
		return
	}

	invite, err := h.inviteService.SendInvite(r.Context(), occasionID, currentUserID, input.Email)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"invite": invite}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListOccasionInvites godoc
// @Summary  Invites sent for an occasion
// @Tags     invites
// @Produce  json
// @Security BearerAuth
// @Param    occasionID path string true "occasion id"
// @Success  200 {object} map[string]interface{}
// @Router   /occasions/{occasionID}/invites [get]
func (h *InviteHandler) ListOccasionInvites(w http.ResponseWriter, r *http.Request) {
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

	invites, err := h.inviteService.ListOccasionInvites(r.Context(), occasionID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"invites": invites}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListMyInvites godoc
// @Summary  My pending invites
// @Tags     invites
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} map[string]interface{}
// @Router   /invites [get]
func (h *InviteHandler) ListMyInvites(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	invites, err := h.inviteService.ListMyInvites(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"invites": invites}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetInviteByToken godoc
// @Summary  Preview an invite link
// @Tags     invites
// @Produce  json
// @Security BearerAuth
// @Param    token path string true "invite token"
// @Success  200 {object} map[string]interface{}
// @Failure  410 {object} map[string]string
// @Router   /invites/token/{token} [get]
func (h *InviteHandler) GetInviteByToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		badRequestResponse(w, r, errors.New("missing invite token in URL path"))
		return
	}

	invite, err := h.inviteService.GetInviteByToken(r.Context(), token)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"invite": invite}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AcceptInviteByToken godoc
// @Summary  Join an occasion through an invite link
// @Tags     invites
// @Produce  json
// @Security BearerAuth
// @Param    token path string true "invite token"
// @Success  200 {object} map[string]interface{}
// @Router   /invites/token/{token}/accept [post]
func (h *InviteHandler) AcceptInviteByToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		badRequestResponse(w, r, errors.New("missing invite token in URL path"))
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to accept an invite")
		return
	}

	occasion, err := h.inviteService.AcceptInviteByToken(r.Context(), token, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"message":  "Successfully joined occasion",
		"occasion": occasion,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AcceptInvite godoc
// @Summary  Accept an invite addressed to me
// @Tags     invites
// @Produce  json
// @Security BearerAuth
// @Param    inviteID path string true "invite id"
// @Success  200 {object} map[string]interface{}
// @Router   /invites/{inviteID}/accept [post]
func (h *InviteHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	inviteID, err := getIDFromURL(r, "inviteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to accept an invite")
		return
	}

	occasion, err := h.inviteService.AcceptInvite(r.Context(), inviteID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"message":  "Successfully joined occasion",
		"occasion": occasion,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeclineInvite godoc
// @Summary  Decline an invite addressed to me
// @Tags     invites
// @Security BearerAuth
// @Param    inviteID path string true "invite id"
// @Success  204
// @Router   /invites/{inviteID}/decline [post]
func (h *InviteHandler) DeclineInvite(w http.ResponseWriter, r *http.Request) {
	inviteID, err := getIDFromURL(r, "inviteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.inviteService.DeclineInvite(r.Context(), inviteID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
