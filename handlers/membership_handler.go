package handlers

import (
	"net/http"

	"github.com/urjafest/sportsfest-backend/middleware"
	"github.com/urjafest/sportsfest-backend/services"
)

type MembershipHandler struct {
	membershipService services.MembershipService
}

func NewMembershipHandler(ms services.MembershipService) *MembershipHandler {
	return &MembershipHandler{membershipService: ms}
}

// RequestJoin - игрок просится в открытую команду.
func (h *MembershipHandler) RequestJoin(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	member, err := h.membershipService.RequestJoin(r.Context(), teamID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"membership": member}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListRequests - капитан смотрит pending-заявки своей команды.
func (h *MembershipHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	requests, err := h.membershipService.ListTeamRequests(r.Context(), teamID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"requests": requests}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Decide - капитан принимает или отклоняет заявку.
func (h *MembershipHandler) Decide(w http.ResponseWriter, r *http.Request) {
	membershipID, err := getIDFromURL(r, "membershipID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input struct {
		Accept bool `json:"accept"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	member, err := h.membershipService.Decide(r.Context(), membershipID, currentUserID, input.Accept)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"membership": member}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RemoveMember - капитан убирает игрока из открытой команды.
func (h *MembershipHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	membershipID, err := getIDFromURL(r, "membershipID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.membershipService.RemoveMember(r.Context(), membershipID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Leave - игрок отзывает заявку или выходит из команды.
func (h *MembershipHandler) Leave(w http.ResponseWriter, r *http.Request) {
	membershipID, err := getIDFromURL(r, "membershipID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.membershipService.Leave(r.Context(), membershipID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
