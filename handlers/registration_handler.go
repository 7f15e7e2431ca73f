package handlers

import (
	"net/http"

	"github.com/urjafest/sportsfest-backend/middleware"
	"github.com/urjafest/sportsfest-backend/services"
)

type RegistrationHandler struct {
	registrationService services.RegistrationService
}

func NewRegistrationHandler(rs services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationService: rs}
}

// Register записывает текущего пользователя на вид спорта.
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	sportID, err := getIDFromURL(r, "sportID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	// Тело опционально: форма регистрации может досылать номер телефона.
	var input struct {
		Mobile string `json:"mobile"`
	}
	if r.ContentLength > 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	registration, err := h.registrationService.Register(r.Context(), currentUserID, sportID, input.Mobile)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"registration": registration}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListBySport - админский список зарегистрированных на вид спорта.
func (h *RegistrationHandler) ListBySport(w http.ResponseWriter, r *http.Request) {
	sportID, err := getIDFromURL(r, "sportID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	registrations, err := h.registrationService.ListBySport(r.Context(), sportID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"registrations": registrations}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
