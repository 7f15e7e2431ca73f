package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/urjafest/sportsfest-backend/models"
	"github.com/urjafest/sportsfest-backend/services"
)

type SportHandler struct {
	sportService services.SportService
}

func NewSportHandler(ss services.SportService) *SportHandler {
	return &SportHandler{sportService: ss}
}

func (h *SportHandler) CreateSport(w http.ResponseWriter, r *http.Request) {
	var input services.CreateSportInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	sport, err := h.sportService.CreateSport(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"sport": sport}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SportHandler) GetSportByID(w http.ResponseWriter, r *http.Request) {
	sportID, err := getIDFromURL(r, "sportID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	sport, err := h.sportService.GetSportByID(r.Context(), sportID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"sport": sport}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SportHandler) ListSports(w http.ResponseWriter, r *http.Request) {
	onlyOpen := r.URL.Query().Get("status") == "open"

	sports, err := h.sportService.ListSports(r.Context(), onlyOpen)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"sports": sports}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SportHandler) UpdateSport(w http.ResponseWriter, r *http.Request) {
	sportID, err := getIDFromURL(r, "sportID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateSportInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	sport, err := h.sportService.UpdateSport(r.Context(), sportID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"sport": sport}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SportHandler) SetSportStatus(w http.ResponseWriter, r *http.Request) {
	sportID, err := getIDFromURL(r, "sportID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Status string `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.sportService.SetSportStatus(r.Context(), sportID, models.SportStatus(input.Status)); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"message": "sport status updated"}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SportHandler) UploadIcon(w http.ResponseWriter, r *http.Request) {
	sportID, err := getIDFromURL(r, "sportID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	err = r.ParseMultipartForm(32 << 20)
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("icon")
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to get icon file from form: %w", err))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		badRequestResponse(w, r, errors.New("content-type header is required for icon"))
		return
	}

	sport, err := h.sportService.UploadIcon(r.Context(), sportID, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"sport": sport}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SportHandler) DeleteSport(w http.ResponseWriter, r *http.Request) {
	sportID, err := getIDFromURL(r, "sportID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.sportService.DeleteSport(r.Context(), sportID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
