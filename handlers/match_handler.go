package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/urjafest/sportsfest-backend/models"
	"github.com/urjafest/sportsfest-backend/services"
)

var (
	errInvalidSportIDFilter = errors.New("sport_id filter must be a positive integer")
	errInvalidStatusFilter  = errors.New("status filter must be one of: upcoming, live, completed")
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

func (h *MatchHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var input services.CreateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.CreateMatch(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"match": match}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) GetMatchByID(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetMatchByID(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"match": match}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListMatches поддерживает фильтры ?sport_id= и ?status=.
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	var sportID *int
	if raw := r.URL.Query().Get("sport_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			badRequestResponse(w, r, errInvalidSportIDFilter)
			return
		}
		sportID = &id
	}

	var status *models.MatchStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.MatchStatus(raw)
		switch s {
		case models.MatchStatusUpcoming, models.MatchStatusLive, models.MatchStatusCompleted:
			status = &s
		default:
			badRequestResponse(w, r, errInvalidStatusFilter)
			return
		}
	}

	matches, err := h.matchService.ListMatches(r.Context(), sportID, status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"matches": matches}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) UpdateScore(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		HomeScore string `json:"home_score"`
		AwayScore string `json:"away_score"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.UpdateScore(r.Context(), matchID, input.HomeScore, input.AwayScore)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"match": match}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
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

	match, err := h.matchService.UpdateStatus(r.Context(), matchID, models.MatchStatus(input.Status))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"match": match}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.matchService.DeleteMatch(r.Context(), matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
