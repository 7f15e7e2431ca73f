package handlers

import (
	"net/http"

	"github.com/urjafest/sportsfest-backend/models"
	"github.com/urjafest/sportsfest-backend/services"
)

type LeaderboardHandler struct {
	leaderboardService services.LeaderboardService
}

func NewLeaderboardHandler(ls services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: ls}
}

func (h *LeaderboardHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.leaderboardService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"leaderboard": entries}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AwardMedal - админ присуждает медаль классу.
func (h *LeaderboardHandler) AwardMedal(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ClassName string `json:"class_name"`
		Medal     string `json:"medal"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entry, err := h.leaderboardService.AwardMedal(r.Context(), input.ClassName, models.Medal(input.Medal))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"entry": entry}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
