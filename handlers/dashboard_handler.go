package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/urjafest/sportsfest-backend/services"
)

type DashboardHandler struct {
	dashboardService services.DashboardService
	exportService    services.ExportService
}

func NewDashboardHandler(ds services.DashboardService, es services.ExportService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: ds,
		exportService:    es,
	}
}

func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.GetStats(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"stats": stats}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ExportRegistrations отдаёт книгу xlsx с регистрациями по видам спорта.
func (h *DashboardHandler) ExportRegistrations(w http.ResponseWriter, r *http.Request) {
	workbook, err := h.exportService.ExportRegistrations(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	filename := fmt.Sprintf("registrations-%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(workbook); err != nil {
		fmt.Printf("Error writing xlsx response: %v\n", err)
	}
}
