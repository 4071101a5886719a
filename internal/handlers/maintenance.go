package handlers

import (
	"net/http"

	"airside-bknd/internal/services"

	"go.uber.org/zap"
)

// MaintenanceHandler handles HTTP requests for maintenance teams.
type MaintenanceHandler struct {
	service *services.MaintenanceService
	logr    *zap.Logger
}

// NewMaintenanceHandler creates a new maintenance handler.
func NewMaintenanceHandler(svc *services.MaintenanceService, logr *zap.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{service: svc, logr: logr}
}

// Teams handles GET /maintenance/teams.
func (h *MaintenanceHandler) Teams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.service.ListTeams(r.Context())
	if err != nil {
		h.logr.Error("failed to list maintenance teams", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, teams)
}
