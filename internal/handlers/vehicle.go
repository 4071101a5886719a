package handlers

import (
	"net/http"

	"airside-bknd/internal/models"
	"airside-bknd/internal/services"

	"go.uber.org/zap"
)

// VehicleHandler handles HTTP requests for the inspection fleet.
type VehicleHandler struct {
	service *services.VehicleService
	logr    *zap.Logger
}

// NewVehicleHandler creates a new vehicle handler.
func NewVehicleHandler(svc *services.VehicleService, logr *zap.Logger) *VehicleHandler {
	return &VehicleHandler{service: svc, logr: logr}
}

// List handles GET /vehicles.
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.service.List(r.Context())
	if err != nil {
		h.logr.Error("failed to list vehicles", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	out := make([]*models.VehicleResponse, 0, len(vehicles))
	for _, v := range vehicles {
		out = append(out, models.FormatVehicle(v))
	}
	writeJSON(w, http.StatusOK, out)
}
