package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"airside-bknd/internal/models"
	"airside-bknd/internal/services"
	"airside-bknd/internal/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DefectHandler handles HTTP requests for defects.
type DefectHandler struct {
	service *services.DefectService
	logr    *zap.Logger
}

// NewDefectHandler creates a new defect handler.
func NewDefectHandler(svc *services.DefectService, logr *zap.Logger) *DefectHandler {
	return &DefectHandler{service: svc, logr: logr}
}

// UpdateStatusRequest is the body of PATCH /defects/{id}/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// AssignTeamRequest is the body of PATCH /defects/{id}/assign.
type AssignTeamRequest struct {
	TeamID   *int64  `json:"teamId"`
	Priority *string `json:"priority"`
}

// List handles GET /defects with optional status/severity filters.
func (h *DefectHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := models.DefectFilter{
		Statuses:   utils.ParseQueryList(r.URL.Query(), "status"),
		Severities: utils.ParseQueryList(r.URL.Query(), "severity"),
	}

	defects, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logr.Error("failed to list defects", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, models.FormatDefects(defects))
}

// Unassigned handles GET /defects/unassigned.
func (h *DefectHandler) Unassigned(w http.ResponseWriter, r *http.Request) {
	defects, err := h.service.Unassigned(r.Context())
	if err != nil {
		h.logr.Error("failed to list unassigned defects", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, models.FormatDefects(defects))
}

// Urgent handles GET /defects/urgent.
func (h *DefectHandler) Urgent(w http.ResponseWriter, r *http.Request) {
	defects, err := h.service.Urgent(r.Context())
	if err != nil {
		h.logr.Error("failed to list urgent defects", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, models.FormatDefects(defects))
}

// Active handles GET /defects/active.
func (h *DefectHandler) Active(w http.ResponseWriter, r *http.Request) {
	defects, err := h.service.Active(r.Context())
	if err != nil {
		h.logr.Error("failed to list active defects", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, models.FormatDefects(defects))
}

// GetByID handles GET /defects/{id}. A missing defect answers with a
// JSON null body, matching what the dashboard expects.
func (h *DefectHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.defectID(w, r)
	if !ok {
		return
	}

	defect, err := h.service.GetByID(r.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	if err != nil {
		h.logr.Error("failed to fetch defect", zap.Error(err), zap.Int64("id", id))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, models.FormatDefect(defect))
}

// UpdateStatus handles PATCH /defects/{id}/status.
func (h *DefectHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.defectID(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logr.Error("failed to decode request body", zap.Error(err))
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !models.IsLifecycleStatus(req.Status) {
		h.logr.Warn("invalid status", zap.String("status", req.Status))
		writeError(w, http.StatusBadRequest,
			"Status must be one of: "+strings.Join(models.LifecycleStatuses, ", "))
		return
	}

	defect, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if errors.Is(err, services.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	if err != nil {
		h.logr.Error("failed to update defect status", zap.Error(err), zap.Int64("id", id))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.logr.Info("defect status updated",
		zap.Int64("id", id),
		zap.String("status", req.Status))

	writeJSON(w, http.StatusOK, models.FormatDefect(defect))
}

// AssignTeam handles PATCH /defects/{id}/assign.
func (h *DefectHandler) AssignTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := h.defectID(w, r)
	if !ok {
		return
	}

	var req AssignTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logr.Error("failed to decode request body", zap.Error(err))
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.TeamID == nil {
		h.logr.Warn("validation failed: teamId is required")
		writeError(w, http.StatusBadRequest, "teamId is required")
		return
	}

	defect, err := h.service.AssignTeam(r.Context(), id, *req.TeamID, req.Priority)
	if errors.Is(err, services.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	if err != nil {
		h.logr.Error("failed to assign maintenance team", zap.Error(err), zap.Int64("id", id))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.logr.Info("maintenance team assigned",
		zap.Int64("id", id),
		zap.Int64("team_id", *req.TeamID))

	writeJSON(w, http.StatusOK, models.FormatDefect(defect))
}

// Delete handles DELETE /defects/{id}/delete.
func (h *DefectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.defectID(w, r)
	if !ok {
		return
	}

	err := h.service.Delete(r.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Defect not found")
		return
	}
	if err != nil {
		h.logr.Error("failed to delete defect", zap.Error(err), zap.Int64("id", id))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.logr.Info("defect deleted", zap.Int64("id", id))

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Defect %d deleted", id),
	})
}

func (h *DefectHandler) defectID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.logr.Warn("invalid defect ID", zap.String("id", idStr))
		writeError(w, http.StatusBadRequest, "Invalid defect ID")
		return 0, false
	}
	return id, true
}
