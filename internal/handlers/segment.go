package handlers

import (
	"net/http"

	"airside-bknd/internal/models"
	"airside-bknd/internal/services"

	"go.uber.org/zap"
)

// SegmentHandler handles HTTP requests for road segments.
type SegmentHandler struct {
	service *services.SegmentService
	logr    *zap.Logger
}

// NewSegmentHandler creates a new segment handler.
func NewSegmentHandler(svc *services.SegmentService, logr *zap.Logger) *SegmentHandler {
	return &SegmentHandler{service: svc, logr: logr}
}

// List handles GET /segments.
func (h *SegmentHandler) List(w http.ResponseWriter, r *http.Request) {
	segments, err := h.service.List(r.Context())
	if err != nil {
		h.logr.Error("failed to list segments", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, models.FormatSegments(segments))
}

// Critical handles GET /segments/critical.
func (h *SegmentHandler) Critical(w http.ResponseWriter, r *http.Request) {
	segments, err := h.service.Critical(r.Context())
	if err != nil {
		h.logr.Error("failed to list critical segments", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, models.FormatSegments(segments))
}

// AverageIRI handles GET /segments/iri-average.
func (h *SegmentHandler) AverageIRI(w http.ResponseWriter, r *http.Request) {
	avg, err := h.service.AverageIRI(r.Context())
	if err != nil {
		h.logr.Error("failed to compute average IRI", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]float64{"average": avg})
}
