package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"airside-bknd/internal/config"
	"airside-bknd/internal/models"
	"airside-bknd/internal/pipeline"
	"airside-bknd/internal/services"

	"go.uber.org/zap"
)

// PipelineHandler handles the ingestion upload and the pipeline
// status probe.
type PipelineHandler struct {
	ingest *services.IngestService
	client *pipeline.Client
	cfg    *config.Config
	logr   *zap.Logger
}

// NewPipelineHandler creates a new pipeline handler.
func NewPipelineHandler(ingest *services.IngestService, client *pipeline.Client, cfg *config.Config, logr *zap.Logger) *PipelineHandler {
	return &PipelineHandler{ingest: ingest, client: client, cfg: cfg, logr: logr}
}

// Upload handles POST /pipeline/upload: one video, one GPS track, one
// IMU CSV, plus segment_id and optional vehicle_id. Validation errors
// answer before anything is forwarded or written.
func (h *PipelineHandler) Upload(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.cfg.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		h.logr.Warn("failed to parse multipart upload", zap.Error(err))
		writeError(w, http.StatusBadRequest, "Invalid multipart upload")
		return
	}

	video, videoErr := readFilePart(r, "video")
	gpx, gpxErr := readFilePart(r, "gpx")
	imu, imuErr := readFilePart(r, "imu")
	if videoErr != nil || gpxErr != nil || imuErr != nil {
		writeError(w, http.StatusBadRequest,
			"Missing required files: video, gpx, and imu are required")
		return
	}

	segmentIDStr := r.FormValue("segment_id")
	if segmentIDStr == "" {
		writeError(w, http.StatusBadRequest, "segment_id is required")
		return
	}
	segmentID, err := strconv.ParseInt(segmentIDStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "segment_id must be a number")
		return
	}

	vehicleID := h.cfg.DefaultVehicleID
	if v := r.FormValue("vehicle_id"); v != "" {
		vehicleID, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "vehicle_id must be a number")
			return
		}
	}

	summary, err := h.ingest.Ingest(r.Context(), services.UploadBundle{
		SegmentID: segmentID,
		VehicleID: vehicleID,
		Video:     video,
		GPX:       gpx,
		IMU:       imu,
	})
	if err != nil {
		h.respondIngestError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Processing complete",
		"data":    summary,
	})
}

// Status handles GET /pipeline/status. It always answers 200; an
// unreachable pipeline reports as disconnected rather than an error.
func (h *PipelineHandler) Status(w http.ResponseWriter, r *http.Request) {
	health, err := h.client.Health(r.Context())
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "disconnected",
			"error":  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "connected",
		"pipeline": health,
	})
}

// respondIngestError maps the three ingestion failure classes to HTTP
// answers: collaborator failures carry the pipeline's own status and
// body, contract violations answer 502, everything else is a generic
// server error.
func (h *PipelineHandler) respondIngestError(w http.ResponseWriter, err error) {
	var pipeErr *pipeline.Error
	if errors.As(err, &pipeErr) {
		h.logr.Error("pipeline processing failed",
			zap.Int("pipeline_status", pipeErr.StatusCode),
			zap.String("body", pipeErr.Body))
		writeError(w, pipeErr.StatusCode, "Pipeline processing failed: "+pipeErr.Body)
		return
	}

	var contractErr *models.ContractError
	if errors.As(err, &contractErr) {
		h.logr.Error("pipeline response violated contract", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.logr.Error("upload ingestion failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "Failed to process upload: "+err.Error())
}

func readFilePart(r *http.Request, name string) (pipeline.FilePart, error) {
	file, header, err := r.FormFile(name)
	if err != nil {
		return pipeline.FilePart{}, err
	}
	defer func(file multipart.File) {
		_ = file.Close()
	}(file)

	data, err := io.ReadAll(file)
	if err != nil {
		return pipeline.FilePart{}, err
	}

	return pipeline.FilePart{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
