package services

import (
	"context"
	"database/sql"
	"time"

	"airside-bknd/internal/models"
	"airside-bknd/internal/pipeline"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// PipelineProcessor is the collaborator that turns an evidence bundle
// into structured detections.
type PipelineProcessor interface {
	Process(ctx context.Context, segmentID, vehicleID int64, video, gpx, imu pipeline.FilePart) (*models.PipelineResult, error)
}

// UploadBundle is one validated upload: three evidence files plus the
// target segment and reporting vehicle.
type UploadBundle struct {
	SegmentID int64
	VehicleID int64
	Video     pipeline.FilePart
	GPX       pipeline.FilePart
	IMU       pipeline.FilePart
}

// UploadDefectSummary is the per-defect slice of the upload response.
type UploadDefectSummary struct {
	ID          int64              `json:"id"`
	Type        string             `json:"type"`
	Severity    string             `json:"severity"`
	Coordinates models.Coordinates `json:"coordinates"`
}

// UploadIRISummary reports the stored IRI measurement of an upload.
type UploadIRISummary struct {
	ID    int64   `json:"id"`
	Value float64 `json:"value"`
}

// UploadSummary is the data section of a successful upload response.
type UploadSummary struct {
	UploadID       string                `json:"upload_id"`
	DefectsCreated int                   `json:"defects_created"`
	Defects        []UploadDefectSummary `json:"defects"`
	IRIMeasurement UploadIRISummary      `json:"iri_measurement"`
	ProcessingInfo models.ProcessingInfo `json:"processing_info"`
}

// IngestService runs the upload ingestion: pipeline call, contract
// validation, then one all-or-nothing database transaction.
type IngestService struct {
	db       *bun.DB
	pipeline PipelineProcessor
	logr     *zap.Logger
}

// NewIngestService creates a new ingest service.
func NewIngestService(db *bun.DB, p PipelineProcessor, logr *zap.Logger) *IngestService {
	return &IngestService{db: db, pipeline: p, logr: logr}
}

// Ingest forwards the bundle to the detection pipeline and persists
// its output atomically: all detected defects, exactly one IRI
// measurement, the segment roughness refresh, and exactly one
// coverage log. Any persistence failure rolls the whole run back.
//
// A retried upload after a failure re-invokes detection and may
// produce duplicate defects; no deduplication is performed.
func (s *IngestService) Ingest(ctx context.Context, bundle UploadBundle) (*UploadSummary, error) {
	uploadID := uuid.New().String()

	s.logr.Info("forwarding upload to pipeline",
		zap.String("upload_id", uploadID),
		zap.Int64("segment_id", bundle.SegmentID),
		zap.Int64("vehicle_id", bundle.VehicleID),
		zap.Int("video_bytes", len(bundle.Video.Data)))

	result, err := s.pipeline.Process(ctx, bundle.SegmentID, bundle.VehicleID, bundle.Video, bundle.GPX, bundle.IMU)
	if err != nil {
		return nil, err
	}

	// Reject malformed payloads before any transaction is opened.
	if err := result.Validate(); err != nil {
		return nil, err
	}

	summary := &UploadSummary{
		UploadID:       uploadID,
		Defects:        make([]UploadDefectSummary, 0, len(result.Defects)),
		ProcessingInfo: result.ProcessingInfo,
	}

	err = s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, pd := range result.Defects {
			defect, err := insertDetectedDefect(ctx, tx, pd)
			if err != nil {
				return err
			}
			summary.Defects = append(summary.Defects, UploadDefectSummary{
				ID:       defect.ID,
				Type:     defect.Type,
				Severity: defect.Severity,
				Coordinates: models.Coordinates{
					Lat: pd.CoordinatesLat,
					Lng: pd.CoordinatesLng,
				},
			})
		}

		rm := result.IRIMeasurement
		measurement := &models.IRIMeasurement{
			SegmentID:  rm.SegmentID,
			IRIValue:   rm.IRIValue,
			VehicleID:  positiveID(rm.VehicleID),
			MeasuredAt: rm.MeasuredAt.TimePtr(),
		}
		if _, err := tx.NewInsert().Model(measurement).Exec(ctx); err != nil {
			return err
		}
		summary.IRIMeasurement = UploadIRISummary{ID: measurement.ID, Value: rm.IRIValue}

		lastInspected := time.Now()
		if t := rm.MeasuredAt.TimePtr(); t != nil {
			lastInspected = *t
		}
		if _, err := tx.NewUpdate().
			Model((*models.RoadSegment)(nil)).
			Set("iri = ?", rm.IRIValue).
			Set("last_inspected = ?", lastInspected).
			Set("is_critical = ?", rm.IRIValue >= models.CriticalIRIThreshold).
			Set("frequency_count = COALESCE(frequency_count, 0) + 1").
			Where("id = ?", rm.SegmentID).
			Exec(ctx); err != nil {
			return err
		}

		cl := result.CoverageLog
		coverage := &models.CoverageLog{
			VehicleID:      positiveID(cl.VehicleID),
			SegmentID:      cl.SegmentID,
			CoveredAt:      cl.CoveredAt.TimePtr(),
			SweepFrequency: cl.SweepFrequency,
		}
		if _, err := tx.NewInsert().Model(coverage).Exec(ctx); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		s.logr.Error("ingestion transaction rolled back",
			zap.String("upload_id", uploadID),
			zap.Error(err))
		return nil, err
	}

	summary.DefectsCreated = len(summary.Defects)

	s.logr.Info("ingestion committed",
		zap.String("upload_id", uploadID),
		zap.Int("defects_created", summary.DefectsCreated),
		zap.Float64("iri_value", summary.IRIMeasurement.Value))

	return summary, nil
}

// insertDetectedDefect persists one pipeline detection and, when an
// embedded snapshot is present, its image record and primary image
// reference.
func insertDetectedDefect(ctx context.Context, tx bun.Tx, pd models.PipelineDefect) (*models.Defect, error) {
	priority := pd.Priority
	if priority == "" {
		priority = "normal"
	}

	lat, lng, size := pd.CoordinatesLat, pd.CoordinatesLng, pd.Size
	defect := &models.Defect{
		Type:           pd.Type,
		Severity:       pd.Severity,
		Status:         pd.Status,
		Priority:       priority,
		SegmentID:      positiveID(pd.SegmentID),
		VehicleID:      positiveID(pd.VehicleID),
		CoordinatesLat: &lat,
		CoordinatesLng: &lng,
		Size:           &size,
		DetectedAt:     pd.DetectedAt.TimePtr(),
	}

	if _, err := tx.NewInsert().Model(defect).Exec(ctx); err != nil {
		return nil, err
	}

	if pd.ImageBase64 != "" {
		// Stored as a data URI for now.
		imageURL := "data:image/jpeg;base64," + pd.ImageBase64
		image := &models.DefectImage{
			DefectID:  defect.ID,
			ImageURL:  imageURL,
			ImageType: "detected",
		}
		if _, err := tx.NewInsert().Model(image).Exec(ctx); err != nil {
			return nil, err
		}
		if _, err := tx.NewUpdate().
			Model((*models.Defect)(nil)).
			Set("image_url = ?", imageURL).
			Where("id = ?", defect.ID).
			Exec(ctx); err != nil {
			return nil, err
		}
	}

	return defect, nil
}

func positiveID(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}
