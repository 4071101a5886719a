package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"airside-bknd/internal/models"
	"airside-bknd/internal/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

func testBundle(segmentID, vehicleID int64) UploadBundle {
	return UploadBundle{
		SegmentID: segmentID,
		VehicleID: vehicleID,
		Video:     pipeline.FilePart{Filename: "run.mp4", ContentType: "video/mp4", Data: []byte("video-bytes")},
		GPX:       pipeline.FilePart{Filename: "run.gpx", Data: []byte("<gpx/>")},
		IMU:       pipeline.FilePart{Filename: "run.csv", Data: []byte("t,ax,ay,az\n")},
	}
}

// fakePipeline serves a canned /process response.
func fakePipeline(t *testing.T, status int, body any) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/process", r.URL.Path)
		w.WriteHeader(status)
		switch v := body.(type) {
		case string:
			_, _ = w.Write([]byte(v))
		default:
			_ = json.NewEncoder(w).Encode(v)
		}
	}))
}

func pipelineResponse(segmentID, vehicleID int64, defects ...map[string]any) map[string]any {
	return map[string]any{
		"defects": defects,
		"iri_measurement": map[string]any{
			"segment_id":  segmentID,
			"iri_value":   4.5,
			"vehicle_id":  vehicleID,
			"measured_at": "2026-08-30T09:15:00",
		},
		"coverage_log": map[string]any{
			"segment_id":      segmentID,
			"vehicle_id":      vehicleID,
			"covered_at":      "2026-08-30T09:15:00",
			"sweep_frequency": 1,
		},
		"processing_info": map[string]any{
			"total_frames":     1200,
			"processed_frames": 120,
			"original_fps":     30.0,
			"target_fps":       10.0,
			"detections_count": len(defects),
		},
	}
}

func pipelineDefect(segmentID, vehicleID int64, overrides map[string]any) map[string]any {
	d := map[string]any{
		"type":            "pothole",
		"severity":        "high",
		"status":          "for_checking",
		"priority":        "",
		"segment_id":      segmentID,
		"vehicle_id":      vehicleID,
		"coordinates_lat": 1.3521,
		"coordinates_lng": 103.9915,
		"size":            22.5,
		"detected_at":     "2026-08-30T09:14:32",
	}
	for k, v := range overrides {
		d[k] = v
	}
	return d
}

func newIngest(db *bun.DB, url string) *IngestService {
	return NewIngestService(db, pipeline.NewClient(url), zap.NewNop())
}

func TestIngestCommitsAllOrNothing(t *testing.T) {
	db := newTestDB(t)
	segID := seedSegment(t, db, "Taxiway Alpha", "Zone B", 3.0)
	vehID := seedVehicle(t, db, "Inspection Bus 1")

	resp := pipelineResponse(segID, vehID,
		pipelineDefect(segID, vehID, map[string]any{"image_base64": "aGVsbG8="}),
		pipelineDefect(segID, vehID, map[string]any{"type": "crack", "severity": "low", "priority": "low"}),
	)
	srv := fakePipeline(t, http.StatusOK, resp)
	defer srv.Close()

	summary, err := newIngest(db, srv.URL).Ingest(context.Background(), testBundle(segID, vehID))
	require.NoError(t, err)

	assert.Equal(t, 2, summary.DefectsCreated)
	require.Len(t, summary.Defects, 2)
	assert.Equal(t, "pothole", summary.Defects[0].Type)
	assert.Equal(t, "high", summary.Defects[0].Severity)
	assert.InDelta(t, 1.3521, summary.Defects[0].Coordinates.Lat, 1e-9)
	assert.NotZero(t, summary.IRIMeasurement.ID)
	assert.InDelta(t, 4.5, summary.IRIMeasurement.Value, 1e-9)
	assert.Equal(t, 1200, summary.ProcessingInfo.TotalFrames)
	assert.NotEmpty(t, summary.UploadID)

	// Exactly the pipeline's defects, one IRI row, one coverage row.
	assert.Equal(t, 2, countRows(t, db, (*models.Defect)(nil)))
	assert.Equal(t, 1, countRows(t, db, (*models.IRIMeasurement)(nil)))
	assert.Equal(t, 1, countRows(t, db, (*models.CoverageLog)(nil)))

	// Embedded snapshot stored as image record and primary reference.
	assert.Equal(t, 1, countRows(t, db, (*models.DefectImage)(nil)))
	var withImage models.Defect
	require.NoError(t, db.NewSelect().Model(&withImage).
		Where("id = ?", summary.Defects[0].ID).Scan(context.Background()))
	require.NotNil(t, withImage.ImageURL)
	assert.Equal(t, "data:image/jpeg;base64,aGVsbG8=", *withImage.ImageURL)
	assert.Equal(t, "normal", withImage.Priority) // defaulted when absent

	// Segment refreshed: iri, critical flag, inspection time, +1 sweep.
	var seg models.RoadSegment
	require.NoError(t, db.NewSelect().Model(&seg).Where("id = ?", segID).Scan(context.Background()))
	require.NotNil(t, seg.IRI)
	assert.InDelta(t, 4.5, *seg.IRI, 1e-9)
	assert.True(t, seg.IsCritical)
	assert.NotNil(t, seg.LastInspected)
	assert.Equal(t, 1, seg.FrequencyCount)
}

func TestIngestPipelineFailureWritesNothing(t *testing.T) {
	db := newTestDB(t)
	segID := seedSegment(t, db, "Apron 1", "Zone C", 2.5)
	vehID := seedVehicle(t, db, "Inspection Bus 2")

	srv := fakePipeline(t, http.StatusInternalServerError, "detector crashed")
	defer srv.Close()

	_, err := newIngest(db, srv.URL).Ingest(context.Background(), testBundle(segID, vehID))
	require.Error(t, err)

	var pipeErr *pipeline.Error
	require.ErrorAs(t, err, &pipeErr)
	assert.Equal(t, http.StatusInternalServerError, pipeErr.StatusCode)
	assert.Equal(t, "detector crashed", pipeErr.Body)

	assert.Zero(t, countRows(t, db, (*models.Defect)(nil)))
	assert.Zero(t, countRows(t, db, (*models.IRIMeasurement)(nil)))
	assert.Zero(t, countRows(t, db, (*models.CoverageLog)(nil)))
}

func TestIngestRejectsMalformedContract(t *testing.T) {
	db := newTestDB(t)
	segID := seedSegment(t, db, "Service Road A", "Zone D", 2.8)
	vehID := seedVehicle(t, db, "Inspection Bus 3")

	// No iri_measurement: rejected before any transaction is opened.
	resp := pipelineResponse(segID, vehID)
	delete(resp, "iri_measurement")
	srv := fakePipeline(t, http.StatusOK, resp)
	defer srv.Close()

	_, err := newIngest(db, srv.URL).Ingest(context.Background(), testBundle(segID, vehID))
	require.Error(t, err)

	var contractErr *models.ContractError
	require.ErrorAs(t, err, &contractErr)

	assert.Zero(t, countRows(t, db, (*models.Defect)(nil)))
	assert.Zero(t, countRows(t, db, (*models.IRIMeasurement)(nil)))
	assert.Zero(t, countRows(t, db, (*models.CoverageLog)(nil)))
}

func TestIngestRollsBackOnMidTransactionFailure(t *testing.T) {
	db := newTestDB(t)
	segID := seedSegment(t, db, "Perimeter Road North", "Zone E", 3.2)
	vehID := seedVehicle(t, db, "Inspection Bus 4")

	// Five defects; the third references a segment that does not
	// exist, so its insert violates the foreign key.
	defects := make([]map[string]any, 0, 5)
	for i := 0; i < 5; i++ {
		target := segID
		if i == 2 {
			target = 99999
		}
		defects = append(defects, pipelineDefect(target, vehID, map[string]any{
			"type": fmt.Sprintf("pothole-%d", i),
		}))
	}
	srv := fakePipeline(t, http.StatusOK, pipelineResponse(segID, vehID, defects...))
	defer srv.Close()

	_, err := newIngest(db, srv.URL).Ingest(context.Background(), testBundle(segID, vehID))
	require.Error(t, err)

	// Zero of the five defects persisted, and no telemetry either.
	assert.Zero(t, countRows(t, db, (*models.Defect)(nil)))
	assert.Zero(t, countRows(t, db, (*models.IRIMeasurement)(nil)))
	assert.Zero(t, countRows(t, db, (*models.CoverageLog)(nil)))

	var seg models.RoadSegment
	require.NoError(t, db.NewSelect().Model(&seg).Where("id = ?", segID).Scan(context.Background()))
	assert.Zero(t, seg.FrequencyCount)
}
