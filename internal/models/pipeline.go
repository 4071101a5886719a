package models

import (
	"fmt"
	"strings"
	"time"
)

// FlexTime accepts the pipeline's timestamp encodings: RFC3339 as well
// as naive ISO-8601 (datetime.isoformat() without a zone).
type FlexTime struct {
	time.Time
}

var flexTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func (t *FlexTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range flexTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// TimePtr returns the parsed time or nil when unset.
func (t *FlexTime) TimePtr() *time.Time {
	if t == nil || t.Time.IsZero() {
		return nil
	}
	tt := t.Time
	return &tt
}

// PipelineDefect is one detection reported by the pipeline service.
type PipelineDefect struct {
	Type           string    `json:"type"`
	Severity       string    `json:"severity"`
	Status         string    `json:"status"`
	Priority       string    `json:"priority"`
	SegmentID      int64     `json:"segment_id"`
	VehicleID      int64     `json:"vehicle_id"`
	CoordinatesLat float64   `json:"coordinates_lat"`
	CoordinatesLng float64   `json:"coordinates_lng"`
	Size           float64   `json:"size"`
	DetectedAt     *FlexTime `json:"detected_at"`
	ImageBase64    string    `json:"image_base64"`
}

// PipelineIRIMeasurement is the single roughness reading of a run.
type PipelineIRIMeasurement struct {
	SegmentID  int64     `json:"segment_id"`
	IRIValue   float64   `json:"iri_value"`
	VehicleID  int64     `json:"vehicle_id"`
	MeasuredAt *FlexTime `json:"measured_at"`
}

// PipelineCoverageLog is the single coverage entry of a run.
type PipelineCoverageLog struct {
	SegmentID      int64     `json:"segment_id"`
	VehicleID      int64     `json:"vehicle_id"`
	CoveredAt      *FlexTime `json:"covered_at"`
	SweepFrequency int       `json:"sweep_frequency"`
}

// ProcessingInfo is pipeline-reported processing metadata, passed
// through to the caller untouched.
type ProcessingInfo struct {
	TotalFrames     int     `json:"total_frames"`
	ProcessedFrames int     `json:"processed_frames"`
	OriginalFPS     float64 `json:"original_fps"`
	TargetFPS       float64 `json:"target_fps"`
	DetectionsCount int     `json:"detections_count"`
}

// PipelineResult is the response contract of the pipeline's /process
// endpoint. Validate rejects malformed payloads before any database
// transaction is opened.
type PipelineResult struct {
	Defects        []PipelineDefect        `json:"defects"`
	IRIMeasurement *PipelineIRIMeasurement `json:"iri_measurement"`
	CoverageLog    *PipelineCoverageLog    `json:"coverage_log"`
	ProcessingInfo ProcessingInfo          `json:"processing_info"`
}

// ContractError marks a pipeline response that deviates from the
// expected shape.
type ContractError struct {
	Reason string
}

func (e *ContractError) Error() string {
	return "invalid pipeline response: " + e.Reason
}

// Validate checks the structural requirements of the contract: every
// defect carries classification and placement, and exactly one IRI
// measurement and one coverage log are present.
func (r *PipelineResult) Validate() error {
	for i, d := range r.Defects {
		switch {
		case d.Type == "":
			return &ContractError{Reason: fmt.Sprintf("defects[%d]: type is required", i)}
		case d.Severity == "":
			return &ContractError{Reason: fmt.Sprintf("defects[%d]: severity is required", i)}
		case d.Status == "":
			return &ContractError{Reason: fmt.Sprintf("defects[%d]: status is required", i)}
		case d.SegmentID <= 0:
			return &ContractError{Reason: fmt.Sprintf("defects[%d]: segment_id is required", i)}
		}
	}

	if r.IRIMeasurement == nil {
		return &ContractError{Reason: "iri_measurement is required"}
	}
	if r.IRIMeasurement.SegmentID <= 0 {
		return &ContractError{Reason: "iri_measurement.segment_id is required"}
	}

	if r.CoverageLog == nil {
		return &ContractError{Reason: "coverage_log is required"}
	}
	if r.CoverageLog.SegmentID <= 0 {
		return &ContractError{Reason: "coverage_log.segment_id is required"}
	}

	return nil
}
