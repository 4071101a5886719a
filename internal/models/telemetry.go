package models

import (
	"time"

	"github.com/uptrace/bun"
)

// IRIMeasurement records one roughness reading for a segment, produced
// by one ingestion run.
type IRIMeasurement struct {
	bun.BaseModel `bun:"table:iri_measurements,alias:im"`

	ID         int64      `bun:"id,pk,autoincrement"`
	SegmentID  int64      `bun:"segment_id,notnull"`
	IRIValue   float64    `bun:"iri_value,notnull"`
	VehicleID  *int64     `bun:"uploaded_by_vehicle_id"`
	MeasuredAt *time.Time `bun:"measured_at"`

	Segment *RoadSegment `bun:"rel:belongs-to,join:segment_id=id"`
}

// CoverageLog records which vehicle covered which segment and at what
// sweep frequency, one row per ingestion run.
type CoverageLog struct {
	bun.BaseModel `bun:"table:coverage_logs,alias:cl"`

	ID             int64      `bun:"id,pk,autoincrement"`
	VehicleID      *int64     `bun:"vehicle_id"`
	SegmentID      int64      `bun:"segment_id,notnull"`
	CoveredAt      *time.Time `bun:"covered_at"`
	SweepFrequency int        `bun:"sweep_frequency"`

	Segment *RoadSegment `bun:"rel:belongs-to,join:segment_id=id"`
}
