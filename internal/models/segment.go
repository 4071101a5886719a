package models

import (
	"time"

	"github.com/uptrace/bun"
)

// CriticalIRIThreshold marks a segment as critical when its roughness
// index reaches this value.
const CriticalIRIThreshold = 4.0

// RoadSegment is one inspectable stretch of the airside road network.
type RoadSegment struct {
	bun.BaseModel `bun:"table:road_segments,alias:rs"`

	ID             int64      `bun:"id,pk,autoincrement"`
	Name           string     `bun:"name,notnull"`
	Zone           string     `bun:"zone,notnull"`
	LengthKM       float64    `bun:"length_km"`
	Lanes          int        `bun:"lanes"`
	IRI            *float64   `bun:"iri"`
	LastInspected  *time.Time `bun:"last_inspected"`
	IsCritical     bool       `bun:"is_critical"`
	FrequencyCount int        `bun:"frequency_count"`

	// Aggregates computed per query, not stored columns.
	CoverageFrequency int64 `bun:"coverage_frequency,scanonly"`
	DefectCount       int64 `bun:"defect_count,scanonly"`

	Coordinates []*RoadSegmentCoordinate `bun:"rel:has-many,join:id=segment_id"`
}

// RoadSegmentCoordinate is one ordered polyline point of a segment's path.
type RoadSegmentCoordinate struct {
	bun.BaseModel `bun:"table:road_segment_coordinates,alias:rsc"`

	ID         int64   `bun:"id,pk,autoincrement"`
	SegmentID  int64   `bun:"segment_id,notnull"`
	Lat        float64 `bun:"lat,notnull"`
	Lng        float64 `bun:"lng,notnull"`
	OrderIndex int     `bun:"order_index"`
}

// SegmentResponse is the API shape of a road segment with its polyline
// and live aggregates.
type SegmentResponse struct {
	ID             int64         `json:"id"`
	Name           string        `json:"name"`
	Zone           string        `json:"zone"`
	Length         float64       `json:"length"`
	IRI            float64       `json:"iri"`
	LastInspected  *time.Time    `json:"lastInspected"`
	IsCritical     bool          `json:"isCritical"`
	FrequencyCount int64         `json:"frequencyCount"`
	DefectCount    int64         `json:"defectCount"`
	Lanes          int           `json:"lanes"`
	Coordinates    []Coordinates `json:"coordinates"`
}

// FormatSegment reshapes a segment row into its API response object.
func FormatSegment(s *RoadSegment) *SegmentResponse {
	resp := &SegmentResponse{
		ID:             s.ID,
		Name:           s.Name,
		Zone:           s.Zone,
		Length:         s.LengthKM,
		LastInspected:  s.LastInspected,
		IsCritical:     s.IsCritical,
		FrequencyCount: s.CoverageFrequency,
		DefectCount:    s.DefectCount,
		Lanes:          s.Lanes,
		Coordinates:    make([]Coordinates, 0, len(s.Coordinates)),
	}

	if s.IRI != nil {
		resp.IRI = *s.IRI
	}

	for _, c := range s.Coordinates {
		resp.Coordinates = append(resp.Coordinates, Coordinates{Lat: c.Lat, Lng: c.Lng})
	}

	return resp
}

// FormatSegments maps a segment slice into API response objects.
func FormatSegments(segments []*RoadSegment) []*SegmentResponse {
	out := make([]*SegmentResponse, 0, len(segments))
	for _, s := range segments {
		out = append(out, FormatSegment(s))
	}
	return out
}
