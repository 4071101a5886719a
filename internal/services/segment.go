package services

import (
	"context"

	"airside-bknd/internal/models"

	"github.com/uptrace/bun"
)

// SegmentService handles road segment reads.
type SegmentService struct {
	db *bun.DB
}

// NewSegmentService creates a new segment service.
func NewSegmentService(db *bun.DB) *SegmentService {
	return &SegmentService{db: db}
}

// selectWithAggregates selects segments with the ordered coordinate
// polyline, a live defect count, and the summed coverage-log sweep
// frequency.
func (s *SegmentService) selectWithAggregates(segments *[]*models.RoadSegment) *bun.SelectQuery {
	return s.db.NewSelect().
		Model(segments).
		ColumnExpr("rs.*").
		ColumnExpr("(SELECT COALESCE(SUM(cl.sweep_frequency), 0) FROM coverage_logs AS cl WHERE cl.segment_id = rs.id) AS coverage_frequency").
		ColumnExpr("(SELECT COUNT(*) FROM defects AS d WHERE d.segment_id = rs.id) AS defect_count").
		Relation("Coordinates", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("order_index ASC")
		})
}

// List returns all segments ordered by id.
func (s *SegmentService) List(ctx context.Context) ([]*models.RoadSegment, error) {
	var segments []*models.RoadSegment
	err := s.selectWithAggregates(&segments).
		Order("rs.id ASC").
		Scan(ctx)
	return segments, err
}

// Critical returns segments at or above the roughness threshold,
// roughest first.
func (s *SegmentService) Critical(ctx context.Context) ([]*models.RoadSegment, error) {
	var segments []*models.RoadSegment
	err := s.selectWithAggregates(&segments).
		Where("rs.iri >= ?", models.CriticalIRIThreshold).
		Order("rs.iri DESC").
		Scan(ctx)
	return segments, err
}

// AverageIRI returns the mean roughness index over all segments, 0
// when none exist.
func (s *SegmentService) AverageIRI(ctx context.Context) (float64, error) {
	var avg float64
	err := s.db.NewSelect().
		Model((*models.RoadSegment)(nil)).
		ColumnExpr("COALESCE(AVG(rs.iri), 0.0)").
		Scan(ctx, &avg)
	return avg, err
}
