package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"airside-bknd/internal/models"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

var testDBSeq atomic.Int64

// newTestDB opens an in-memory SQLite database with foreign keys
// enforced and the full schema created. Each call gets its own
// database so tests stay independent.
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", testDBSeq.Add(1))
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, model := range []any{
		(*models.RoadSegment)(nil),
		(*models.RoadSegmentCoordinate)(nil),
		(*models.MaintenanceTeam)(nil),
		(*models.Vehicle)(nil),
		(*models.Defect)(nil),
		(*models.DefectImage)(nil),
		(*models.DefectProgress)(nil),
		(*models.IRIMeasurement)(nil),
		(*models.CoverageLog)(nil),
	} {
		_, err := db.NewCreateTable().Model(model).WithForeignKeys().Exec(ctx)
		require.NoError(t, err)
	}

	return db
}

// seedSegment inserts a road segment and returns its id.
func seedSegment(t *testing.T, db *bun.DB, name, zone string, iri float64) int64 {
	t.Helper()

	seg := &models.RoadSegment{
		Name:           name,
		Zone:           zone,
		LengthKM:       1.5,
		Lanes:          2,
		IRI:            &iri,
		IsCritical:     iri >= models.CriticalIRIThreshold,
		FrequencyCount: 0,
	}
	_, err := db.NewInsert().Model(seg).Exec(context.Background())
	require.NoError(t, err)
	return seg.ID
}

// seedVehicle inserts an inspection vehicle and returns its id.
func seedVehicle(t *testing.T, db *bun.DB, name string) int64 {
	t.Helper()

	v := &models.Vehicle{Name: name, Status: "online"}
	_, err := db.NewInsert().Model(v).Exec(context.Background())
	require.NoError(t, err)
	return v.ID
}

// seedTeam inserts a maintenance team and returns its id.
func seedTeam(t *testing.T, db *bun.DB, name string) int64 {
	t.Helper()

	team := &models.MaintenanceTeam{Name: name}
	_, err := db.NewInsert().Model(team).Exec(context.Background())
	require.NoError(t, err)
	return team.ID
}

// seedDefect inserts a bare defect tied to a segment and returns it.
func seedDefect(t *testing.T, db *bun.DB, segmentID int64, status string) *models.Defect {
	t.Helper()

	detected := time.Now().Add(-24 * time.Hour)
	d := &models.Defect{
		Type:       "pothole",
		Severity:   "moderate",
		Status:     status,
		Priority:   "normal",
		SegmentID:  &segmentID,
		DetectedAt: &detected,
	}
	_, err := db.NewInsert().Model(d).Exec(context.Background())
	require.NoError(t, err)
	return d
}

func countRows(t *testing.T, db *bun.DB, model any) int {
	t.Helper()

	n, err := db.NewSelect().Model(model).Count(context.Background())
	require.NoError(t, err)
	return n
}
