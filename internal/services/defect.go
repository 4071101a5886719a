package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"airside-bknd/internal/models"

	"github.com/uptrace/bun"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// TimestampColumn maps a requested defect status to the lifecycle
// timestamp column stamped on that transition. The second return is
// false for statuses that update the status column only.
func TimestampColumn(status string) (string, bool) {
	switch status {
	case models.StatusAssigned:
		return "assigned_at", true
	case models.StatusInProgress:
		return "started_at", true
	case models.StatusForReview:
		return "reviewed_at", true
	case models.StatusCompleted:
		return "completed_at", true
	}
	return "", false
}

// DefectService handles defect reads and lifecycle updates.
type DefectService struct {
	db *bun.DB
}

// NewDefectService creates a new defect service.
func NewDefectService(db *bun.DB) *DefectService {
	return &DefectService{db: db}
}

// selectJoined selects defects with their segment, team, and ordered
// image list loaded.
func (s *DefectService) selectJoined(model any) *bun.SelectQuery {
	return s.db.NewSelect().
		Model(model).
		Relation("Segment").
		Relation("Team").
		Relation("Images", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("id ASC")
		})
}

// List returns all defects, newest first, optionally narrowed by
// status and severity.
func (s *DefectService) List(ctx context.Context, filter models.DefectFilter) ([]*models.Defect, error) {
	var defects []*models.Defect
	q := s.selectJoined(&defects)
	if len(filter.Statuses) > 0 {
		q = q.Where("d.status IN (?)", bun.In(filter.Statuses))
	}
	if len(filter.Severities) > 0 {
		q = q.Where("d.severity IN (?)", bun.In(filter.Severities))
	}
	err := q.Order("d.id DESC").Scan(ctx)
	return defects, err
}

// Unassigned returns defects still waiting for ops checking.
func (s *DefectService) Unassigned(ctx context.Context) ([]*models.Defect, error) {
	var defects []*models.Defect
	err := s.selectJoined(&defects).
		Where("d.status = ?", models.StatusForChecking).
		Order("d.detected_at DESC").
		Scan(ctx)
	return defects, err
}

// Urgent returns active defects with critical/high severity or
// urgent/high priority.
func (s *DefectService) Urgent(ctx context.Context) ([]*models.Defect, error) {
	var defects []*models.Defect
	err := s.selectJoined(&defects).
		Where("d.status NOT IN (?)", bun.In([]string{models.StatusCompleted, models.StatusFalsePositive})).
		Where("(d.severity IN (?) OR d.priority IN (?))",
			bun.In([]string{"critical", "high"}),
			bun.In([]string{"urgent", "high"})).
		Order("d.detected_at DESC").
		Scan(ctx)
	return defects, err
}

// Active returns defects that are neither completed nor dismissed as
// false positives.
func (s *DefectService) Active(ctx context.Context) ([]*models.Defect, error) {
	var defects []*models.Defect
	err := s.selectJoined(&defects).
		Where("d.status NOT IN (?)", bun.In([]string{models.StatusCompleted, models.StatusFalsePositive})).
		Order("d.detected_at DESC").
		Scan(ctx)
	return defects, err
}

// GetByID returns one fully joined defect or ErrNotFound.
func (s *DefectService) GetByID(ctx context.Context, id int64) (*models.Defect, error) {
	defect := new(models.Defect)
	err := s.selectJoined(defect).
		Where("d.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return defect, nil
}

// UpdateStatus writes the requested status and stamps the matching
// lifecycle timestamp. Any status may be written from any prior
// status; only the stamping side effect is status-dependent.
func (s *DefectService) UpdateStatus(ctx context.Context, id int64, status string) (*models.Defect, error) {
	q := s.db.NewUpdate().
		Model((*models.Defect)(nil)).
		Set("status = ?", status).
		Where("id = ?", id)

	if col, ok := TimestampColumn(status); ok {
		q = q.Set("? = ?", bun.Ident(col), time.Now())
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}

	return s.GetByID(ctx, id)
}

// AssignTeam hands a defect to a maintenance team in one update:
// team id set, status forced to assigned, assigned_at stamped, and
// priority overwritten only when one is given.
func (s *DefectService) AssignTeam(ctx context.Context, id, teamID int64, priority *string) (*models.Defect, error) {
	res, err := s.db.NewUpdate().
		Model((*models.Defect)(nil)).
		Set("assigned_maintenance_team_id = ?", teamID).
		Set("status = ?", models.StatusAssigned).
		Set("assigned_at = ?", time.Now()).
		Set("priority = COALESCE(?, priority)", priority).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}

	return s.GetByID(ctx, id)
}

// Delete removes a defect; its images and progress rows cascade.
func (s *DefectService) Delete(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().
		Model((*models.Defect)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
