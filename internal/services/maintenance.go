package services

import (
	"context"

	"airside-bknd/internal/models"

	"github.com/uptrace/bun"
)

// MaintenanceService handles maintenance team reads.
type MaintenanceService struct {
	db *bun.DB
}

// NewMaintenanceService creates a new maintenance service.
func NewMaintenanceService(db *bun.DB) *MaintenanceService {
	return &MaintenanceService{db: db}
}

// ListTeams returns all maintenance teams ordered by id.
func (s *MaintenanceService) ListTeams(ctx context.Context) ([]*models.MaintenanceTeam, error) {
	var teams []*models.MaintenanceTeam
	err := s.db.NewSelect().
		Model(&teams).
		Order("id ASC").
		Scan(ctx)
	return teams, err
}
