package services

import (
	"context"

	"airside-bknd/internal/models"

	"github.com/uptrace/bun"
)

// VehicleService handles inspection fleet reads.
type VehicleService struct {
	db *bun.DB
}

// NewVehicleService creates a new vehicle service.
func NewVehicleService(db *bun.DB) *VehicleService {
	return &VehicleService{db: db}
}

// List returns all fleet vehicles ordered by id.
func (s *VehicleService) List(ctx context.Context) ([]*models.Vehicle, error) {
	var vehicles []*models.Vehicle
	err := s.db.NewSelect().
		Model(&vehicles).
		Order("id ASC").
		Scan(ctx)
	return vehicles, err
}
