package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Vehicle is an inspection vehicle that uploads evidence bundles.
type Vehicle struct {
	bun.BaseModel `bun:"table:vehicles,alias:v"`

	ID           int64      `bun:"id,pk,autoincrement"`
	Name         string     `bun:"name,notnull"`
	Status       string     `bun:"status,notnull,default:'offline'"`
	LastUpload   *time.Time `bun:"last_upload"`
	CurrentRoute *string    `bun:"current_route"`
	UploadSizeMB *float64   `bun:"upload_size_mb"`
}

// VehicleResponse is the API shape of a fleet vehicle.
type VehicleResponse struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Status       string     `json:"status"`
	LastUpload   *time.Time `json:"lastUpload"`
	CurrentRoute *string    `json:"currentRoute"`
	UploadSizeMB *float64   `json:"uploadSizeMb"`
}

// FormatVehicle reshapes a vehicle row into its API response object.
func FormatVehicle(v *Vehicle) *VehicleResponse {
	return &VehicleResponse{
		ID:           v.ID,
		Name:         v.Name,
		Status:       v.Status,
		LastUpload:   v.LastUpload,
		CurrentRoute: v.CurrentRoute,
		UploadSizeMB: v.UploadSizeMB,
	}
}
