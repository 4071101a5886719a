package models

import (
	"strconv"
	"time"

	"github.com/uptrace/bun"
)

// Canonical defect lifecycle statuses.
const (
	StatusForChecking   = "for_checking"
	StatusChecked       = "checked"
	StatusFalsePositive = "false_positive"
	StatusAssigned      = "assigned"
	StatusInProgress    = "in_progress"
	StatusForReview     = "for_review"
	StatusCompleted     = "completed"
)

// LifecycleStatuses lists every valid defect status.
var LifecycleStatuses = []string{
	StatusForChecking,
	StatusChecked,
	StatusFalsePositive,
	StatusAssigned,
	StatusInProgress,
	StatusForReview,
	StatusCompleted,
}

// IsLifecycleStatus reports whether s is one of the canonical statuses.
func IsLifecycleStatus(s string) bool {
	for _, v := range LifecycleStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Defect is a detected road-surface issue tied to a road segment.
type Defect struct {
	bun.BaseModel `bun:"table:defects,alias:d"`

	ID             int64      `bun:"id,pk,autoincrement"`
	Type           string     `bun:"type,notnull"`
	Severity       string     `bun:"severity,notnull"`
	Status         string     `bun:"status,notnull,default:'for_checking'"`
	Priority       string     `bun:"priority,notnull,default:'normal'"`
	SegmentID      *int64     `bun:"segment_id"`
	VehicleID      *int64     `bun:"vehicle_id"`
	CoordinatesLat *float64   `bun:"coordinates_lat"`
	CoordinatesLng *float64   `bun:"coordinates_lng"`
	Size           *float64   `bun:"size"`
	DetectedAt     *time.Time `bun:"detected_at"`
	AssignedAt     *time.Time `bun:"assigned_at"`
	StartedAt      *time.Time `bun:"started_at"`
	ReviewedAt     *time.Time `bun:"reviewed_at"`
	CompletedAt    *time.Time `bun:"completed_at"`
	IsWorsening    bool       `bun:"is_worsening"`
	PrevSize       *float64   `bun:"prev_size"`
	CurrentSize    *float64   `bun:"current_size"`
	CheckDate      *time.Time `bun:"check_date"`
	TeamID         *int64     `bun:"assigned_maintenance_team_id"`
	ImageURL       *string    `bun:"image_url"`

	Segment *RoadSegment     `bun:"rel:belongs-to,join:segment_id=id"`
	Vehicle *Vehicle         `bun:"rel:belongs-to,join:vehicle_id=id"`
	Team    *MaintenanceTeam `bun:"rel:belongs-to,join:assigned_maintenance_team_id=id"`
	Images  []*DefectImage   `bun:"rel:has-many,join:id=defect_id"`
}

// DefectImage is an append-only photo record belonging to one defect.
// image_type is one of: detected, ops_checked, worsening,
// maintenance_before, maintenance_after, completed.
type DefectImage struct {
	bun.BaseModel `bun:"table:defect_images,alias:di"`

	ID         int64      `bun:"id,pk,autoincrement"`
	DefectID   int64      `bun:"defect_id,notnull"`
	ImageURL   string     `bun:"image_url,notnull"`
	ImageType  string     `bun:"image_type,notnull"`
	CapturedAt *time.Time `bun:"captured_at"`
	UploadedBy *string    `bun:"uploaded_by"`
}

// DefectProgress is an append-only size history entry for a defect.
type DefectProgress struct {
	bun.BaseModel `bun:"table:defect_progress,alias:dp"`

	ID           int64      `bun:"id,pk,autoincrement"`
	DefectID     int64      `bun:"defect_id,notnull"`
	PreviousSize *float64   `bun:"previous_size"`
	CurrentSize  *float64   `bun:"current_size"`
	MeasuredAt   *time.Time `bun:"measured_at"`
}

// DefectFilter narrows defect listings by workflow fields.
type DefectFilter struct {
	Statuses   []string
	Severities []string
}

// Coordinates is a lat/lng pair in API responses.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DefectImageResponse is one entry of a defect's image list.
type DefectImageResponse struct {
	URL        string     `json:"url"`
	Type       string     `json:"type"`
	CapturedAt *time.Time `json:"capturedAt"`
}

// WorseningData carries the size trend of a worsening defect.
type WorseningData struct {
	PreviousSize float64    `json:"previousSize"`
	CurrentSize  float64    `json:"currentSize"`
	CheckDate    *time.Time `json:"checkDate"`
}

// DefectResponse is the API shape of a defect joined to its segment,
// team, and images. Absent relations render as null, never omitted.
type DefectResponse struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Status   string `json:"status"`
	Priority string `json:"priority"`

	Segment *string `json:"segment"`
	Zone    *string `json:"zone"`

	DetectedAt  *time.Time `json:"detectedAt"`
	AssignedAt  *time.Time `json:"assignedAt"`
	StartedAt   *time.Time `json:"startedAt"`
	ReviewedAt  *time.Time `json:"reviewedAt"`
	CompletedAt *time.Time `json:"completedAt"`

	Coordinates *Coordinates `json:"coordinates"`
	Size        *float64     `json:"size"`
	Image       *string      `json:"image"`

	Images []DefectImageResponse `json:"images"`

	AssignedMaintenanceTeamID   *int64  `json:"assignedMaintenanceTeamId"`
	AssignedMaintenanceTeamName *string `json:"assignedMaintenanceTeamName"`

	IsWorsening   bool           `json:"isWorsening"`
	WorseningData *WorseningData `json:"worseningData"`
}

// FormatDefect reshapes a joined defect row into its API response object.
func FormatDefect(d *Defect) *DefectResponse {
	resp := &DefectResponse{
		ID:          strconv.FormatInt(d.ID, 10),
		Type:        d.Type,
		Severity:    d.Severity,
		Status:      d.Status,
		Priority:    d.Priority,
		DetectedAt:  d.DetectedAt,
		AssignedAt:  d.AssignedAt,
		StartedAt:   d.StartedAt,
		ReviewedAt:  d.ReviewedAt,
		CompletedAt: d.CompletedAt,
		Size:        d.Size,
		Image:       d.ImageURL,
		Images:      make([]DefectImageResponse, 0, len(d.Images)),
		IsWorsening: d.IsWorsening,
	}

	if d.Segment != nil {
		resp.Segment = &d.Segment.Name
		resp.Zone = &d.Segment.Zone
	}

	if d.CoordinatesLat != nil && d.CoordinatesLng != nil {
		resp.Coordinates = &Coordinates{Lat: *d.CoordinatesLat, Lng: *d.CoordinatesLng}
	}

	for _, img := range d.Images {
		resp.Images = append(resp.Images, DefectImageResponse{
			URL:        img.ImageURL,
			Type:       img.ImageType,
			CapturedAt: img.CapturedAt,
		})
	}

	resp.AssignedMaintenanceTeamID = d.TeamID
	if d.Team != nil {
		resp.AssignedMaintenanceTeamName = &d.Team.Name
	}

	if d.CurrentSize != nil {
		wd := &WorseningData{CurrentSize: *d.CurrentSize, CheckDate: d.CheckDate}
		if d.PrevSize != nil {
			wd.PreviousSize = *d.PrevSize
		}
		resp.WorseningData = wd
	}

	return resp
}

// FormatDefects maps a defect slice into API response objects.
func FormatDefects(defects []*Defect) []*DefectResponse {
	out := make([]*DefectResponse, 0, len(defects))
	for _, d := range defects {
		out = append(out, FormatDefect(d))
	}
	return out
}
