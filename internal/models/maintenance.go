package models

import "github.com/uptrace/bun"

// MaintenanceTeam is a named crew that defects get assigned to.
type MaintenanceTeam struct {
	bun.BaseModel `bun:"table:maintenance_teams,alias:mt"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"name,notnull" json:"name"`
}
