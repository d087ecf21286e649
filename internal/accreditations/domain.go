// Package accreditations manages time-bounded level grants and enforces the
// delegation rules controlling who may assign, replace, or revoke them.
package accreditations

import (
	"time"

	"github.com/google/uuid"

	"github.com/oriventa/clearance/internal/catalog"
	"github.com/oriventa/clearance/internal/employees"
)

// Row is the persisted accreditation record.
type Row struct {
	ID         uuid.UUID
	EmployeeID uuid.UUID
	LevelID    int32
	GrantedBy  *uuid.UUID
	StartAt    time.Time
	EndAt      *time.Time
	CreatedAt  time.Time
}

// Accreditation is the materialized record returned to callers, with the
// principal, level, and grantor resolved to their read projections.
type Accreditation struct {
	ID        uuid.UUID        `json:"accreditation_id"`
	Employee  employees.Light  `json:"recipient_employee"`
	Level     catalog.Level    `json:"employee_level"`
	GrantedBy *employees.Light `json:"authorizing_employee,omitempty"`
	StartAt   time.Time        `json:"start_at"`
	EndAt     *time.Time       `json:"end_at,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// AssignRequest carries the fields of a new level grant.
type AssignRequest struct {
	EmployeeID uuid.UUID  `json:"employee_id" validate:"required"`
	LevelID    int32      `json:"level_id" validate:"required,gt=0"`
	StartAt    time.Time  `json:"start_at" validate:"required"`
	EndAt      *time.Time `json:"end_at,omitempty"`
}

// UpdateRequest replaces the window and level of an existing grant.
type UpdateRequest struct {
	LevelID int32      `json:"level_id" validate:"required,gt=0"`
	StartAt time.Time  `json:"start_at" validate:"required"`
	EndAt   *time.Time `json:"end_at,omitempty"`
}
