// Package derogations manages point grants of a single permission, outside of
// any level, with non-escalating delegation control.
package derogations

import (
	"time"

	"github.com/google/uuid"

	"github.com/oriventa/clearance/internal/catalog"
	"github.com/oriventa/clearance/internal/employees"
)

// Row is the persisted derogation record.
type Row struct {
	ID           int64
	EmployeeID   uuid.UUID
	PermissionID int32
	GrantedBy    uuid.UUID
	Reason       *string
	StartAt      time.Time
	EndAt        time.Time
	CreatedAt    time.Time
}

// Derogation is the materialized record with resolved sub-objects.
type Derogation struct {
	ID         int64              `json:"derogation_id"`
	Employee   employees.Light    `json:"recipient_employee"`
	Permission catalog.Permission `json:"employee_authorization"`
	GrantedBy  employees.Light    `json:"authorizing_employee"`
	Reason     *string            `json:"derogation_reason,omitempty"`
	StartAt    time.Time          `json:"start_at"`
	EndAt      time.Time          `json:"end_at"`
	CreatedAt  time.Time          `json:"created_at"`
}

// CreateRequest carries the fields of a new derogation. Unlike
// accreditations, the end date is mandatory.
type CreateRequest struct {
	EmployeeID   uuid.UUID `json:"recipient_employee_id" validate:"required"`
	PermissionID int32     `json:"authorization_id" validate:"required,gt=0"`
	Reason       *string   `json:"derogation_reason,omitempty" validate:"omitempty,max=500"`
	StartAt      time.Time `json:"start_at" validate:"required"`
	EndAt        time.Time `json:"end_at" validate:"required"`
}
