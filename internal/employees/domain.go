// Package employees manages the principal reference records that grants and
// credentials attach to.
package employees

import (
	"time"

	"github.com/google/uuid"
)

// Employee is the full principal record. Password material is never
// serialized.
type Employee struct {
	ID                uuid.UUID  `json:"id"`
	FirstName         string     `json:"firstname"`
	LastName          string     `json:"lastname"`
	Gender            *string    `json:"gender,omitempty"`
	PersonalEmail     string     `json:"personal_email"`
	PasswordHash      string     `json:"-"`
	PhoneNumber       *string    `json:"phone_number,omitempty"`
	ProfessionalEmail string     `json:"professional_email"`
	CreatedAt         time.Time  `json:"created_at"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty"`
	DeactivatedAt     *time.Time `json:"deactivated_at,omitempty"`
}

// Light is the narrow read projection embedded in grant responses. It is a
// distinct view, not a subtype: it can never leak credential fields.
type Light struct {
	ID                uuid.UUID `json:"id"`
	FirstName         string    `json:"firstname"`
	LastName          string    `json:"lastname"`
	Gender            *string   `json:"gender,omitempty"`
	ProfessionalEmail string    `json:"professional_email"`
}

// CreateRequest carries the fields required to register an employee.
type CreateRequest struct {
	FirstName         string  `json:"firstname" validate:"required,max=255"`
	LastName          string  `json:"lastname" validate:"required,max=255"`
	Gender            *string `json:"gender,omitempty"`
	PersonalEmail     string  `json:"personal_email" validate:"required,email"`
	Password          string  `json:"password" validate:"required,min=8"`
	PhoneNumber       *string `json:"phone_number,omitempty"`
	ProfessionalEmail string  `json:"professional_email" validate:"required,email"`
}

// ListFilter narrows paginated employee listings. Every field maps to a
// parameterized predicate; no filter text ever reaches the SQL string.
type ListFilter struct {
	FirstName         *string
	LastName          *string
	Gender            *string
	PersonalEmail     *string
	PhoneNumber       *string
	ProfessionalEmail *string
	Deactivated       *bool
	SortDesc          bool
}
