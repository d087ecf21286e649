package employees

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/oriventa/clearance/internal/apperr"
	"github.com/oriventa/clearance/internal/shared"
)

// Service wraps employee reference-data operations.
type Service struct {
	repo  Repository
	clock func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: func() time.Time { return time.Now().UTC() }}
}

// Get returns the full employee record.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Employee, error) {
	emp, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound(apperr.CodeEmployeeNotFound, "employee not found")
		}
		return nil, apperr.Internal(err, "get employee")
	}
	return emp, nil
}

// GetLight returns the narrow projection used inside grant responses.
func (s *Service) GetLight(ctx context.Context, id uuid.UUID) (Light, error) {
	light, err := s.repo.GetLight(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Light{}, apperr.NotFound(apperr.CodeEmployeeNotFound, "employee not found")
		}
		return Light{}, apperr.Internal(err, "get light employee")
	}
	return light, nil
}

// List returns a filtered page of employees.
func (s *Service) List(ctx context.Context, filter ListFilter, page shared.PageRequest) ([]Employee, shared.Pagination, error) {
	result, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, shared.Pagination{}, apperr.Internal(err, "list employees")
	}
	return result, shared.NewPagination(page.Page, page.PerPage, total), nil
}

// Create registers a new employee with a bcrypt password hash. Email
// availability is checked by the repository inside the insert transaction.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Employee, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal(err, "hash password")
	}

	emp, err := s.repo.Create(ctx, Employee{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Gender:            req.Gender,
		PersonalEmail:     req.PersonalEmail,
		PasswordHash:      string(hash),
		PhoneNumber:       req.PhoneNumber,
		ProfessionalEmail: req.ProfessionalEmail,
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, apperr.Conflict(apperr.CodeEmailExists, "an employee with this professional email already exists")
		}
		return nil, apperr.Internal(err, "create employee")
	}
	return emp, nil
}

// Deactivate marks the employee as inactive. Grants are left in place; an
// inactive employee simply can no longer authenticate.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Deactivate(ctx, id, s.clock()); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound(apperr.CodeEmployeeNotFound, "employee not found")
		}
		return apperr.Internal(err, "deactivate employee")
	}
	return nil
}
