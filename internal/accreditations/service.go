package accreditations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/oriventa/clearance/internal/apperr"
	"github.com/oriventa/clearance/internal/catalog"
	"github.com/oriventa/clearance/internal/employees"
	"github.com/oriventa/clearance/internal/shared"
)

// GraceWindow tolerates clock skew between clients and the server: a grant
// may start up to this far in the past at submission time.
const GraceWindow = 5 * time.Minute

// Directory resolves employee read projections.
type Directory interface {
	GetLight(ctx context.Context, id uuid.UUID) (employees.Light, error)
}

// Levels resolves level reference data.
type Levels interface {
	GetLevel(ctx context.Context, id int32) (catalog.Level, error)
	MostSeniorOrdinal(ctx context.Context) (int32, error)
}

// LevelResolver reads the grantor's current level from the store of record.
type LevelResolver interface {
	CurrentLevel(ctx context.Context, employeeID uuid.UUID, now time.Time) (catalog.Level, error)
}

// Service enforces the delegation rules around accreditation grants.
type Service struct {
	repo      Repository
	directory Directory
	levels    Levels
	resolver  LevelResolver
	clock     func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, directory Directory, levels Levels, resolver LevelResolver) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		levels:    levels,
		resolver:  resolver,
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

func validateWindow(now, startAt time.Time, endAt *time.Time) error {
	if startAt.Before(now.Add(-GraceWindow)) {
		return apperr.Validation("the start date must be in the future")
	}
	if endAt != nil && !endAt.After(startAt) {
		return apperr.Validation("the end date must be after the start date")
	}
	return nil
}

// checkAuthority rejects assigning any level whose ordinal is at or beyond
// the grantor's own. The single most-senior tier is exempt; without the
// exemption its own ordinal would block it from assigning anything.
func (s *Service) checkAuthority(ctx context.Context, level, grantorLevel catalog.Level) error {
	if level.Ordinal < grantorLevel.Ordinal {
		return nil
	}
	root, err := s.levels.MostSeniorOrdinal(ctx)
	if err != nil {
		return err
	}
	if grantorLevel.Ordinal == root {
		return nil
	}
	return apperr.Forbidden(apperr.CodeAssignHigherLevel, "you can't assign a higher or equal level than your own")
}

// Assign creates a new accreditation on behalf of the grantor.
func (s *Service) Assign(ctx context.Context, req AssignRequest, grantorID uuid.UUID) (*Accreditation, error) {
	now := s.clock()
	if err := validateWindow(now, req.StartAt, req.EndAt); err != nil {
		return nil, err
	}

	employee, err := s.directory.GetLight(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	level, err := s.levels.GetLevel(ctx, req.LevelID)
	if err != nil {
		return nil, err
	}
	grantor, err := s.directory.GetLight(ctx, grantorID)
	if err != nil {
		return nil, err
	}
	grantorLevel, err := s.resolver.CurrentLevel(ctx, grantorID, now)
	if err != nil {
		return nil, err
	}
	if err := s.checkAuthority(ctx, level, grantorLevel); err != nil {
		return nil, err
	}

	row, err := s.repo.InsertChecked(ctx, Row{
		EmployeeID: req.EmployeeID,
		LevelID:    req.LevelID,
		GrantedBy:  &grantorID,
		StartAt:    req.StartAt,
		EndAt:      req.EndAt,
	})
	if err != nil {
		if errors.Is(err, ErrOverlap) {
			return nil, apperr.Conflict(apperr.CodeAccreditationOverlap,
				"an accreditation already exists for this employee in the specified time range")
		}
		return nil, apperr.Internal(err, "insert accreditation")
	}

	return &Accreditation{
		ID:        row.ID,
		Employee:  employee,
		Level:     level,
		GrantedBy: &grantor,
		StartAt:   row.StartAt,
		EndAt:     row.EndAt,
		CreatedAt: row.CreatedAt,
	}, nil
}

// Update replaces the level and window of an existing accreditation. The
// overlap check excludes the accreditation itself since this is a
// replace-in-place.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest, grantorID uuid.UUID) (*Accreditation, error) {
	now := s.clock()
	if err := validateWindow(now, req.StartAt, req.EndAt); err != nil {
		return nil, err
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound(apperr.CodeAccreditationNotFound, "accreditation not found")
		}
		return nil, apperr.Internal(err, "get accreditation")
	}

	employee, err := s.directory.GetLight(ctx, existing.EmployeeID)
	if err != nil {
		return nil, err
	}
	level, err := s.levels.GetLevel(ctx, req.LevelID)
	if err != nil {
		return nil, err
	}
	grantor, err := s.directory.GetLight(ctx, grantorID)
	if err != nil {
		return nil, err
	}
	grantorLevel, err := s.resolver.CurrentLevel(ctx, grantorID, now)
	if err != nil {
		return nil, err
	}
	if err := s.checkAuthority(ctx, level, grantorLevel); err != nil {
		return nil, err
	}

	row, err := s.repo.UpdateChecked(ctx, Row{
		ID:         id,
		EmployeeID: existing.EmployeeID,
		LevelID:    req.LevelID,
		GrantedBy:  &grantorID,
		StartAt:    req.StartAt,
		EndAt:      req.EndAt,
	})
	if err != nil {
		if errors.Is(err, ErrOverlap) {
			return nil, apperr.Conflict(apperr.CodeAccreditationOverlap,
				"an accreditation already exists for this employee in the specified time range")
		}
		return nil, apperr.Internal(err, "update accreditation")
	}

	return &Accreditation{
		ID:        row.ID,
		Employee:  employee,
		Level:     level,
		GrantedBy: &grantor,
		StartAt:   row.StartAt,
		EndAt:     row.EndAt,
		CreatedAt: row.CreatedAt,
	}, nil
}

// Delete removes an accreditation. The requester's current level must be
// strictly more senior than the level being revoked.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, requesterID uuid.UUID) error {
	now := s.clock()

	acc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	requesterLevel, err := s.resolver.CurrentLevel(ctx, requesterID, now)
	if err != nil {
		return err
	}
	if requesterLevel.Ordinal >= acc.Level.Ordinal {
		return apperr.Forbidden(apperr.CodeDeleteHigherLevel,
			"you can't delete an accreditation with a higher or equal level than your own")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound(apperr.CodeAccreditationNotFound, "accreditation not found")
		}
		return apperr.Internal(err, "delete accreditation")
	}
	return nil
}

// Get returns one accreditation with resolved sub-objects.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Accreditation, error) {
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound(apperr.CodeAccreditationNotFound, "accreditation not found")
		}
		return nil, apperr.Internal(err, "get accreditation")
	}
	return s.materialize(ctx, row)
}

// List returns a page of accreditations ordered by start date.
func (s *Service) List(ctx context.Context, page shared.PageRequest) ([]Accreditation, shared.Pagination, error) {
	rows, total, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, shared.Pagination{}, apperr.Internal(err, "list accreditations")
	}
	result, err := s.materializeAll(ctx, rows)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return result, shared.NewPagination(page.Page, page.PerPage, total), nil
}

// ListByEmployee returns a page of one employee's accreditations.
func (s *Service) ListByEmployee(ctx context.Context, employeeID uuid.UUID, page shared.PageRequest) ([]Accreditation, shared.Pagination, error) {
	if _, err := s.directory.GetLight(ctx, employeeID); err != nil {
		return nil, shared.Pagination{}, err
	}
	rows, total, err := s.repo.ListByEmployee(ctx, employeeID, page)
	if err != nil {
		return nil, shared.Pagination{}, apperr.Internal(err, "list accreditations by employee")
	}
	result, err := s.materializeAll(ctx, rows)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return result, shared.NewPagination(page.Page, page.PerPage, total), nil
}

func (s *Service) materialize(ctx context.Context, row Row) (*Accreditation, error) {
	employee, err := s.directory.GetLight(ctx, row.EmployeeID)
	if err != nil {
		return nil, err
	}
	level, err := s.levels.GetLevel(ctx, row.LevelID)
	if err != nil {
		return nil, err
	}
	var grantor *employees.Light
	if row.GrantedBy != nil {
		light, err := s.directory.GetLight(ctx, *row.GrantedBy)
		if err != nil {
			return nil, err
		}
		grantor = &light
	}
	return &Accreditation{
		ID:        row.ID,
		Employee:  employee,
		Level:     level,
		GrantedBy: grantor,
		StartAt:   row.StartAt,
		EndAt:     row.EndAt,
		CreatedAt: row.CreatedAt,
	}, nil
}

func (s *Service) materializeAll(ctx context.Context, rows []Row) ([]Accreditation, error) {
	result := make([]Accreditation, 0, len(rows))
	for _, row := range rows {
		acc, err := s.materialize(ctx, row)
		if err != nil {
			// Reference rows may have been deleted between queries; skip
			// rather than failing the whole listing.
			if apperr.KindOf(err) == apperr.KindNotFound {
				continue
			}
			return nil, err
		}
		result = append(result, *acc)
	}
	return result, nil
}
