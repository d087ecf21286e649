package derogations

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/oriventa/clearance/internal/accreditations"
	"github.com/oriventa/clearance/internal/apperr"
	"github.com/oriventa/clearance/internal/catalog"
	"github.com/oriventa/clearance/internal/employees"
	"github.com/oriventa/clearance/internal/shared"
)

// Directory resolves employee read projections.
type Directory interface {
	GetLight(ctx context.Context, id uuid.UUID) (employees.Light, error)
}

// Permissions resolves permission definitions.
type Permissions interface {
	GetPermission(ctx context.Context, id int32) (catalog.Permission, error)
}

// EffectiveResolver reads effective permission sets from the store of record.
// Authority decisions never trust the cached token snapshot.
type EffectiveResolver interface {
	Resolve(ctx context.Context, employeeID uuid.UUID, now time.Time) ([]int32, error)
}

// Service enforces the delegation rules around derogation grants.
type Service struct {
	repo      Repository
	directory Directory
	catalog   Permissions
	resolver  EffectiveResolver
	clock     func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, directory Directory, permCatalog Permissions, resolver EffectiveResolver) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		catalog:   permCatalog,
		resolver:  resolver,
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

// Create grants a single permission to the recipient for a bounded window.
// The recipient must not already hold it; the grantor must hold it.
func (s *Service) Create(ctx context.Context, req CreateRequest, grantorID uuid.UUID) (*Derogation, error) {
	now := s.clock()
	if req.StartAt.Before(now.Add(-accreditations.GraceWindow)) {
		return nil, apperr.Validation("the start date must be in the future")
	}
	if !req.EndAt.After(req.StartAt) {
		return nil, apperr.Validation("the end date must be after the start date")
	}

	recipientPerms, err := s.resolver.Resolve(ctx, req.EmployeeID, now)
	if err != nil {
		return nil, err
	}
	if slices.Contains(recipientPerms, req.PermissionID) {
		return nil, apperr.Conflict(apperr.CodeAlreadyAuthorized, "the employee already has this authorization")
	}

	recipient, err := s.directory.GetLight(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	permission, err := s.catalog.GetPermission(ctx, req.PermissionID)
	if err != nil {
		return nil, err
	}
	grantor, err := s.directory.GetLight(ctx, grantorID)
	if err != nil {
		return nil, err
	}

	grantorPerms, err := s.resolver.Resolve(ctx, grantorID, now)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(grantorPerms, req.PermissionID) {
		return nil, apperr.Forbidden(apperr.CodeAssignUnownedPerm,
			"you can't assign a derogation authorization that you don't have")
	}

	row, err := s.repo.Insert(ctx, Row{
		EmployeeID:   req.EmployeeID,
		PermissionID: req.PermissionID,
		GrantedBy:    grantorID,
		Reason:       req.Reason,
		StartAt:      req.StartAt,
		EndAt:        req.EndAt,
	})
	if err != nil {
		return nil, apperr.Internal(err, "insert derogation")
	}

	return &Derogation{
		ID:         row.ID,
		Employee:   recipient,
		Permission: permission,
		GrantedBy:  grantor,
		Reason:     row.Reason,
		StartAt:    row.StartAt,
		EndAt:      row.EndAt,
		CreatedAt:  row.CreatedAt,
	}, nil
}

// Delete removes a derogation. The requester must effectively hold the
// derogated permission.
func (s *Service) Delete(ctx context.Context, id int64, requesterID uuid.UUID) error {
	now := s.clock()

	derogation, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	requesterPerms, err := s.resolver.Resolve(ctx, requesterID, now)
	if err != nil {
		return err
	}
	if !slices.Contains(requesterPerms, derogation.Permission.ID) {
		return apperr.Forbidden(apperr.CodeDeleteUnownedPerm,
			"you can't delete a derogation that you don't have")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound(apperr.CodeDerogationNotFound, "derogation not found")
		}
		return apperr.Internal(err, "delete derogation")
	}
	return nil
}

// Get returns one derogation with resolved sub-objects.
func (s *Service) Get(ctx context.Context, id int64) (*Derogation, error) {
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound(apperr.CodeDerogationNotFound, "derogation not found")
		}
		return nil, apperr.Internal(err, "get derogation")
	}
	return s.materialize(ctx, row)
}

// List returns a page of derogations ordered by start date.
func (s *Service) List(ctx context.Context, page shared.PageRequest) ([]Derogation, shared.Pagination, error) {
	rows, total, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, shared.Pagination{}, apperr.Internal(err, "list derogations")
	}
	result := make([]Derogation, 0, len(rows))
	for _, row := range rows {
		d, err := s.materialize(ctx, row)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				continue
			}
			return nil, shared.Pagination{}, err
		}
		result = append(result, *d)
	}
	return result, shared.NewPagination(page.Page, page.PerPage, total), nil
}

// ListByEmployee returns a page of one employee's derogations.
func (s *Service) ListByEmployee(ctx context.Context, employeeID uuid.UUID, page shared.PageRequest) ([]Derogation, shared.Pagination, error) {
	if _, err := s.directory.GetLight(ctx, employeeID); err != nil {
		return nil, shared.Pagination{}, err
	}
	rows, total, err := s.repo.ListByEmployee(ctx, employeeID, page)
	if err != nil {
		return nil, shared.Pagination{}, apperr.Internal(err, "list derogations by employee")
	}
	result := make([]Derogation, 0, len(rows))
	for _, row := range rows {
		d, err := s.materialize(ctx, row)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				continue
			}
			return nil, shared.Pagination{}, err
		}
		result = append(result, *d)
	}
	return result, shared.NewPagination(page.Page, page.PerPage, total), nil
}

func (s *Service) materialize(ctx context.Context, row Row) (*Derogation, error) {
	employee, err := s.directory.GetLight(ctx, row.EmployeeID)
	if err != nil {
		return nil, err
	}
	permission, err := s.catalog.GetPermission(ctx, row.PermissionID)
	if err != nil {
		return nil, err
	}
	grantor, err := s.directory.GetLight(ctx, row.GrantedBy)
	if err != nil {
		return nil, err
	}
	return &Derogation{
		ID:         row.ID,
		Employee:   employee,
		Permission: permission,
		GrantedBy:  grantor,
		Reason:     row.Reason,
		StartAt:    row.StartAt,
		EndAt:      row.EndAt,
		CreatedAt:  row.CreatedAt,
	}, nil
}
