package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/oriventa/clearance/internal/apperr"
)

// Service wraps catalog reads with the shared error taxonomy.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetLevel fetches a level by id.
func (s *Service) GetLevel(ctx context.Context, id int32) (Level, error) {
	lvl, err := s.repo.GetLevel(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Level{}, apperr.NotFound(apperr.CodeLevelNotFound, "level not found")
		}
		return Level{}, apperr.Internal(err, fmt.Sprintf("get level %d", id))
	}
	return lvl, nil
}

// ListLevels returns all levels ordered from most to least senior.
func (s *Service) ListLevels(ctx context.Context) ([]Level, error) {
	levels, err := s.repo.ListLevels(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "list levels")
	}
	return levels, nil
}

// MostSeniorOrdinal returns the lowest ordinal defined in the catalog. The
// level holding it is the root tier, exempt from delegation restrictions.
func (s *Service) MostSeniorOrdinal(ctx context.Context) (int32, error) {
	ordinal, err := s.repo.MostSeniorOrdinal(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, apperr.NotFound(apperr.CodeLevelNotFound, "no levels defined")
		}
		return 0, apperr.Internal(err, "most senior ordinal")
	}
	return ordinal, nil
}

// GetPermission fetches a permission definition by id.
func (s *Service) GetPermission(ctx context.Context, id int32) (Permission, error) {
	p, err := s.repo.GetPermission(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Permission{}, apperr.NotFound(apperr.CodePermissionNotFound, "authorization not found")
		}
		return Permission{}, apperr.Internal(err, fmt.Sprintf("get permission %d", id))
	}
	return p, nil
}

// ListPermissions returns every permission definition.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "list permissions")
	}
	return perms, nil
}

// ListLevelPermissions returns the permissions a level confers.
func (s *Service) ListLevelPermissions(ctx context.Context, levelID int32) ([]Permission, error) {
	if _, err := s.GetLevel(ctx, levelID); err != nil {
		return nil, err
	}
	perms, err := s.repo.ListLevelPermissions(ctx, levelID)
	if err != nil {
		return nil, apperr.Internal(err, fmt.Sprintf("list permissions for level %d", levelID))
	}
	return perms, nil
}

// LevelWithPermissions returns a level together with its conferred permissions.
func (s *Service) LevelWithPermissions(ctx context.Context, levelID int32) (LevelWithPermissions, error) {
	lvl, err := s.GetLevel(ctx, levelID)
	if err != nil {
		return LevelWithPermissions{}, err
	}
	perms, err := s.repo.ListLevelPermissions(ctx, levelID)
	if err != nil {
		return LevelWithPermissions{}, apperr.Internal(err, fmt.Sprintf("list permissions for level %d", levelID))
	}
	return LevelWithPermissions{Level: lvl, Permissions: perms}, nil
}
