// Package permissions computes the effective permission set of an employee at
// a given instant, from active accreditations and derogations, behind a
// TTL-bounded Redis cache.
package permissions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oriventa/clearance/internal/catalog"
)

// Store reads the grant tables the resolver derives from.
type Store interface {
	// ActivePermissionIDs returns the union of permission ids conferred by
	// accreditations and derogations whose window covers the instant, in
	// ascending id order.
	ActivePermissionIDs(ctx context.Context, employeeID uuid.UUID, at time.Time) ([]int32, error)
	// ActiveLevels returns the levels of every accreditation covering the
	// instant, most senior first.
	ActiveLevels(ctx context.Context, employeeID uuid.UUID, at time.Time) ([]catalog.Level, error)
}

type store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a PostgreSQL backed Store.
func NewStore(pool *pgxpool.Pool) Store {
	return &store{pool: pool}
}

func (s *store) ActivePermissionIDs(ctx context.Context, employeeID uuid.UUID, at time.Time) ([]int32, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT permission_id FROM (
			SELECT lp.permission_id
			FROM accreditations a
			JOIN level_permissions lp ON lp.level_id = a.level_id
			WHERE a.employee_id = $1
			  AND a.start_at <= $2
			  AND (a.end_at IS NULL OR a.end_at > $2)

			UNION

			SELECT d.permission_id
			FROM derogations d
			WHERE d.employee_id = $1
			  AND d.start_at <= $2
			  AND d.end_at > $2
		) active
		ORDER BY permission_id`,
		employeeID, at,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *store) ActiveLevels(ctx context.Context, employeeID uuid.UUID, at time.Time) ([]catalog.Level, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT l.id, l.ordinal, l.label
		FROM levels l
		JOIN accreditations a ON a.level_id = l.id
		WHERE a.employee_id = $1
		  AND a.start_at <= $2
		  AND (a.end_at IS NULL OR a.end_at > $2)
		ORDER BY l.ordinal`,
		employeeID, at,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var levels []catalog.Level
	for rows.Next() {
		var lvl catalog.Level
		if err := rows.Scan(&lvl.ID, &lvl.Ordinal, &lvl.Label); err != nil {
			return nil, err
		}
		levels = append(levels, lvl)
	}
	return levels, rows.Err()
}
