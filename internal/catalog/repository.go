package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the requested reference record does not exist.
var ErrNotFound = errors.New("catalog: not found")

// Repository provides read access to the reference tables.
type Repository interface {
	GetLevel(ctx context.Context, id int32) (Level, error)
	ListLevels(ctx context.Context) ([]Level, error)
	MostSeniorOrdinal(ctx context.Context) (int32, error)
	GetPermission(ctx context.Context, id int32) (Permission, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	ListLevelPermissions(ctx context.Context, levelID int32) ([]Permission, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) GetLevel(ctx context.Context, id int32) (Level, error) {
	var lvl Level
	err := r.pool.QueryRow(ctx,
		`SELECT id, ordinal, label FROM levels WHERE id = $1`, id,
	).Scan(&lvl.ID, &lvl.Ordinal, &lvl.Label)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Level{}, ErrNotFound
		}
		return Level{}, err
	}
	return lvl, nil
}

func (r *repository) ListLevels(ctx context.Context) ([]Level, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, ordinal, label FROM levels ORDER BY ordinal`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var levels []Level
	for rows.Next() {
		var lvl Level
		if err := rows.Scan(&lvl.ID, &lvl.Ordinal, &lvl.Label); err != nil {
			return nil, err
		}
		levels = append(levels, lvl)
	}
	return levels, rows.Err()
}

func (r *repository) MostSeniorOrdinal(ctx context.Context) (int32, error) {
	return seniorOrdinal(r.pool.QueryRow(ctx, `SELECT MIN(ordinal) FROM levels`))
}

// seniorOrdinal unwraps the MIN aggregate, which yields a single NULL row
// rather than no rows when the levels table is empty.
func seniorOrdinal(row pgx.Row) (int32, error) {
	var ordinal *int32
	if err := row.Scan(&ordinal); err != nil {
		return 0, err
	}
	if ordinal == nil {
		return 0, ErrNotFound
	}
	return *ordinal, nil
}

const permissionColumns = `id, feature_code, ordinal, crud_type, description, category_code, category_entity_type, category_ordinal`

func scanPermission(row pgx.Row) (Permission, error) {
	var p Permission
	err := row.Scan(
		&p.ID, &p.FeatureCode, &p.Ordinal, &p.Crud,
		&p.Description, &p.CategoryCode, &p.CategoryEntity, &p.CategoryOrdinal,
	)
	return p, err
}

func (r *repository) GetPermission(ctx context.Context, id int32) (Permission, error) {
	p, err := scanPermission(r.pool.QueryRow(ctx,
		`SELECT `+permissionColumns+` FROM permissions WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, ErrNotFound
		}
		return Permission{}, err
	}
	return p, nil
}

func (r *repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+permissionColumns+` FROM permissions ORDER BY category_ordinal, ordinal`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPermissions(rows)
}

func (r *repository) ListLevelPermissions(ctx context.Context, levelID int32) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.feature_code, p.ordinal, p.crud_type, p.description,
		       p.category_code, p.category_entity_type, p.category_ordinal
		FROM permissions p
		JOIN level_permissions lp ON lp.permission_id = p.id
		WHERE lp.level_id = $1
		ORDER BY p.id`, levelID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPermissions(rows)
}

func collectPermissions(rows pgx.Rows) ([]Permission, error) {
	var perms []Permission
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}
