package derogations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oriventa/clearance/internal/shared"
)

// ErrNotFound indicates the derogation does not exist.
var ErrNotFound = errors.New("derogations: not found")

// Repository persists derogation rows.
type Repository interface {
	Get(ctx context.Context, id int64) (Row, error)
	List(ctx context.Context, page shared.PageRequest) ([]Row, int, error)
	ListByEmployee(ctx context.Context, employeeID uuid.UUID, page shared.PageRequest) ([]Row, int, error)
	Insert(ctx context.Context, row Row) (Row, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const rowColumns = `id, employee_id, permission_id, granted_by, reason, start_at, end_at, created_at`

func scanRow(row pgx.Row) (Row, error) {
	var r Row
	err := row.Scan(&r.ID, &r.EmployeeID, &r.PermissionID, &r.GrantedBy, &r.Reason, &r.StartAt, &r.EndAt, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Row{}, ErrNotFound
		}
		return Row{}, err
	}
	return r, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Row, error) {
	return scanRow(r.pool.QueryRow(ctx,
		`SELECT `+rowColumns+` FROM derogations WHERE id = $1`, id,
	))
}

func (r *repository) List(ctx context.Context, page shared.PageRequest) ([]Row, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM derogations`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+rowColumns+` FROM derogations ORDER BY start_at ASC LIMIT $1 OFFSET $2`,
		page.PerPage, page.Offset(),
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result, err := collectRows(rows)
	return result, total, err
}

func (r *repository) ListByEmployee(ctx context.Context, employeeID uuid.UUID, page shared.PageRequest) ([]Row, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM derogations WHERE employee_id = $1`, employeeID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+rowColumns+` FROM derogations WHERE employee_id = $1 ORDER BY start_at ASC LIMIT $2 OFFSET $3`,
		employeeID, page.PerPage, page.Offset(),
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result, err := collectRows(rows)
	return result, total, err
}

func (r *repository) Insert(ctx context.Context, row Row) (Row, error) {
	return scanRow(r.pool.QueryRow(ctx, `
		INSERT INTO derogations (employee_id, permission_id, granted_by, reason, start_at, end_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+rowColumns,
		row.EmployeeID, row.PermissionID, row.GrantedBy, row.Reason, row.StartAt, row.EndAt,
	))
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM derogations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectRows(rows pgx.Rows) ([]Row, error) {
	var result []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.EmployeeID, &r.PermissionID, &r.GrantedBy, &r.Reason, &r.StartAt, &r.EndAt, &r.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
