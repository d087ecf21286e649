package accreditations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oriventa/clearance/internal/platform/db"
	"github.com/oriventa/clearance/internal/shared"
)

var (
	// ErrNotFound indicates the accreditation does not exist.
	ErrNotFound = errors.New("accreditations: not found")
	// ErrOverlap indicates the window intersects an existing grant for the
	// same employee, whether detected by the pre-insert check or by the
	// store's exclusion constraint.
	ErrOverlap = errors.New("accreditations: overlapping window")
)

// exclusionViolation is the SQLSTATE raised by the tstzrange exclusion
// constraint on (employee_id, window).
const exclusionViolation = "23P01"

// Repository persists accreditation rows.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (Row, error)
	List(ctx context.Context, page shared.PageRequest) ([]Row, int, error)
	ListByEmployee(ctx context.Context, employeeID uuid.UUID, page shared.PageRequest) ([]Row, int, error)
	// InsertChecked re-runs the overlap check and inserts inside one
	// serializable transaction; returns ErrOverlap on any intersection.
	InsertChecked(ctx context.Context, row Row) (Row, error)
	// UpdateChecked behaves like InsertChecked but excludes the row itself
	// from the overlap check since the update replaces it in place.
	UpdateChecked(ctx context.Context, row Row) (Row, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const rowColumns = `id, employee_id, level_id, granted_by, start_at, end_at, created_at`

func scanRow(row pgx.Row) (Row, error) {
	var r Row
	err := row.Scan(&r.ID, &r.EmployeeID, &r.LevelID, &r.GrantedBy, &r.StartAt, &r.EndAt, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Row{}, ErrNotFound
		}
		return Row{}, err
	}
	return r, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Row, error) {
	return scanRow(r.pool.QueryRow(ctx,
		`SELECT `+rowColumns+` FROM accreditations WHERE id = $1`, id,
	))
}

func (r *repository) List(ctx context.Context, page shared.PageRequest) ([]Row, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM accreditations`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+rowColumns+` FROM accreditations ORDER BY start_at ASC LIMIT $1 OFFSET $2`,
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
		`SELECT COUNT(*) FROM accreditations WHERE employee_id = $1`, employeeID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+rowColumns+` FROM accreditations WHERE employee_id = $1 ORDER BY start_at ASC LIMIT $2 OFFSET $3`,
		employeeID, page.PerPage, page.Offset(),
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result, err := collectRows(rows)
	return result, total, err
}

func (r *repository) InsertChecked(ctx context.Context, row Row) (Row, error) {
	var inserted Row
	err := db.WithSerializableTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := checkOverlap(ctx, tx, row.EmployeeID, row.StartAt, row.EndAt, nil); err != nil {
			return err
		}
		var err error
		inserted, err = scanRow(tx.QueryRow(ctx, `
			INSERT INTO accreditations (employee_id, level_id, granted_by, start_at, end_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+rowColumns,
			row.EmployeeID, row.LevelID, row.GrantedBy, row.StartAt, row.EndAt,
		))
		return err
	})
	if err != nil {
		return Row{}, mapOverlapErr(err)
	}
	return inserted, nil
}

func (r *repository) UpdateChecked(ctx context.Context, row Row) (Row, error) {
	var updated Row
	err := db.WithSerializableTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := checkOverlap(ctx, tx, row.EmployeeID, row.StartAt, row.EndAt, &row.ID); err != nil {
			return err
		}
		var err error
		updated, err = scanRow(tx.QueryRow(ctx, `
			UPDATE accreditations
			SET level_id = $2, granted_by = $3, start_at = $4, end_at = $5
			WHERE id = $1
			RETURNING `+rowColumns,
			row.ID, row.LevelID, row.GrantedBy, row.StartAt, row.EndAt,
		))
		return err
	})
	if err != nil {
		return Row{}, mapOverlapErr(err)
	}
	return updated, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM accreditations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// checkOverlap rejects any accreditation of the employee whose window
// intersects [startAt, endAt), treating a missing end as open-ended.
func checkOverlap(ctx context.Context, tx pgx.Tx, employeeID uuid.UUID, startAt time.Time, endAt *time.Time, excludeID *uuid.UUID) error {
	var count int
	err := tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM accreditations
		WHERE employee_id = $1
		  AND ($4::uuid IS NULL OR id <> $4)
		  AND start_at < COALESCE($3, 'infinity'::timestamptz)
		  AND (end_at IS NULL OR end_at > $2)`,
		employeeID, startAt, endAt, excludeID,
	).Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrOverlap
	}
	return nil
}

func mapOverlapErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == exclusionViolation {
		return ErrOverlap
	}
	return err
}

func collectRows(rows pgx.Rows) ([]Row, error) {
	var result []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.EmployeeID, &r.LevelID, &r.GrantedBy, &r.StartAt, &r.EndAt, &r.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
