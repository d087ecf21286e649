package employees

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oriventa/clearance/internal/platform/db"
	"github.com/oriventa/clearance/internal/shared"
)

// ErrNotFound indicates the employee does not exist.
var ErrNotFound = errors.New("employees: not found")

// ErrEmailTaken indicates the professional email is already registered.
var ErrEmailTaken = errors.New("employees: professional email taken")

const uniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (*Employee, error)
	GetLight(ctx context.Context, id uuid.UUID) (Light, error)
	GetByProfessionalEmail(ctx context.Context, email string) (*Employee, error)
	List(ctx context.Context, filter ListFilter, page shared.PageRequest) ([]Employee, int, error)
	Create(ctx context.Context, emp Employee) (*Employee, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	Deactivate(ctx context.Context, id uuid.UUID, at time.Time) error
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const employeeColumns = `id, firstname, lastname, gender, personal_email, password_hash,
	phone_number, professional_email, created_at, last_login_at, deactivated_at`

func scanEmployee(row pgx.Row) (*Employee, error) {
	var e Employee
	err := row.Scan(
		&e.ID, &e.FirstName, &e.LastName, &e.Gender, &e.PersonalEmail, &e.PasswordHash,
		&e.PhoneNumber, &e.ProfessionalEmail, &e.CreatedAt, &e.LastLoginAt, &e.DeactivatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Employee, error) {
	return scanEmployee(r.pool.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id,
	))
}

func (r *repository) GetLight(ctx context.Context, id uuid.UUID) (Light, error) {
	var l Light
	err := r.pool.QueryRow(ctx,
		`SELECT id, firstname, lastname, gender, professional_email FROM employees WHERE id = $1`, id,
	).Scan(&l.ID, &l.FirstName, &l.LastName, &l.Gender, &l.ProfessionalEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Light{}, ErrNotFound
		}
		return Light{}, err
	}
	return l, nil
}

func (r *repository) GetByProfessionalEmail(ctx context.Context, email string) (*Employee, error) {
	return scanEmployee(r.pool.QueryRow(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE professional_email = $1`, email,
	))
}

// predicate is one parameterized WHERE condition. The fragment references its
// argument as $%d and is formatted once the final position is known.
type predicate struct {
	fragment string
	arg      any
}

func buildPredicates(filter ListFilter) []predicate {
	var preds []predicate
	like := func(column string, v *string) {
		if v != nil && *v != "" {
			preds = append(preds, predicate{column + " ILIKE $%d", "%" + *v + "%"})
		}
	}
	like("firstname", filter.FirstName)
	like("lastname", filter.LastName)
	like("personal_email", filter.PersonalEmail)
	like("phone_number", filter.PhoneNumber)
	like("professional_email", filter.ProfessionalEmail)
	if filter.Gender != nil {
		if *filter.Gender == "none" {
			preds = append(preds, predicate{"gender IS NULL", nil})
		} else {
			preds = append(preds, predicate{"gender = $%d", *filter.Gender})
		}
	}
	if filter.Deactivated != nil {
		if *filter.Deactivated {
			preds = append(preds, predicate{"deactivated_at IS NOT NULL", nil})
		} else {
			preds = append(preds, predicate{"deactivated_at IS NULL", nil})
		}
	}
	return preds
}

func whereClause(preds []predicate) (string, []any) {
	if len(preds) == 0 {
		return "", nil
	}
	var conditions []string
	var args []any
	for _, p := range preds {
		if p.arg == nil {
			conditions = append(conditions, p.fragment)
			continue
		}
		args = append(args, p.arg)
		conditions = append(conditions, fmt.Sprintf(p.fragment, len(args)))
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func (r *repository) List(ctx context.Context, filter ListFilter, page shared.PageRequest) ([]Employee, int, error) {
	where, args := whereClause(buildPredicates(filter))

	var total int
	if err := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM employees %s`, where), args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "ASC"
	if filter.SortDesc {
		order = "DESC"
	}
	query := fmt.Sprintf(
		`SELECT %s FROM employees %s ORDER BY created_at %s LIMIT $%d OFFSET $%d`,
		employeeColumns, where, order, len(args)+1, len(args)+2,
	)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(
			&e.ID, &e.FirstName, &e.LastName, &e.Gender, &e.PersonalEmail, &e.PasswordHash,
			&e.PhoneNumber, &e.ProfessionalEmail, &e.CreatedAt, &e.LastLoginAt, &e.DeactivatedAt,
		); err != nil {
			return nil, 0, err
		}
		result = append(result, e)
	}
	return result, total, rows.Err()
}

// Create checks email availability and inserts inside one transaction; the
// unique constraint on professional_email is the backstop for writers racing
// across transactions.
func (r *repository) Create(ctx context.Context, emp Employee) (*Employee, error) {
	var created *Employee
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var taken bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM employees WHERE professional_email = $1)`,
			emp.ProfessionalEmail,
		).Scan(&taken); err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}
		var err error
		created, err = scanEmployee(tx.QueryRow(ctx, `
			INSERT INTO employees (firstname, lastname, gender, personal_email, password_hash, phone_number, professional_email)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+employeeColumns,
			emp.FirstName, emp.LastName, emp.Gender, emp.PersonalEmail,
			emp.PasswordHash, emp.PhoneNumber, emp.ProfessionalEmail,
		))
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return created, nil
}

func (r *repository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE employees SET last_login_at = $1 WHERE id = $2`, at, id)
	return err
}

func (r *repository) Deactivate(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE employees SET deactivated_at = $1 WHERE id = $2 AND deactivated_at IS NULL`, at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM employees WHERE deactivated_at IS NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
