package accreditations

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/oriventa/clearance/internal/apperr"
	"github.com/oriventa/clearance/internal/catalog"
	"github.com/oriventa/clearance/internal/employees"
	"github.com/oriventa/clearance/internal/shared"
)

type memoryRepo struct {
	rows map[uuid.UUID]Row
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: make(map[uuid.UUID]Row)}
}

func (r *memoryRepo) overlaps(row Row) bool {
	for _, existing := range r.rows {
		if existing.ID == row.ID || existing.EmployeeID != row.EmployeeID {
			continue
		}
		endsAfterStart := existing.EndAt == nil || existing.EndAt.After(row.StartAt)
		startsBeforeEnd := row.EndAt == nil || existing.StartAt.Before(*row.EndAt)
		if endsAfterStart && startsBeforeEnd {
			return true
		}
	}
	return false
}

func (r *memoryRepo) Get(ctx context.Context, id uuid.UUID) (Row, error) {
	row, ok := r.rows[id]
	if !ok {
		return Row{}, ErrNotFound
	}
	return row, nil
}

func (r *memoryRepo) List(ctx context.Context, page shared.PageRequest) ([]Row, int, error) {
	var out []Row
	for _, row := range r.rows {
		out = append(out, row)
	}
	return out, len(out), nil
}

func (r *memoryRepo) ListByEmployee(ctx context.Context, employeeID uuid.UUID, page shared.PageRequest) ([]Row, int, error) {
	var out []Row
	for _, row := range r.rows {
		if row.EmployeeID == employeeID {
			out = append(out, row)
		}
	}
	return out, len(out), nil
}

func (r *memoryRepo) InsertChecked(ctx context.Context, row Row) (Row, error) {
	if r.overlaps(row) {
		return Row{}, ErrOverlap
	}
	row.ID = uuid.New()
	row.CreatedAt = time.Now().UTC()
	r.rows[row.ID] = row
	return row, nil
}

func (r *memoryRepo) UpdateChecked(ctx context.Context, row Row) (Row, error) {
	existing, ok := r.rows[row.ID]
	if !ok {
		return Row{}, ErrNotFound
	}
	if r.overlaps(row) {
		return Row{}, ErrOverlap
	}
	row.CreatedAt = existing.CreatedAt
	r.rows[row.ID] = row
	return row, nil
}

func (r *memoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.rows[id]; !ok {
		return ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

type memoryDirectory struct {
	lights map[uuid.UUID]employees.Light
}

func (d *memoryDirectory) GetLight(ctx context.Context, id uuid.UUID) (employees.Light, error) {
	light, ok := d.lights[id]
	if !ok {
		return employees.Light{}, apperr.NotFound(apperr.CodeEmployeeNotFound, "employee not found")
	}
	return light, nil
}

type memoryLevels struct {
	levels map[int32]catalog.Level
}

func (l *memoryLevels) GetLevel(ctx context.Context, id int32) (catalog.Level, error) {
	lvl, ok := l.levels[id]
	if !ok {
		return catalog.Level{}, apperr.NotFound(apperr.CodeLevelNotFound, "level not found")
	}
	return lvl, nil
}

func (l *memoryLevels) MostSeniorOrdinal(ctx context.Context) (int32, error) {
	var min int32
	first := true
	for _, lvl := range l.levels {
		if first || lvl.Ordinal < min {
			min = lvl.Ordinal
			first = false
		}
	}
	if first {
		return 0, apperr.NotFound(apperr.CodeLevelNotFound, "no levels defined")
	}
	return min, nil
}

type memoryResolver struct {
	current map[uuid.UUID]catalog.Level
}

func (r *memoryResolver) CurrentLevel(ctx context.Context, employeeID uuid.UUID, now time.Time) (catalog.Level, error) {
	lvl, ok := r.current[employeeID]
	if !ok {
		return catalog.Level{}, apperr.NotFound(apperr.CodeLevelNotFound, "no current employee level found")
	}
	return lvl, nil
}

type fixture struct {
	service   *Service
	repo      *memoryRepo
	directory *memoryDirectory
	levels    *memoryLevels
	resolver  *memoryResolver
	now       time.Time

	director   uuid.UUID
	manager    uuid.UUID
	operator   uuid.UUID
	supervisor uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo: newMemoryRepo(),
		directory: &memoryDirectory{
			lights: make(map[uuid.UUID]employees.Light),
		},
		levels: &memoryLevels{levels: map[int32]catalog.Level{
			1: {ID: 1, Ordinal: 1, Label: "Director"},
			2: {ID: 2, Ordinal: 2, Label: "Manager"},
			3: {ID: 3, Ordinal: 3, Label: "Supervisor"},
			4: {ID: 4, Ordinal: 4, Label: "Operator"},
		}},
		resolver: &memoryResolver{current: make(map[uuid.UUID]catalog.Level)},
		now:      time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}

	f.director = f.addEmployee("Ada", "Director")
	f.manager = f.addEmployee("Marc", "Manager")
	f.supervisor = f.addEmployee("Sofia", "Supervisor")
	f.operator = f.addEmployee("Omar", "Operator")

	f.resolver.current[f.director] = f.levels.levels[1]
	f.resolver.current[f.manager] = f.levels.levels[2]
	f.resolver.current[f.supervisor] = f.levels.levels[3]

	f.service = NewService(f.repo, f.directory, f.levels, f.resolver)
	f.service.clock = func() time.Time { return f.now }
	return f
}

func (f *fixture) addEmployee(first, last string) uuid.UUID {
	id := uuid.New()
	f.directory.lights[id] = employees.Light{ID: id, FirstName: first, LastName: last}
	return id
}

func TestAssignBelowOwnOrdinalSucceeds(t *testing.T) {
	f := newFixture(t)

	end := f.now.Add(30 * 24 * time.Hour)
	acc, err := f.service.Assign(context.Background(), AssignRequest{
		EmployeeID: f.operator,
		LevelID:    1,
		StartAt:    f.now.Add(time.Hour),
		EndAt:      &end,
	}, f.manager)
	require.NoError(t, err)
	require.Equal(t, int32(1), acc.Level.Ordinal)
	require.Equal(t, f.operator, acc.Employee.ID)
	require.NotNil(t, acc.GrantedBy)
	require.Equal(t, f.manager, acc.GrantedBy.ID)
}

func TestAssignEqualOrdinalForbidden(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Assign(context.Background(), AssignRequest{
		EmployeeID: f.operator,
		LevelID:    2,
		StartAt:    f.now.Add(time.Hour),
	}, f.manager)
	require.Error(t, err)
	require.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	require.Equal(t, apperr.CodeAssignHigherLevel, apperr.CodeOf(err))
}

func TestAssignAboveOwnOrdinalForbidden(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Assign(context.Background(), AssignRequest{
		EmployeeID: f.operator,
		LevelID:    3,
		StartAt:    f.now.Add(time.Hour),
	}, f.manager)
	require.Error(t, err)
	require.Equal(t, apperr.CodeAssignHigherLevel, apperr.CodeOf(err))
}

func TestAssignRootTierExemption(t *testing.T) {
	f := newFixture(t)

	// The most senior tier is exempt and may assign any level, its own
	// included. Windows are disjoint to stay clear of the overlap rule.
	start := f.now.Add(time.Hour)
	for _, levelID := range []int32{1, 4} {
		end := start.Add(24 * time.Hour)
		acc, err := f.service.Assign(context.Background(), AssignRequest{
			EmployeeID: f.operator,
			LevelID:    levelID,
			StartAt:    start,
			EndAt:      &end,
		}, f.director)
		require.NoError(t, err)
		require.Equal(t, levelID, acc.Level.ID)
		start = end
	}
}

func TestAssignStartBeyondGraceRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Assign(context.Background(), AssignRequest{
		EmployeeID: f.operator,
		LevelID:    3,
		StartAt:    f.now.Add(-GraceWindow - time.Second),
	}, f.manager)
	require.Error(t, err)
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestAssignStartWithinGraceAccepted(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Assign(context.Background(), AssignRequest{
		EmployeeID: f.operator,
		LevelID:    3,
		StartAt:    f.now.Add(-GraceWindow + time.Second),
	}, f.director)
	require.NoError(t, err)
}

func TestAssignEndBeforeStartRejected(t *testing.T) {
	f := newFixture(t)

	end := f.now.Add(time.Hour)
	_, err := f.service.Assign(context.Background(), AssignRequest{
		EmployeeID: f.operator,
		LevelID:    3,
		StartAt:    f.now.Add(2 * time.Hour),
		EndAt:      &end,
	}, f.manager)
	require.Error(t, err)
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestAssignOverlapConflict(t *testing.T) {
	f := newFixture(t)

	end := f.now.Add(10 * 24 * time.Hour)
	_, err := f.service.Assign(context.Background(), AssignRequest{
		EmployeeID: f.operator,
		LevelID:    3,
		StartAt:    f.now.Add(time.Hour),
		EndAt:      &end,
	}, f.director)
	require.NoError(t, err)

	// Intersecting window for the same employee.
	_, err = f.service.Assign(context.Background(), AssignRequest{
		EmployeeID: f.operator,
		LevelID:    4,
		StartAt:    f.now.Add(48 * time.Hour),
	}, f.director)
	require.Error(t, err)
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	require.Equal(t, apperr.CodeAccreditationOverlap, apperr.CodeOf(err))

	// A different employee is unaffected.
	_, err = f.service.Assign(context.Background(), AssignRequest{
		EmployeeID: f.supervisor,
		LevelID:    4,
		StartAt:    f.now.Add(48 * time.Hour),
	}, f.director)
	require.NoError(t, err)
}

func TestAssignOpenEndedOverlapsEverythingLater(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Assign(context.Background(), AssignRequest{
		EmployeeID: f.operator,
		LevelID:    3,
		StartAt:    f.now.Add(time.Hour),
	}, f.director)
	require.NoError(t, err)

	_, err = f.service.Assign(context.Background(), AssignRequest{
		EmployeeID: f.operator,
		LevelID:    4,
		StartAt:    f.now.Add(1000 * time.Hour),
	}, f.director)
	require.Error(t, err)
	require.Equal(t, apperr.CodeAccreditationOverlap, apperr.CodeOf(err))
}

func TestUpdateExcludesOwnWindow(t *testing.T) {
	f := newFixture(t)

	end := f.now.Add(10 * 24 * time.Hour)
	acc, err := f.service.Assign(context.Background(), AssignRequest{
		EmployeeID: f.operator,
		LevelID:    3,
		StartAt:    f.now.Add(time.Hour),
		EndAt:      &end,
	}, f.director)
	require.NoError(t, err)

	// Shifting the same grant inside its own window must not self-conflict.
	newEnd := f.now.Add(20 * 24 * time.Hour)
	updated, err := f.service.Update(context.Background(), acc.ID, UpdateRequest{
		LevelID: 4,
		StartAt: f.now.Add(2 * time.Hour),
		EndAt:   &newEnd,
	}, f.director)
	require.NoError(t, err)
	require.Equal(t, int32(4), updated.Level.Ordinal)
}

func TestUpdateUnknownAccreditation(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Update(context.Background(), uuid.New(), UpdateRequest{
		LevelID: 4,
		StartAt: f.now.Add(time.Hour),
	}, f.manager)
	require.Error(t, err)
	require.Equal(t, apperr.CodeAccreditationNotFound, apperr.CodeOf(err))
}

func TestDeleteRequiresStrictlyMoreSeniorLevel(t *testing.T) {
	f := newFixture(t)

	acc, err := f.service.Assign(context.Background(), AssignRequest{
		EmployeeID: f.operator,
		LevelID:    3,
		StartAt:    f.now.Add(time.Hour),
	}, f.director)
	require.NoError(t, err)

	// A supervisor holds ordinal 3 and may not revoke an equal level.
	err = f.service.Delete(context.Background(), acc.ID, f.supervisor)
	require.Error(t, err)
	require.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	require.Equal(t, apperr.CodeDeleteHigherLevel, apperr.CodeOf(err))

	// A manager at ordinal 2 may.
	require.NoError(t, f.service.Delete(context.Background(), acc.ID, f.manager))

	err = f.service.Delete(context.Background(), acc.ID, f.manager)
	require.Error(t, err)
	require.Equal(t, apperr.CodeAccreditationNotFound, apperr.CodeOf(err))
}

func TestAssignGrantorWithoutCurrentLevel(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Assign(context.Background(), AssignRequest{
		EmployeeID: f.supervisor,
		LevelID:    4,
		StartAt:    f.now.Add(time.Hour),
	}, f.operator)
	require.Error(t, err)
	require.Equal(t, apperr.CodeLevelNotFound, apperr.CodeOf(err))
}

func TestAssignUnknownEmployee(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Assign(context.Background(), AssignRequest{
		EmployeeID: uuid.New(),
		LevelID:    4,
		StartAt:    f.now.Add(time.Hour),
	}, f.manager)
	require.Error(t, err)
	require.Equal(t, apperr.CodeEmployeeNotFound, apperr.CodeOf(err))
}

func TestListByEmployee(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Assign(context.Background(), AssignRequest{
		EmployeeID: f.operator,
		LevelID:    4,
		StartAt:    f.now.Add(time.Hour),
	}, f.director)
	require.NoError(t, err)

	result, pagination, err := f.service.ListByEmployee(context.Background(), f.operator, shared.PageRequest{Page: 1, PerPage: 20})
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, 1, pagination.Total)

	_, _, err = f.service.ListByEmployee(context.Background(), uuid.New(), shared.PageRequest{Page: 1, PerPage: 20})
	require.Error(t, err)
	require.Equal(t, apperr.CodeEmployeeNotFound, apperr.CodeOf(err))
}
