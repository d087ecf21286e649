package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type staticDirectory struct {
	ids []uuid.UUID
	err error
}

func (d *staticDirectory) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	return d.ids, d.err
}

type recordingResolver struct {
	mu       sync.Mutex
	resolved []uuid.UUID
	err      error
}

func (r *recordingResolver) Resolve(ctx context.Context, employeeID uuid.UUID, now time.Time) ([]int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.resolved = append(r.resolved, employeeID)
	return []int32{1}, nil
}

func warmupTask(t *testing.T, payload PermissionsWarmupPayload) *asynq.Task {
	t.Helper()
	task, err := NewPermissionsWarmupTask(payload)
	require.NoError(t, err)
	return task
}

func TestWarmupPrimesEveryActiveEmployee(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	resolver := &recordingResolver{}
	job := NewPermissionsWarmupJob(&staticDirectory{ids: ids}, resolver, nil)

	err := job.Handle(context.Background(), warmupTask(t, PermissionsWarmupPayload{Concurrency: 2}))
	require.NoError(t, err)
	require.ElementsMatch(t, ids, resolver.resolved)
}

func TestWarmupNoActiveEmployees(t *testing.T) {
	resolver := &recordingResolver{}
	job := NewPermissionsWarmupJob(&staticDirectory{}, resolver, nil)

	err := job.Handle(context.Background(), warmupTask(t, PermissionsWarmupPayload{}))
	require.NoError(t, err)
	require.Empty(t, resolver.resolved)
}

func TestWarmupPropagatesResolveFailure(t *testing.T) {
	resolver := &recordingResolver{err: errors.New("store down")}
	job := NewPermissionsWarmupJob(&staticDirectory{ids: []uuid.UUID{uuid.New()}}, resolver, nil)

	err := job.Handle(context.Background(), warmupTask(t, PermissionsWarmupPayload{}))
	require.Error(t, err)
}

func TestWarmupRejectsMalformedPayload(t *testing.T) {
	resolver := &recordingResolver{}
	job := NewPermissionsWarmupJob(&staticDirectory{}, resolver, nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskPermissionsWarmup, []byte("{broken")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
