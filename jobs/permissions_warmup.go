package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"
)

const defaultWarmupConcurrency = 8

// Directory lists the employees whose caches are worth priming.
type Directory interface {
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Resolver computes and caches an employee's effective permission set.
type Resolver interface {
	Resolve(ctx context.Context, employeeID uuid.UUID, now time.Time) ([]int32, error)
}

// PermissionsWarmupJob primes the permission cache for every active employee
// so the first resolution after a cache flush does not land on the database.
type PermissionsWarmupJob struct {
	Directory Directory
	Resolver  Resolver
	Logger    *slog.Logger
	clock     func() time.Time
}

// NewPermissionsWarmupJob wires dependencies for the warmup handler.
func NewPermissionsWarmupJob(directory Directory, resolver Resolver, logger *slog.Logger) *PermissionsWarmupJob {
	return &PermissionsWarmupJob{
		Directory: directory,
		Resolver:  resolver,
		Logger:    logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes permission warmup tasks.
func (j *PermissionsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("permissions warmup: handler not configured")
	}
	var payload PermissionsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	concurrency := payload.Concurrency
	if concurrency <= 0 {
		concurrency = defaultWarmupConcurrency
	}

	logger := j.logger()
	logger.Info("starting permissions warmup")
	started := j.now()

	ids, err := j.Directory.ListActiveIDs(ctx)
	if err != nil {
		logger.Error("load active employees", slog.Any("error", err))
		return err
	}
	if len(ids) == 0 {
		logger.Info("no active employees to warm")
		return nil
	}

	now := j.now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, id := range ids {
		g.Go(func() error {
			warmCtx, cancel := context.WithTimeout(gctx, 10*time.Second)
			defer cancel()
			if _, err := j.Resolver.Resolve(warmCtx, id, now); err != nil {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("warm permissions", slog.Any("error", err))
		return err
	}

	logger.Info("completed permissions warmup",
		slog.Int("employees", len(ids)),
		slog.Duration("duration", time.Since(started)))
	return nil
}

func (j *PermissionsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *PermissionsWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
