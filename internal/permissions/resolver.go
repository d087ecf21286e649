package permissions

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/oriventa/clearance/internal/apperr"
	"github.com/oriventa/clearance/internal/catalog"
)

// DefaultCacheTTL bounds how stale a cached resolution may become. Grant
// mutations do not purge entries; only expiry or a fresh login refreshes them.
const DefaultCacheTTL = 24 * time.Hour

const cacheKeyPrefix = "permissions:"

// Resolver derives the effective permission set of an employee, fronted by a
// read-through Redis cache keyed by employee id.
type Resolver struct {
	store  Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewResolver constructs a Resolver. A zero ttl falls back to DefaultCacheTTL.
func NewResolver(store Store, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Resolver {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, client: client, ttl: ttl, logger: logger}
}

func cacheKey(employeeID uuid.UUID) string {
	return cacheKeyPrefix + employeeID.String()
}

// Resolve returns the permission ids in effect for the employee at the given
// instant. Cache hits short-circuit the store; a miss or an undecodable entry
// triggers recomputation and repopulation. Cache write failures are logged
// and swallowed since the computed value is still valid.
func (r *Resolver) Resolve(ctx context.Context, employeeID uuid.UUID, now time.Time) ([]int32, error) {
	key := cacheKey(employeeID)

	if r.client != nil {
		payload, err := r.client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var ids []int32
			if jsonErr := json.Unmarshal(payload, &ids); jsonErr == nil {
				return ids, nil
			}
			r.logger.Warn("permission cache entry undecodable, recomputing",
				slog.String("employee_id", employeeID.String()))
		case !errors.Is(err, redis.Nil):
			r.logger.Warn("permission cache read failed",
				slog.String("employee_id", employeeID.String()), slog.Any("error", err))
		}
	}

	ids, err := r.store.ActivePermissionIDs(ctx, employeeID, now)
	if err != nil {
		return nil, apperr.Internal(err, "resolve permissions")
	}
	if ids == nil {
		ids = []int32{}
	}

	if r.client != nil {
		payload, err := json.Marshal(ids)
		if err == nil {
			err = r.client.Set(ctx, key, payload, r.ttl).Err()
		}
		if err != nil {
			r.logger.Warn("permission cache write failed",
				slog.String("employee_id", employeeID.String()), slog.Any("error", err))
		}
	}

	return ids, nil
}

// CurrentLevel returns the level of the accreditation active at the instant.
// The no-overlap invariant implies at most one row, but the query tolerates
// violations by deterministically picking the most senior level. Zero active
// accreditations is a not-found condition.
func (r *Resolver) CurrentLevel(ctx context.Context, employeeID uuid.UUID, now time.Time) (catalog.Level, error) {
	levels, err := r.store.ActiveLevels(ctx, employeeID, now)
	if err != nil {
		return catalog.Level{}, apperr.Internal(err, "current level")
	}
	if len(levels) == 0 {
		return catalog.Level{}, apperr.NotFound(apperr.CodeLevelNotFound, "no current employee level found")
	}
	return levels[0], nil
}
