package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"nba-seer/internal/domain"
	"nba-seer/internal/storage"
)

// KeyPrefix namespaces every key written by the cache.
const KeyPrefix = "nba_seer:projections"

// DefaultTTL keeps a slate around for a day.
const DefaultTTL = 24 * time.Hour

// ProjectionCache implements storage.ProjectionStore on Redis.
// Each run is a hash of encoded projections; each slate date is a set of run ids.
// Both expire after the TTL.
type ProjectionCache struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

// NewProjectionCache creates a cache. A non-positive ttl uses DefaultTTL.
func NewProjectionCache(client goredis.UniversalClient, ttl time.Duration) *ProjectionCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ProjectionCache{client: client, ttl: ttl}
}

// Compile-time interface check.
var _ storage.ProjectionStore = (*ProjectionCache)(nil)

// Connect opens a client for addr and verifies it with PING.
func Connect(ctx context.Context, addr string) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

func runKey(runID string) string {
	return KeyPrefix + ":run:" + runID
}

func slateKey(date time.Time) string {
	return KeyPrefix + ":slate:" + date.Format(storage.DateLayout)
}

func field(p *domain.PlayerProjection) string {
	return fmt.Sprintf("%s|%d", p.Row.GameID, p.Row.PersonID)
}

// InsertBulk adds multiple projections in one MULTI/EXEC.
// Fails entire batch on duplicate (run_id, person_id, game_id).
func (c *ProjectionCache) InsertBulk(ctx context.Context, projections []*domain.PlayerProjection) error {
	if len(projections) == 0 {
		return nil
	}

	type key struct{ run, field string }
	seen := make(map[key]struct{}, len(projections))
	for _, p := range projections {
		if !storage.ValidProjection(p) {
			return storage.ErrInvalidInput
		}
		k := key{p.RunID, field(p)}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against cached rows
	pipe := c.client.Pipeline()
	checks := make([]*goredis.BoolCmd, 0, len(projections))
	for _, p := range projections {
		checks = append(checks, pipe.HExists(ctx, runKey(p.RunID), field(p)))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("check cached projections: %w", err)
	}
	for _, cmd := range checks {
		if cmd.Val() {
			return storage.ErrDuplicateKey
		}
	}

	_, err := c.client.TxPipelined(ctx, func(tx goredis.Pipeliner) error {
		touched := make(map[string]struct{})
		for _, p := range projections {
			data, err := json.Marshal(p)
			if err != nil {
				return fmt.Errorf("encode projection %s: %w", field(p), err)
			}
			rk, sk := runKey(p.RunID), slateKey(p.SlateDate)
			tx.HSet(ctx, rk, field(p), data)
			tx.SAdd(ctx, sk, p.RunID)
			touched[rk] = struct{}{}
			touched[sk] = struct{}{}
		}
		for k := range touched {
			tx.Expire(ctx, k, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache projections: %w", err)
	}
	return nil
}

// GetByRunID retrieves all cached projections of a run, ordered by (game_id, person_id) ASC.
func (c *ProjectionCache) GetByRunID(ctx context.Context, runID string) ([]*domain.PlayerProjection, error) {
	projections, err := c.loadRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	storage.SortProjections(projections)
	return projections, nil
}

// GetBySlateDate retrieves all cached projections for a slate date, ordered by (game_id, person_id) ASC.
func (c *ProjectionCache) GetBySlateDate(ctx context.Context, date time.Time) ([]*domain.PlayerProjection, error) {
	runIDs, err := c.client.SMembers(ctx, slateKey(date)).Result()
	if err != nil {
		return nil, fmt.Errorf("list runs for slate: %w", err)
	}

	var result []*domain.PlayerProjection
	for _, runID := range runIDs {
		projections, err := c.loadRun(ctx, runID)
		if err != nil {
			return nil, err
		}
		for _, p := range projections {
			if storage.SameDate(p.SlateDate, date) {
				result = append(result, p)
			}
		}
	}
	storage.SortProjections(result)
	return result, nil
}

func (c *ProjectionCache) loadRun(ctx context.Context, runID string) ([]*domain.PlayerProjection, error) {
	fields, err := c.client.HGetAll(ctx, runKey(runID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}

	projections := make([]*domain.PlayerProjection, 0, len(fields))
	for f, data := range fields {
		var p domain.PlayerProjection
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, fmt.Errorf("decode projection %s: %w", f, err)
		}
		projections = append(projections, &p)
	}
	return projections, nil
}
