package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"ctchen222/Bookshelf/internal/api/models"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
)

//go:generate mockgen -source=summary_repository.go -destination=mocks/mock_summary_repository.go -package=mocks

var tracer = otel.Tracer("repository.summary")

// SummaryRepository caches per-user library summaries. Every entry is
// tagged with the library version it was computed at, and Invalidate bumps
// that version, so a summary computed before a write can never be served
// after it.
type SummaryRepository interface {
	// Get returns the cached summary, or nil when there is no current one,
	// together with the version a freshly computed summary must be stored at.
	Get(ctx context.Context, userID string) (*models.LibrarySummary, int64, error)
	Set(ctx context.Context, userID string, version int64, summary *models.LibrarySummary) error
	Invalidate(ctx context.Context, userID string) error
}

type summaryEntry struct {
	Version int64                 `json:"version"`
	Summary models.LibrarySummary `json:"summary"`
}

type redisSummaryRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSummaryRepository creates a new Redis-based SummaryRepository whose
// entries expire after ttl.
func NewSummaryRepository(rdb *redis.Client, ttl time.Duration) SummaryRepository {
	return &redisSummaryRepository{rdb: rdb, ttl: ttl}
}

func summaryKey(userID string) string {
	return fmt.Sprintf("summary:%s", userID)
}

func summaryVersionKey(userID string) string {
	return fmt.Sprintf("summary:%s:version", userID)
}

func (r *redisSummaryRepository) Get(ctx context.Context, userID string) (*models.LibrarySummary, int64, error) {
	ctx, span := tracer.Start(ctx, "SummaryRepository.Get")
	defer span.End()

	vals, err := r.rdb.MGet(ctx, summaryKey(userID), summaryVersionKey(userID)).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get summary from redis: %w", err)
	}

	var version int64
	if raw, ok := vals[1].(string); ok {
		version, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to parse summary version: %w", err)
		}
	}

	raw, ok := vals[0].(string)
	if !ok {
		return nil, version, nil
	}
	var entry summaryEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, version, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	if entry.Version != version {
		return nil, version, nil
	}
	return &entry.Summary, version, nil
}

func (r *redisSummaryRepository) Set(ctx context.Context, userID string, version int64, summary *models.LibrarySummary) error {
	ctx, span := tracer.Start(ctx, "SummaryRepository.Set")
	defer span.End()

	data, err := json.Marshal(summaryEntry{Version: version, Summary: *summary})
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := r.rdb.Set(ctx, summaryKey(userID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store summary in redis: %w", err)
	}
	return nil
}

func (r *redisSummaryRepository) Invalidate(ctx context.Context, userID string) error {
	ctx, span := tracer.Start(ctx, "SummaryRepository.Invalidate")
	defer span.End()

	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, summaryVersionKey(userID))
		if r.ttl > 0 {
			// Outlives every entry written at an older version.
			pipe.Expire(ctx, summaryVersionKey(userID), 2*r.ttl)
		}
		pipe.Del(ctx, summaryKey(userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate summary: %w", err)
	}
	return nil
}

type noopSummaryRepository struct{}

// NewNoopSummaryRepository returns a SummaryRepository that never caches.
// It is used when no Redis server is configured.
func NewNoopSummaryRepository() SummaryRepository {
	return noopSummaryRepository{}
}

func (noopSummaryRepository) Get(context.Context, string) (*models.LibrarySummary, int64, error) {
	return nil, 0, nil
}

func (noopSummaryRepository) Set(context.Context, string, int64, *models.LibrarySummary) error {
	return nil
}

func (noopSummaryRepository) Invalidate(context.Context, string) error {
	return nil
}
