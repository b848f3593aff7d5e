package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"rollstats-go/internal/analytics"
)

const (
	latestKey    = "rollstats:latest"
	recentKey    = "rollstats:recent"
	metricPrefix = "rollstats:metric:"
	snapshotTTL  = time.Hour
	recentLimit  = 1000
)

// Snapshot is one persisted view of all tracked metrics.
type Snapshot struct {
	Timestamp time.Time          `json:"timestamp"`
	Results   []analytics.Result `json:"results"`
}

// SnapshotStore persists engine snapshots to Redis.
type SnapshotStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewSnapshotStore connects to Redis and verifies the connection.
func NewSnapshotStore(ctx context.Context, addr, password string, db int, logger *zap.Logger) (*SnapshotStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	logger.Info("Connected to Redis", zap.String("addr", addr), zap.Int("db", db))

	return &SnapshotStore{client: client, logger: logger}, nil
}

// Save writes the snapshot as the latest state, one key per metric, and
// appends it to the capped recent list.
func (s *SnapshotStore) Save(ctx context.Context, snapshot Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, latestKey, payload, snapshotTTL)

	for _, result := range snapshot.Results {
		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("marshal result for %s: %w", result.Metric, err)
		}
		pipe.Set(ctx, metricPrefix+result.Metric, data, snapshotTTL)
	}

	pipe.LPush(ctx, recentKey, payload)
	pipe.LTrim(ctx, recentKey, 0, recentLimit-1)
	pipe.Expire(ctx, recentKey, snapshotTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	s.logger.Debug("Saved snapshot", zap.Int("metrics", len(snapshot.Results)))
	return nil
}

// LoadLatest returns the most recent snapshot, or nil when none exists.
func (s *SnapshotStore) LoadLatest(ctx context.Context) (*Snapshot, error) {
	data, err := s.client.Get(ctx, latestKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snapshot, nil
}

// Close releases the Redis connection.
func (s *SnapshotStore) Close() error {
	return s.client.Close()
}
