// internal/runstore/store.go
package runstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pagesmith/internal/common/config"
	"pagesmith/internal/models"
)

// ErrNotFound is returned when no run record exists for a run ID.
var ErrNotFound = fmt.Errorf("run record not found")

// Store persists run records in Redis so run status survives the background
// goroutine and can be queried over HTTP. Records expire after the configured
// TTL; the remote repository is the only truly durable output of a run.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func New(cfg config.RedisConfig) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	return &Store{
		client: rdb,
		ttl:    time.Duration(cfg.RunTTL) * time.Second,
	}
}

// NewWithClient wraps an existing Redis client (used by tests).
func NewWithClient(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Ping tests the Redis connection
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func key(runID string) string {
	return "run:" + runID
}

// Create writes the initial record for a freshly scheduled run.
func (s *Store) Create(ctx context.Context, record *models.RunRecord) error {
	now := time.Now().UTC().Format(time.RFC3339)
	record.CreatedAt = now
	record.UpdatedAt = now
	return s.write(ctx, record)
}

// Update rewrites the record after a state transition.
func (s *Store) Update(ctx context.Context, record *models.RunRecord) error {
	record.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return s.write(ctx, record)
}

func (s *Store) write(ctx context.Context, record *models.RunRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	if err := s.client.Set(ctx, key(record.RunID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store run record: %w", err)
	}

	return nil
}

// Get fetches one run record by run ID.
func (s *Store) Get(ctx context.Context, runID string) (*models.RunRecord, error) {
	data, err := s.client.Get(ctx, key(runID)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch run record: %w", err)
	}

	var record models.RunRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run record: %w", err)
	}

	return &record, nil
}
