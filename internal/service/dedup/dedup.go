package dedup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrEmptyID = errors.New("event id is required")

// Store remembers processed webhook event ids for a limited time.
type Store interface {
	// Claim returns true the first time id is seen within the TTL.
	Claim(ctx context.Context, id string) (bool, error)
	Close() error
}

// RedisStore claims ids with SET NX so several replicas share one view.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to url and verifies the connection.
func NewRedisStore(url, prefix string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, prefix: prefix, ttl: ttl}, nil
}

func (s *RedisStore) key(id string) string {
	if s.prefix == "" {
		return "webhook:" + id
	}
	return s.prefix + ":webhook:" + id
}

// Claim implements Store.
func (s *RedisStore) Claim(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, ErrEmptyID
	}
	ok, err := s.client.SetNX(ctx, s.key(id), time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim webhook event: %w", err)
	}
	return ok, nil
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// MemoryStore is the single-process fallback.
type MemoryStore struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		seen: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Claim implements Store. Expired ids are purged lazily.
func (s *MemoryStore) Claim(_ context.Context, id string) (bool, error) {
	if id == "" {
		return false, ErrEmptyID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, expires := range s.seen {
		if !now.Before(expires) {
			delete(s.seen, key)
		}
	}
	if _, ok := s.seen[id]; ok {
		return false, nil
	}
	s.seen[id] = now.Add(s.ttl)
	return true, nil
}

// Close is a no-op; entries are dropped with the store.
func (s *MemoryStore) Close() error { return nil }

// Nop accepts every event.
type Nop struct{}

// Claim implements Store.
func (Nop) Claim(context.Context, string) (bool, error) { return true, nil }

// Close is a no-op.
func (Nop) Close() error { return nil }
