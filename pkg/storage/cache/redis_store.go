package cache

import (
	"context"
	"fmt"
	"io"
	"time"

	"minivcs/pkg/core"
	"minivcs/pkg/logging"
	"minivcs/pkg/storage"
	"minivcs/pkg/types"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CachedStore decorates a storage.Store with a Redis existence cache.
// Only "key exists" facts are cached; object bodies always come from the
// backend. Objects are immutable and never deleted, but a repository removed
// and recreated under the same namespace can leave stale markers behind, so
// callers that must not trust a stale "exists" ask Backend directly.
type CachedStore struct {
	backend   storage.Store
	client    *redis.Client
	ttl       time.Duration
	namespace string
	log       *zap.Logger
}

type Config struct {
	RedisURL string        // redis://<user>:<password>@<host>:<port>/<db>
	TTL      time.Duration // expiry of existence markers
	// Namespace separates backends sharing one Redis. Two stores must never
	// share a namespace, or one would believe it holds the other's objects.
	Namespace string
	Logger    *zap.Logger // optional
}

func NewCachedStore(backend storage.Store, cfg Config) (*CachedStore, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	// fail fast on a bad address instead of on the first commit
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}

	return &CachedStore{
		backend:   backend,
		client:    client,
		ttl:       cfg.TTL,
		namespace: cfg.Namespace,
		log:       log.Named("cache"),
	}, nil
}

func (s *CachedStore) Close() error { return s.client.Close() }

// Backend returns the wrapped store, bypassing the cache.
func (s *CachedStore) Backend() storage.Store { return s.backend }

func (s *CachedStore) cacheKey(hash types.Hash) string {
	return "minivcs:" + s.namespace + ":obj:" + string(hash)
}

// Has answers from Redis when it can and falls back to the backend.
func (s *CachedStore) Has(ctx context.Context, hash types.Hash) (bool, error) {
	key := s.cacheKey(hash)

	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		// a broken cache degrades to the uncached path
		s.log.Warn("redis exists failed", zap.String("hash", hash.String()), zap.Error(err))
	} else if val > 0 {
		return true, nil
	}

	found, err := s.backend.Has(ctx, hash)
	if err != nil {
		return false, err
	}

	if found {
		// fill in the background with its own deadline
		go func() {
			fillCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			s.client.Set(fillCtx, key, "1", s.ttl)
		}()
	}

	return found, nil
}

// Put skips the upload when the cache already knows the key.
func (s *CachedStore) Put(ctx context.Context, obj core.Object) error {
	exists, err := s.Has(ctx, obj.ID())
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := s.backend.Put(ctx, obj); err != nil {
		return err
	}

	// mark only after the backend write succeeded
	if err := s.client.Set(ctx, s.cacheKey(obj.ID()), "1", s.ttl).Err(); err != nil {
		s.log.Warn("redis set failed", zap.String("hash", obj.ID().String()), zap.Error(err))
	}
	return nil
}

func (s *CachedStore) Get(ctx context.Context, hash types.Hash) (io.ReadCloser, error) {
	return s.backend.Get(ctx, hash)
}

func (s *CachedStore) ExpandHash(ctx context.Context, short types.HashPrefix) (types.Hash, error) {
	return s.backend.ExpandHash(ctx, short)
}

func (s *CachedStore) List(ctx context.Context) ([]types.Hash, error) {
	return s.backend.List(ctx)
}
