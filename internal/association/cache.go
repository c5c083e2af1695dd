package association

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "assoc:"

// cachedRepository is a read-through Redis cache in front of another Repository.
// Association rows change only through out-of-band admin tooling, so a short TTL
// bounds staleness. Redis failures fall back to the wrapped repository.
type cachedRepository struct {
	Repository
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedRepository wraps repo with a Redis cache for the id-set lookups.
func NewCachedRepository(repo Repository, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) Repository {
	return &cachedRepository{
		Repository: repo,
		rdb:        rdb,
		ttl:        ttl,
		logger:     logger,
	}
}

func (r *cachedRepository) VendorIDsForCompany(ctx context.Context, companyID string) ([]string, error) {
	return r.cached(ctx, "company-vendors:"+companyID, func() ([]string, error) {
		return r.Repository.VendorIDsForCompany(ctx, companyID)
	})
}

func (r *cachedRepository) CompanyIDsForVendor(ctx context.Context, vendorID string) ([]string, error) {
	return r.cached(ctx, "vendor-companies:"+vendorID, func() ([]string, error) {
		return r.Repository.CompanyIDsForVendor(ctx, vendorID)
	})
}

func (r *cachedRepository) PartnerIDs(ctx context.Context, vendorID string) ([]string, error) {
	return r.cached(ctx, "partners:"+vendorID, func() ([]string, error) {
		return r.Repository.PartnerIDs(ctx, vendorID)
	})
}

func (r *cachedRepository) cached(ctx context.Context, key string, load func() ([]string, error)) ([]string, error) {
	key = cacheKeyPrefix + key

	data, err := r.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var ids []string
		if err := json.Unmarshal(data, &ids); err == nil {
			return ids, nil
		}
		r.logger.Warn("discarding corrupt association cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("association cache read failed", zap.String("key", key), zap.Error(err))
	}

	ids, err := load()
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("encode association cache entry failed: %w", err)
	}
	if err := r.rdb.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		r.logger.Warn("association cache write failed", zap.String("key", key), zap.Error(err))
	}
	return ids, nil
}

// NewRedisClient parses a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
