package cache

import (
	"context"
	"errors"
	"fmt"
	"freight-route-engine/internal/domain"
	"freight-route-engine/internal/ports"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	countKeyPrefix = "freight:offers:count:"
	// Upper bound of a shared count load once no caller is tied to it.
	countLoadTimeout = 5 * time.Second
)

// RedisCountCache decorates an OfferStore with a short-lived Redis cache of
// departing-offer counts, the hot path of return-load risk assessment.
//
// Counts for one city live in a hash keyed by window, so writes touching that
// city drop every window at once. Concurrent misses for the same key are
// coalesced. Redis failures degrade to the underlying store.
type RedisCountCache struct {
	ports.OfferStore
	rdb   *redis.Client
	ttl   time.Duration
	log   *zap.Logger
	group singleflight.Group
}

func NewRedisCountCache(store ports.OfferStore, rdb *redis.Client, ttl time.Duration, log *zap.Logger) (*RedisCountCache, error) {
	if store == nil {
		return nil, errors.New("redis count cache: store is nil")
	}
	if rdb == nil {
		return nil, errors.New("redis count cache: redis client is nil")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisCountCache{OfferStore: store, rdb: rdb, ttl: ttl, log: log}, nil
}

func countKey(cityID domain.CityID) string { return countKeyPrefix + cityID.String() }

func (c *RedisCountCache) CountOffersDepartingCity(ctx context.Context, cityID domain.CityID, windowDays int) (int, error) {
	key := countKey(cityID)
	field := strconv.Itoa(windowDays)

	val, err := c.rdb.HGet(ctx, key, field).Result()
	switch {
	case err == nil:
		if n, convErr := strconv.Atoi(val); convErr == nil {
			return n, nil
		}
		c.log.Warn("discarding malformed cached count", zap.String("key", key), zap.String("value", val))
	case !errors.Is(err, redis.Nil):
		c.log.Warn("count cache read failed", zap.String("key", key), zap.Error(err))
	}

	// The shared load outlives any one caller; each caller still stops waiting on its own ctx.
	ch := c.group.DoChan(key+"/"+field, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), countLoadTimeout)
		defer cancel()

		n, err := c.OfferStore.CountOffersDepartingCity(loadCtx, cityID, windowDays)
		if err != nil {
			return 0, err
		}

		pipe := c.rdb.TxPipeline()
		pipe.HSet(loadCtx, key, field, n)
		pipe.Expire(loadCtx, key, c.ttl)
		if _, err := pipe.Exec(loadCtx); err != nil {
			c.log.Warn("count cache write failed", zap.String("key", key), zap.Error(err))
		}
		return n, nil
	})

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(int), nil
	}
}

func (c *RedisCountCache) InsertOffer(ctx context.Context, offer domain.Offer) (int64, error) {
	id, err := c.OfferStore.InsertOffer(ctx, offer)
	if err != nil {
		return 0, err
	}
	c.invalidate(ctx, offer.Origin)
	return id, nil
}

func (c *RedisCountCache) CorrectOffer(ctx context.Context, id int64, corr domain.Correction) error {
	before, err := c.OfferStore.GetOffer(ctx, id)
	if err != nil {
		return err
	}
	if err := c.OfferStore.CorrectOffer(ctx, id, corr); err != nil {
		return err
	}
	c.invalidate(ctx, before.Origin, corr.Origin)
	return nil
}

// Invalidate drops cached counts for the given cities.
func (c *RedisCountCache) Invalidate(ctx context.Context, cities ...domain.CityID) error {
	if len(cities) == 0 {
		return nil
	}
	keys := make([]string, 0, len(cities))
	for _, id := range cities {
		keys = append(keys, countKey(id))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate count cache: %w", err)
	}
	return nil
}

func (c *RedisCountCache) invalidate(ctx context.Context, cities ...domain.CityID) {
	if err := c.Invalidate(ctx, cities...); err != nil {
		c.log.Warn("count cache invalidation failed", zap.Error(err))
	}
}
