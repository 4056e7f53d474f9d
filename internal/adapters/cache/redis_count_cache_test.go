package cache

import (
	"context"
	"freight-route-engine/internal/adapters/repositories"
	"freight-route-engine/internal/domain"
	"freight-route-engine/internal/ports"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type countingStore struct {
	ports.OfferStore
	counts atomic.Int64
}

func (s *countingStore) CountOffersDepartingCity(ctx context.Context, cityID domain.CityID, windowDays int) (int, error) {
	s.counts.Add(1)
	return s.OfferStore.CountOffersDepartingCity(ctx, cityID, windowDays)
}

func newCountCache(t *testing.T) (*RedisCountCache, *countingStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	mem := repositories.NewMemoryOfferRepository()
	mem.AddCity(domain.City{ID: 1, Name: "Berlin"})
	mem.AddCity(domain.City{ID: 2, Name: "Hamburg"})
	for i := 0; i < 4; i++ {
		_, err := mem.InsertOffer(context.Background(), domain.Offer{Origin: 1, Destination: 2})
		require.NoError(t, err)
	}

	store := &countingStore{OfferStore: mem}
	c, err := NewRedisCountCache(store, rdb, time.Minute, zaptest.NewLogger(t))
	require.NoError(t, err)
	return c, store, mr
}

func TestRedisCountCacheHitAndExpiry(t *testing.T) {
	c, store, mr := newCountCache(t)
	ctx := context.Background()

	n, err := c.CountOffersDepartingCity(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = c.CountOffersDepartingCity(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, int64(1), store.counts.Load())
	assert.Equal(t, "4", mr.HGet(countKey(1), "7"))

	// a different window is a different field
	_, err = c.CountOffersDepartingCity(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), store.counts.Load())

	mr.FastForward(2 * time.Minute)
	_, err = c.CountOffersDepartingCity(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), store.counts.Load())
}

func TestRedisCountCacheInvalidatesOnWrite(t *testing.T) {
	c, store, mr := newCountCache(t)
	ctx := context.Background()

	_, err := c.CountOffersDepartingCity(ctx, 1, 7)
	require.NoError(t, err)

	id, err := c.InsertOffer(ctx, domain.Offer{Origin: 1, Destination: 2})
	require.NoError(t, err)
	assert.False(t, mr.Exists(countKey(1)))

	n, err := c.CountOffersDepartingCity(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, int64(2), store.counts.Load())

	_, err = c.CountOffersDepartingCity(ctx, 2, 7)
	require.NoError(t, err)
	require.NoError(t, c.CorrectOffer(ctx, id, domain.Correction{Origin: 2, Destination: 1}))
	assert.False(t, mr.Exists(countKey(1)))
	assert.False(t, mr.Exists(countKey(2)))

	n, err = c.CountOffersDepartingCity(ctx, 2, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRedisCountCacheDoesNotCacheErrors(t *testing.T) {
	c, _, mr := newCountCache(t)

	_, err := c.CountOffersDepartingCity(context.Background(), 99, 7)
	assert.ErrorIs(t, err, domain.ErrCityNotFound)
	assert.False(t, mr.Exists(countKey(99)))
}

func TestRedisCountCacheFallsBackWhenRedisDown(t *testing.T) {
	c, store, mr := newCountCache(t)
	mr.Close()

	n, err := c.CountOffersDepartingCity(context.Background(), 1, 7)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, int64(1), store.counts.Load())
}

func TestRedisCountCacheCoalescesMisses(t *testing.T) {
	c, store, _ := newCountCache(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := c.CountOffersDepartingCity(ctx, 1, 7)
			assert.NoError(t, err)
			assert.Equal(t, 4, n)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, store.counts.Load(), int64(20))
	assert.GreaterOrEqual(t, store.counts.Load(), int64(1))
}

// gatedStore holds every count until release is closed and records the
// context state the count finished with.
type gatedStore struct {
	ports.OfferStore
	started chan struct{}
	release chan struct{}
	once    sync.Once

	mu      sync.Mutex
	ctxErrs []error
}

func (s *gatedStore) CountOffersDepartingCity(ctx context.Context, cityID domain.CityID, windowDays int) (int, error) {
	s.once.Do(func() { close(s.started) })
	<-s.release

	s.mu.Lock()
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.OfferStore.CountOffersDepartingCity(ctx, cityID, windowDays)
}

func TestRedisCountCacheSharedLoadSurvivesCallerCancel(t *testing.T) {
	c, counting, _ := newCountCache(t)
	gate := &gatedStore{OfferStore: counting.OfferStore, started: make(chan struct{}), release: make(chan struct{})}
	c.OfferStore = gate

	first, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.CountOffersDepartingCity(first, 1, 7)
		firstErr <- err
	}()
	<-gate.started

	type result struct {
		n   int
		err error
	}
	second := make(chan result, 1)
	go func() {
		n, err := c.CountOffersDepartingCity(context.Background(), 1, 7)
		second <- result{n, err}
	}()

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(gate.release)
	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, 4, res.n)

	gate.mu.Lock()
	defer gate.mu.Unlock()
	require.NotEmpty(t, gate.ctxErrs)
	for _, err := range gate.ctxErrs {
		assert.NoError(t, err)
	}
}

func TestNewRedisCountCacheValidates(t *testing.T) {
	_, err := NewRedisCountCache(nil, redis.NewClient(&redis.Options{}), time.Second, nil)
	assert.Error(t, err)
	_, err = NewRedisCountCache(repositories.NewMemoryOfferRepository(), nil, time.Second, nil)
	assert.Error(t, err)
}
