package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memDurable is an in-memory DurableStore for tests.
type memDurable struct {
	mu         sync.Mutex
	docs       map[string][]byte
	failWrites bool
	writes     int
}

func newMemDurable() *memDurable {
	return &memDurable{docs: make(map[string][]byte)}
}

func (d *memDurable) Read(_ context.Context, path string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.docs[path]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return b, nil
}

func (d *memDurable) Write(_ context.Context, path string, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writes++
	if d.failWrites {
		return errors.New("durable tier down")
	}
	d.docs[path] = append([]byte(nil), data...)
	return nil
}

func (d *memDurable) Exists(_ context.Context, path string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.docs[path]
	return ok, nil
}

// fakeClock lets tests advance time deterministically.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestPutGetRoundTrip(t *testing.T) {
	s := NewMemoryStore(nil)
	q := NewQuery("series", map[string]string{"tenor": "10Y"})

	s.Put(q, []byte(`{"rows":3}`), 60)

	payload, hit, age := s.Get(q)
	require.True(t, hit)
	assert.JSONEq(t, `{"rows":3}`, string(payload))
	assert.LessOrEqual(t, age, 1.0)
}

func TestGetMiss(t *testing.T) {
	s := NewMemoryStore(nil)

	_, hit, _ := s.Get(NewQuery("series", map[string]string{"tenor": "5Y"}))
	assert.False(t, hit)
	assert.Equal(t, uint64(1), s.Stats().Misses)
}

func TestTTLExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(nil, WithClock(clock.Now))
	q := NewQuery("series", map[string]string{"tenor": "10Y"})

	s.Put(q, []byte(`1`), 30)

	clock.Advance(29 * time.Minute)
	_, hit, age := s.Get(q)
	require.True(t, hit)
	assert.InDelta(t, 29.0, age, 0.01)

	clock.Advance(2 * time.Minute)
	_, hit, _ = s.Get(q)
	assert.False(t, hit)
	assert.Equal(t, uint64(1), s.Stats().Evictions)
}

func TestFlushThresholdResetsOnSuccess(t *testing.T) {
	durable := newMemDurable()
	s := NewMemoryStore(durable, WithFlushThreshold(3))

	for i, tenor := range []string{"5Y", "10Y", "30Y"} {
		s.Put(NewQuery("series", map[string]string{"tenor": tenor}), []byte(`1`), 60)
		if i < 2 {
			dirty, ops := s.Dirty()
			assert.True(t, dirty)
			assert.Equal(t, i+1, ops)
		}
	}

	// Third mutation triggers a background flush.
	require.Eventually(t, func() bool {
		dirty, ops := s.Dirty()
		return !dirty && ops == 0
	}, 2*time.Second, 10*time.Millisecond)

	s.Put(NewQuery("series", map[string]string{"tenor": "13W"}), []byte(`1`), 60)
	dirty, ops := s.Dirty()
	assert.True(t, dirty)
	assert.Equal(t, 1, ops)
}

func TestFlushFailureKeepsCounter(t *testing.T) {
	durable := newMemDurable()
	durable.failWrites = true
	s := NewMemoryStore(durable, WithFlushThreshold(2))

	s.Put(NewQuery("series", map[string]string{"tenor": "5Y"}), []byte(`1`), 60)
	s.Put(NewQuery("series", map[string]string{"tenor": "10Y"}), []byte(`1`), 60)

	require.Eventually(t, func() bool {
		return s.Stats().FlushFails >= 1
	}, 2*time.Second, 10*time.Millisecond)

	// Counter resets only on a successful flush.
	dirty, ops := s.Dirty()
	assert.True(t, dirty)
	assert.Equal(t, 2, ops)

	// Callers never see persistence failures.
	_, hit, _ := s.Get(NewQuery("series", map[string]string{"tenor": "10Y"}))
	assert.True(t, hit)
}

func TestSnapshotRoundTripAndPromotion(t *testing.T) {
	durable := newMemDurable()
	ctx := context.Background()

	first := NewMemoryStore(durable)
	q := NewQuery("series", map[string]string{"tenor": "30Y"})
	first.Put(q, []byte(`{"v":42}`), 60)
	require.NoError(t, first.Flush(ctx, true))

	// A fresh process loads the snapshot and promotes on first access.
	second := NewMemoryStore(durable)
	require.NoError(t, second.Load(ctx))
	require.Equal(t, 0, second.Len())

	payload, hit, _ := second.Get(q)
	require.True(t, hit)
	assert.JSONEq(t, `{"v":42}`, string(payload))
	assert.Equal(t, uint64(1), second.Stats().Promotions)
	assert.Equal(t, 1, second.Len())
}

func TestLoadExpiredSnapshotEntryIsMiss(t *testing.T) {
	durable := newMemDurable()
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)}

	first := NewMemoryStore(durable, WithClock(clock.Now))
	q := NewQuery("series", map[string]string{"tenor": "10Y"})
	first.Put(q, []byte(`1`), 15)
	require.NoError(t, first.Flush(ctx, true))

	clock.Advance(16 * time.Minute)
	second := NewMemoryStore(durable, WithClock(clock.Now))
	require.NoError(t, second.Load(ctx))

	_, hit, _ := second.Get(q)
	assert.False(t, hit)
}

func TestInvalidateByPrefixBothTiers(t *testing.T) {
	durable := newMemDurable()
	ctx := context.Background()

	s := NewMemoryStore(durable)
	series := NewQuery("series", map[string]string{"tenor": "10Y"})
	baseline := NewQuery("baseline", map[string]string{"tenor": "10Y"})
	s.Put(series, []byte(`1`), 60)
	s.Put(baseline, []byte(`2`), 60)
	require.NoError(t, s.Flush(ctx, true))

	removed := s.Invalidate(ctx, "series:")
	assert.Equal(t, 1, removed)

	_, hit, _ := s.Get(series)
	assert.False(t, hit)
	_, hit, _ = s.Get(baseline)
	assert.True(t, hit)

	// The durable snapshot no longer carries the invalidated entry.
	fresh := NewMemoryStore(durable)
	require.NoError(t, fresh.Load(ctx))
	_, hit, _ = fresh.Get(series)
	assert.False(t, hit)
	_, hit, _ = fresh.Get(baseline)
	assert.True(t, hit)
}

func TestFlushNoopWhenClean(t *testing.T) {
	durable := newMemDurable()
	s := NewMemoryStore(durable)

	require.NoError(t, s.Flush(context.Background(), false))
	assert.Equal(t, 0, durable.writes)
}

func TestLoadCorruptSnapshotFails(t *testing.T) {
	durable := newMemDurable()
	durable.docs["yieldscope/cache_snapshot.json"] = []byte(`{not json`)

	s := NewMemoryStore(durable)
	err := s.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
}

func TestConcurrentPutGet(t *testing.T) {
	s := NewMemoryStore(newMemDurable(), WithFlushThreshold(5))
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			tenors := []string{"5Y", "10Y", "30Y", "13W"}
			for j := 0; j < 50; j++ {
				q := NewQuery("series", map[string]string{"tenor": tenors[(n+j)%len(tenors)]})
				s.Put(q, []byte(`1`), 60)
				s.Get(q)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 4, s.Len())
}
