package app_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"sweepstakes/internal/domain"
)

// ---- fakes ----

type fakeRepo struct {
	mu       sync.Mutex
	items    []domain.Listing // newest first
	lists    int32
	upserted []domain.Listing
}

func (f *fakeRepo) UpsertListing(ctx context.Context, l domain.Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, l)
	return nil
}

func (f *fakeRepo) ListListings(ctx context.Context, q domain.ListingsQuery) ([]domain.Listing, error) {
	atomic.AddInt32(&f.lists, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Listing
	for _, l := range f.items {
		if q.Category != nil && l.Category != *q.Category {
			continue
		}
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeRepo) GetListing(ctx context.Context, id string) (domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.items {
		if l.ID == id {
			return l, nil
		}
	}
	return domain.Listing{}, domain.ErrNotFound
}

func (f *fakeRepo) CountSince(ctx context.Context, since time.Time) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	recent := 0
	for _, l := range f.items {
		if !l.CreatedAt.Before(since) {
			recent++
		}
	}
	return len(f.items), recent, nil
}

// fakeCache round-trips through JSON like the redis adapter does.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	ttls  map[string]int
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
		c.ttls = map[string]int{}
	}
	c.store[key] = b
	c.ttls[key] = ttlSec
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

func (c *fakeCache) DelPrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.store {
		if strings.HasPrefix(k, prefix) {
			delete(c.store, k)
			c.dels = append(c.dels, k)
		}
	}
	return nil
}

type fakeGeo struct {
	calls   int32
	gate    chan struct{} // when non-nil, Locate blocks until closed
	payload map[string]any
	err     error
}

func (g *fakeGeo) Locate(ctx context.Context, ip string) (map[string]any, error) {
	atomic.AddInt32(&g.calls, 1)
	if g.gate != nil {
		<-g.gate
	}
	return g.payload, g.err
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func ptr[T any](v T) *T { return &v }

func ids(ls []domain.Listing) []string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.ID)
	}
	return out
}
