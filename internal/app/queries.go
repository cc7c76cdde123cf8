package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"sweepstakes/internal/discovery"
	"sweepstakes/internal/domain"
)

// DefaultSnapshotLimit bounds one collection view read from the store.
const DefaultSnapshotLimit = 10000

type QueryService struct {
	repo     domain.ListingRepository
	cache    domain.Cache
	cacheTTL time.Duration
	clock    domain.Clock
	limit    int
}

func NewQueryService(r domain.ListingRepository, c domain.Cache, ttl time.Duration, clock domain.Clock) *QueryService {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &QueryService{repo: r, cache: c, cacheTTL: ttl, clock: clock, limit: DefaultSnapshotLimit}
}

// WithSnapshotLimit caps how many listings one view reads. Featured and
// browse rank only the newest n, so n should exceed the collection size.
func (s *QueryService) WithSnapshotLimit(n int) *QueryService {
	if n > 0 {
		s.limit = n
	}
	return s
}

// Browse runs one filter+sort pass over a single snapshot of the collection.
func (s *QueryService) Browse(ctx context.Context, c domain.FilterCriteria, resolvedCountry string) ([]domain.Listing, error) {
	all, err := s.snapshot(ctx, nil)
	if err != nil {
		return nil, err
	}
	country := discovery.CountryFor(c.Country, resolvedCountry)
	return discovery.Sort(discovery.Filter(all, c, country), c.Sort), nil
}

// Featured ranks the unfiltered collection.
func (s *QueryService) Featured(ctx context.Context) ([]domain.Listing, error) {
	all, err := s.snapshot(ctx, nil)
	if err != nil {
		return nil, err
	}
	return discovery.Featured(all), nil
}

func (s *QueryService) GetListing(ctx context.Context, id string) (domain.Listing, error) {
	return s.repo.GetListing(ctx, id)
}

// Category serves a curated category page; only country eligibility applies.
func (s *QueryService) Category(ctx context.Context, slug, country string) (domain.CategoryPage, []domain.Listing, error) {
	page, ok := domain.LookupCategoryPage(slug)
	if !ok {
		return domain.CategoryPage{}, nil, domain.ErrNotFound
	}
	items, err := s.snapshot(ctx, &page.StoreValue)
	if err != nil {
		return domain.CategoryPage{}, nil, err
	}
	return page, discovery.Filter(items, domain.FilterCriteria{Category: domain.AllCategories}, country), nil
}

// Countdown reports ok=false when the listing has no usable end date.
func (s *QueryService) Countdown(ctx context.Context, id string) (l domain.Listing, c discovery.Countdown, ok bool, err error) {
	l, err = s.repo.GetListing(ctx, id)
	if err != nil {
		return domain.Listing{}, discovery.Countdown{}, false, err
	}
	c, ok = discovery.ComputeFor(l, s.clock.Now())
	return l, c, ok, nil
}

func (s *QueryService) Stats(ctx context.Context) (domain.Stats, error) {
	now := s.clock.Now()
	total, recent, err := s.repo.CountSince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		return domain.Stats{}, err
	}
	return domain.Stats{Total: total, NewToday: recent, UpdatedAt: now}, nil
}

// snapshot reads the collection newest-first, through the cache.
func (s *QueryService) snapshot(ctx context.Context, category *string) ([]domain.Listing, error) {
	key := snapshotKey(category)
	var out []domain.Listing
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}
	out, err := s.repo.ListListings(ctx, domain.ListingsQuery{Category: category, Limit: s.limit})
	if err != nil {
		return nil, err
	}
	if len(out) >= s.limit {
		log.Warn().Int("limit", s.limit).Str("key", key).Msg("listing snapshot truncated at limit")
	}
	if out == nil {
		out = []domain.Listing{}
	}
	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds())); err != nil {
			log.Debug().Err(err).Str("key", key).Msg("listing snapshot cache write failed")
		}
	}
	return out, nil
}

const snapshotPrefix = "listings:"

func snapshotKey(category *string) string {
	if category == nil {
		return snapshotPrefix + "all"
	}
	return snapshotPrefix + "cat:" + *category
}
