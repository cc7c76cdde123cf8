package app

import (
	"context"
	"net"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"sweepstakes/internal/adapters/observability"
	"sweepstakes/internal/domain"
)

const (
	// DefaultGeoTTL is how long a resolved country is served from cache.
	DefaultGeoTTL = 24 * time.Hour
	// DefaultLookupTimeout bounds one shared outbound lookup, rate limiter wait included.
	DefaultLookupTimeout = 5 * time.Second
)

// GeoResolver determines a visitor's country. Fresh cache entries are served
// without network access; concurrent misses for the same visitor share one
// outbound lookup. Failures are never retried and never cached.
type GeoResolver struct {
	client domain.GeoClient
	cache  domain.Cache
	clock  domain.Clock
	ttl     time.Duration
	timeout time.Duration
	group   singleflight.Group
}

func NewGeoResolver(c domain.GeoClient, cache domain.Cache, clock domain.Clock, ttl, lookupTimeout time.Duration) *GeoResolver {
	if clock == nil {
		clock = domain.SystemClock
	}
	if ttl <= 0 {
		ttl = DefaultGeoTTL
	}
	if lookupTimeout <= 0 {
		lookupTimeout = DefaultLookupTimeout
	}
	return &GeoResolver{client: c, cache: cache, clock: clock, ttl: ttl, timeout: lookupTimeout}
}

type resolved struct {
	entry  domain.GeoCacheEntry
	cached bool
}

// Resolve never fails: on error it returns an empty country with Failed set.
// It returns no later than ctx allows; a caller that gives up does not cancel
// the shared lookup.
func (r *GeoResolver) Resolve(ctx context.Context, ip string) domain.Resolution {
	if unroutable(ip) {
		observability.ObserveGeo("failed")
		return domain.Resolution{Failed: true}
	}

	key := geoKey(ip)
	if e, ok := r.fresh(ctx, key); ok {
		observability.ObserveGeo("cached")
		return domain.Resolution{Country: e.Country(), Cached: true}
	}

	ch := r.group.DoChan(key, func() (any, error) {
		// detached from the first caller, bounded on its own
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		// another flight may have filled the entry since our first read
		if e, ok := r.fresh(lctx, key); ok {
			return resolved{entry: e, cached: true}, nil
		}
		payload, err := r.client.Locate(lctx, ip)
		if err != nil {
			return nil, err
		}
		c, err := mapCountry(payload)
		if err != nil {
			return nil, err
		}
		e := domain.GeoCacheEntry{Code: c.Code, Name: c.Name, Timestamp: r.clock.Now()}
		// freshness is judged against the clock; the store TTL only reclaims abandoned keys
		if err := r.cache.Set(lctx, key, e, r.storeTTL()); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("geo cache write failed")
		}
		return resolved{entry: e}, nil
	})

	var out singleflight.Result
	select {
	case out = <-ch:
	case <-ctx.Done():
		log.Warn().Err(ctx.Err()).Str("ip", ip).Msg("location lookup outlived the request")
		observability.ObserveGeo("failed")
		return domain.Resolution{Failed: true}
	}
	if out.Err != nil {
		log.Warn().Err(out.Err).Str("ip", ip).Str("err_type", observability.LabelErr(out.Err)).Bool("shared", out.Shared).Msg("could not detect location")
		observability.ObserveGeo("failed")
		return domain.Resolution{Failed: true}
	}

	res := out.Val.(resolved)
	if res.cached {
		observability.ObserveGeo("cached")
	} else {
		observability.ObserveGeo("lookup")
	}
	return domain.Resolution{Country: res.entry.Country(), Cached: res.cached}
}

// fresh returns the cache entry for key when it is younger than the TTL.
// A cache error is treated as a miss.
func (r *GeoResolver) fresh(ctx context.Context, key string) (domain.GeoCacheEntry, bool) {
	var e domain.GeoCacheEntry
	ok, err := r.cache.Get(ctx, key, &e)
	if err != nil {
		log.Debug().Err(err).Str("key", key).Msg("geo cache read failed")
		return domain.GeoCacheEntry{}, false
	}
	if !ok || !e.Fresh(r.clock.Now(), r.ttl) {
		return domain.GeoCacheEntry{}, false
	}
	return e, true
}

// storeTTL is the redis expiry in seconds, twice the freshness window.
func (r *GeoResolver) storeTTL() int {
	return int((2 * r.ttl).Seconds())
}

func geoKey(ip string) string {
	if ip == "" {
		return "geo:self"
	}
	return "geo:" + ip
}

// unroutable reports addresses no public geolocation service can place.
func unroutable(ip string) bool {
	if ip == "" {
		return false
	}
	p := net.ParseIP(ip)
	return p == nil || p.IsLoopback() || p.IsPrivate() || p.IsUnspecified() || p.IsLinkLocalUnicast()
}
