package domain

import (
	"context"
	"time"
)

type ListingRepository interface {
	// Write paths
	UpsertListing(ctx context.Context, l Listing) error

	// Read paths
	ListListings(ctx context.Context, q ListingsQuery) ([]Listing, error) // newest first
	GetListing(ctx context.Context, id string) (Listing, error)
	CountSince(ctx context.Context, since time.Time) (total, recent int, err error)
}

// GeoClient returns the raw geolocation payload for an IP (empty for "the caller").
type GeoClient interface {
	Locate(ctx context.Context, ip string) (map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
	DelPrefix(ctx context.Context, prefix string) error
}

type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads wall-clock time.
var SystemClock Clock = ClockFunc(time.Now)
