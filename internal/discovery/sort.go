package discovery

import (
	"cmp"
	"slices"
	"time"

	"sweepstakes/internal/domain"
)

type keyed[K any] struct {
	l   domain.Listing
	key K
	ok  bool
}

// Sort returns a stably ordered copy of listings. The input is never touched.
//
// newest and most-popular keep the store order (most-popular has no signal yet).
// ending-soonest treats a listing without a usable end date as equal to
// anything, so such listings hold their relative position.
func Sort(listings []domain.Listing, key domain.SortKey) []domain.Listing {
	switch key {
	case domain.SortEndingSoonest:
		ks := make([]keyed[time.Time], len(listings))
		for i, l := range listings {
			t, ok := endOf(l.EndDate)
			ks[i] = keyed[time.Time]{l: l, key: t, ok: ok}
		}
		slices.SortStableFunc(ks, func(a, b keyed[time.Time]) int {
			if !a.ok || !b.ok {
				return 0
			}
			return a.key.Compare(b.key)
		})
		return unwrap(ks)

	case domain.SortHighestPrize:
		ks := make([]keyed[float64], len(listings))
		for i, l := range listings {
			ks[i] = keyed[float64]{l: l, key: ParseRewardValue(l.Reward), ok: true}
		}
		slices.SortStableFunc(ks, func(a, b keyed[float64]) int { return cmp.Compare(b.key, a.key) })
		return unwrap(ks)

	default:
		return append(make([]domain.Listing, 0, len(listings)), listings...)
	}
}

func unwrap[K any](ks []keyed[K]) []domain.Listing {
	out := make([]domain.Listing, len(ks))
	for i, k := range ks {
		out[i] = k.l
	}
	return out
}
