package discovery

import "sweepstakes/internal/domain"

// FeaturedCount is the size of the featured surface.
const FeaturedCount = 3

// Featured picks the top listings by reward value from the unfiltered set.
func Featured(listings []domain.Listing) []domain.Listing {
	return Top(listings, FeaturedCount)
}

// Top returns at most n listings ordered by descending reward value, ties in input order.
func Top(listings []domain.Listing, n int) []domain.Listing {
	ranked := Sort(listings, domain.SortHighestPrize)
	if n < 0 {
		n = 0
	}
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
