package domain

import "time"

// Listing is a single time-boxed promotional offer as read from the store.
type Listing struct {
	ID                 string
	Name               string
	Logo               string
	Reward             string // free text, never parsed as money
	Category           string
	AffLink            string
	EndDate            *string // ISO date or datetime, nil when open-ended
	CustomInstructions *string
	EligibleCountries  []string // empty => eligible everywhere
	CreatedAt          time.Time
}

type SortKey string

const (
	SortNewest        SortKey = "newest"
	SortEndingSoonest SortKey = "ending-soonest"
	SortMostPopular   SortKey = "most-popular"
	SortHighestPrize  SortKey = "highest-prize"
)

// ParseSortKey accepts the canonical keys and the short UI aliases.
// Anything else falls back to SortNewest.
func ParseSortKey(s string) SortKey {
	switch s {
	case string(SortEndingSoonest), "ending":
		return SortEndingSoonest
	case string(SortMostPopular), "popular":
		return SortMostPopular
	case string(SortHighestPrize), "prize-high":
		return SortHighestPrize
	default:
		return SortNewest
	}
}

// AllCategories is the category selector that disables the category predicate.
const AllCategories = "all"

// AllCountries disables the country predicate when used as a selector.
const AllCountries = "all"

type FilterCriteria struct {
	Search   string
	Category string // "all" or a normalized category
	Country  string // explicit selector; "" means use the resolved country
	Sort     SortKey
}

type ListingsQuery struct {
	Category *string // exact store category, nil for all
	Limit    int
}

type Stats struct {
	Total     int
	NewToday  int
	UpdatedAt time.Time
}
