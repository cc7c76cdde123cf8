package domain

import "sort"

// CategoryPage is a curated landing page backed by one store category.
type CategoryPage struct {
	Slug        string
	Title       string
	StoreValue  string // exact category value in the listing store
	Description string
}

var categoryPages = map[string]CategoryPage{
	"cash-sweepstakes": {
		Slug: "cash-sweepstakes", Title: "Cash Sweepstakes", StoreValue: "Cash",
		Description: "Win real cash prizes with free-to-enter sweepstakes",
	},
	"electronics-giveaways": {
		Slug: "electronics-giveaways", Title: "Electronics Giveaways", StoreValue: "Tech & Gadgets",
		Description: "Win the latest tech and electronics",
	},
	"travel-sweepstakes": {
		Slug: "travel-sweepstakes", Title: "Travel Sweepstakes", StoreValue: "Travel",
		Description: "Win dream vacations and travel packages",
	},
	"gaming-giveaways": {
		Slug: "gaming-giveaways", Title: "Gaming Giveaways", StoreValue: "Gaming",
		Description: "Win gaming consoles, games, and accessories",
	},
	"grocery-sweepstakes": {
		Slug: "grocery-sweepstakes", Title: "Grocery Sweepstakes", StoreValue: "Groceries",
		Description: "Win gift cards and grocery prizes",
	},
	"automotive-sweepstakes": {
		Slug: "automotive-sweepstakes", Title: "Automotive Sweepstakes", StoreValue: "Automotive",
		Description: "Win cars, trucks, and automotive prizes",
	},
}

func LookupCategoryPage(slug string) (CategoryPage, bool) {
	p, ok := categoryPages[slug]
	return p, ok
}

// CategoryPages returns every page ordered by slug.
func CategoryPages() []CategoryPage {
	out := make([]CategoryPage, 0, len(categoryPages))
	for _, p := range categoryPages {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}
