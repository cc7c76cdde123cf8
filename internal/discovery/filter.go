package discovery

import (
	"regexp"
	"strings"

	"sweepstakes/internal/domain"
)

var spaceRun = regexp.MustCompile(`\s+`)

// globalCode in an eligibility set means "everywhere".
const globalCode = "GLOBAL"

// NormalizeCategory lower-cases and hyphenates whitespace runs: "Cash Prizes" -> "cash-prizes".
func NormalizeCategory(category string) string {
	return spaceRun.ReplaceAllString(strings.ToLower(category), "-")
}

// Filter keeps the listings matching every predicate of c, in input order.
// country is the code used for eligibility; empty never excludes anything.
func Filter(listings []domain.Listing, c domain.FilterCriteria, country string) []domain.Listing {
	out := make([]domain.Listing, 0, len(listings))
	search := strings.ToLower(c.Search)
	for _, l := range listings {
		if !matchesSearch(l, search) || !matchesCategory(l, c.Category) || !Eligible(l, country) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func matchesSearch(l domain.Listing, lowered string) bool {
	if lowered == "" {
		return true
	}
	return strings.Contains(strings.ToLower(l.Name), lowered) ||
		strings.Contains(strings.ToLower(l.Reward), lowered)
}

func matchesCategory(l domain.Listing, selector string) bool {
	if selector == "" || selector == domain.AllCategories {
		return true
	}
	return NormalizeCategory(l.Category) == selector
}

// Eligible reports whether l may be shown to a visitor from country.
func Eligible(l domain.Listing, country string) bool {
	if country == "" || len(l.EligibleCountries) == 0 {
		return true
	}
	for _, c := range l.EligibleCountries {
		if strings.EqualFold(c, country) || strings.EqualFold(c, globalCode) {
			return true
		}
	}
	return false
}

// CountryFor picks the eligibility code for one pass: an explicit selector
// wins, "all" disables the predicate, otherwise the resolved code is used.
func CountryFor(selector, resolved string) string {
	switch {
	case strings.EqualFold(selector, domain.AllCountries):
		return ""
	case selector != "":
		return strings.ToUpper(selector)
	default:
		return resolved
	}
}
