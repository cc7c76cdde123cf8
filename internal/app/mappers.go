package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"sweepstakes/internal/domain"
)

/********** alias registries (single source of truth) **********/

var geoAliases = map[string][]string{
	"code":  {"country_code", "countryCode", "location.country_code"},
	"name":  {"country_name", "countryName", "location.country_name"},
	"error": {"reason", "message"},
}

var listingAliases = map[string][]string{
	"id":           {"id", "listing_id", "uuid"},
	"name":         {"name", "title"},
	"logo":         {"logo", "logo_url", "image"},
	"reward":       {"reward", "prize", "prize_description"},
	"category":     {"category", "category_name"},
	"aff_link":     {"aff_link", "affLink", "link", "url"},
	"end_date":     {"end_date", "endDate", "ends_at", "endsAt"},
	"instructions": {"custom_instructions", "customInstructions", "instructions"},
	"created_at":   {"created_at", "createdAt"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns trimmed string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) string {
	for _, p := range aliases[key] {
		if s := lookupStr(m, p); s != "" {
			return s
		}
	}
	return ""
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// firstSliceStrings: accept []any of strings, or a single comma separated string.
func firstSliceStrings(m map[string]any, paths ...string) []string {
	for _, k := range paths {
		switch raw := lookupAny(m, k).(type) {
		case []any:
			out := make([]string, 0, len(raw))
			for _, it := range raw {
				if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
					out = append(out, strings.TrimSpace(s))
				}
			}
			if len(out) > 0 {
				return out
			}
		case string:
			var out []string
			for _, s := range strings.Split(raw, ",") {
				if t := strings.TrimSpace(s); t != "" {
					out = append(out, t)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

func isCountryCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

/********** geolocation mapper **********/

// mapCountry reads a geolocation payload. ipapi.co style ("country" is a
// code) and ip-api style ("country" is a name) are both accepted.
func mapCountry(p map[string]any) (domain.Country, error) {
	if p == nil {
		return domain.Country{}, fmt.Errorf("empty payload: %w", domain.ErrMalformed)
	}
	if failed, _ := p["error"].(bool); failed {
		return domain.Country{}, fmt.Errorf("%s: %w", firstNonEmptyAlias(p, geoAliases, "error"), domain.ErrLookupFailed)
	}
	if status := lookupStr(p, "status"); status == "fail" {
		return domain.Country{}, fmt.Errorf("%s: %w", firstNonEmptyAlias(p, geoAliases, "error"), domain.ErrLookupFailed)
	}

	code := firstNonEmptyAlias(p, geoAliases, "code")
	name := firstNonEmptyAlias(p, geoAliases, "name")
	if c := lookupStr(p, "country"); c != "" {
		switch {
		case code == "" && isCountryCode(c):
			code = c
		case name == "" && !isCountryCode(c):
			name = c
		}
	}
	code = strings.ToUpper(code)
	if name == "" && code != "" {
		name = domain.CountryName(code)
	}
	return domain.Country{Code: code, Name: name}, nil
}

/********** listing import mapper **********/

func mapListing(rec map[string]any, now time.Time) (domain.Listing, error) {
	l := domain.Listing{
		ID:                 firstNonEmptyAlias(rec, listingAliases, "id"),
		Name:               firstNonEmptyAlias(rec, listingAliases, "name"),
		Logo:               firstNonEmptyAlias(rec, listingAliases, "logo"),
		Reward:             firstNonEmptyAlias(rec, listingAliases, "reward"),
		Category:           firstNonEmptyAlias(rec, listingAliases, "category"),
		AffLink:            firstNonEmptyAlias(rec, listingAliases, "aff_link"),
		EndDate:            ptrStr(firstNonEmptyAlias(rec, listingAliases, "end_date")),
		CustomInstructions: ptrStr(firstNonEmptyAlias(rec, listingAliases, "instructions")),
		CreatedAt:          now,
	}
	if l.Name == "" {
		return domain.Listing{}, fmt.Errorf("listing without name: %w", domain.ErrMalformed)
	}
	if l.ID == "" {
		// numeric ids arrive as float64 from JSON
		if f, ok := lookupAny(rec, "id").(float64); ok {
			l.ID = fmt.Sprintf("%d", int64(f))
		} else {
			l.ID = uuid.NewString()
		}
	}
	for _, c := range firstSliceStrings(rec, "eligible_countries", "eligibleCountries", "countries") {
		l.EligibleCountries = append(l.EligibleCountries, strings.ToUpper(c))
	}
	if ts := firstNonEmptyAlias(rec, listingAliases, "created_at"); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			l.CreatedAt = t.UTC()
		}
	}
	return l, nil
}
