package domain

import "strings"

var countryNames = map[string]string{
	"US": "United States", "CA": "Canada", "UK": "United Kingdom", "GB": "United Kingdom",
	"AU": "Australia", "DE": "Germany", "FR": "France", "ES": "Spain", "IT": "Italy",
	"NL": "Netherlands", "BR": "Brazil", "MX": "Mexico", "JP": "Japan", "KR": "South Korea",
	"IN": "India", "NZ": "New Zealand", "IE": "Ireland", "SE": "Sweden", "NO": "Norway",
	"DK": "Denmark", "FI": "Finland", "CH": "Switzerland", "AT": "Austria", "BE": "Belgium",
	"PT": "Portugal", "PL": "Poland", "ZA": "South Africa", "SG": "Singapore",
	"HK": "Hong Kong", "AE": "UAE", "GLOBAL": "Worldwide",
}

// CountryName returns the display name for code; unknown codes display as themselves.
func CountryName(code string) string {
	if n, ok := countryNames[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return n
	}
	return code
}
