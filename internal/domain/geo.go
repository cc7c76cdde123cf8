package domain

import "time"

// Country is a resolved visitor region. An empty Code means unknown.
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// GeoCacheEntry is the persisted result of one successful lookup.
type GeoCacheEntry struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

// Fresh reports whether the entry is younger than ttl at now.
func (e GeoCacheEntry) Fresh(now time.Time, ttl time.Duration) bool {
	if e.Timestamp.IsZero() {
		return false
	}
	return now.Sub(e.Timestamp) < ttl
}

func (e GeoCacheEntry) Country() Country { return Country{Code: e.Code, Name: e.Name} }

// Resolution is what the resolver hands to filter consumers.
// Failed is set when the location could not be detected; Country is then empty.
type Resolution struct {
	Country Country
	Failed  bool
	Cached  bool
}
