// Package discovery holds the pure listing engine: reward parsing, filtering,
// sorting, featured ranking and countdowns. Nothing here does I/O.
package discovery

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	rewardNoise  = strings.NewReplacer(",", "", "$", "", "£", "", "€", "", "¥", "", "₹", "")
	rewardNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// ParseRewardValue turns a reward description into a ranking proxy.
// Only the first number counts; text without one ranks 0. A number too large
// for float64 ranks highest, held at MaxFloat64 so it still encodes as JSON.
func ParseRewardValue(reward string) float64 {
	m := rewardNumber.FindString(rewardNoise.Replace(reward))
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if errors.Is(err, strconv.ErrRange) && v > 0 {
		return math.MaxFloat64
	}
	if err != nil {
		return 0
	}
	return v
}
