// Package rating derives per-movie rating aggregates.  Nothing here is
// stored: the repository hands over the grouped SUM and COUNT of review
// ratings for each movie and Summarize turns them into the published values.
package rating

import "github.com/shopspring/decimal"

// Bounds of a single review rating.
const (
	Min = 1
	Max = 10
)

// Summary is the derived aggregate for one movie.
type Summary struct {
	Average float64 `json:"avg_rating"`
	Count   int64   `json:"review_count"`
}

// Valid reports whether r is an allowed review rating.
func Valid(r int) bool { return r >= Min && r <= Max }

// Summarize returns the mean rounded half away from zero to one decimal.
// A movie without reviews averages 0.
func Summarize(sum, count int64) Summary {
	if count <= 0 {
		return Summary{}
	}
	avg := decimal.NewFromInt(sum).
		DivRound(decimal.NewFromInt(count), 8).
		Round(1)
	return Summary{Average: avg.InexactFloat64(), Count: count}
}

// Of summarizes a list of ratings.
func Of(ratings []int) Summary {
	var sum int64
	for _, r := range ratings {
		sum += int64(r)
	}
	return Summarize(sum, int64(len(ratings)))
}
