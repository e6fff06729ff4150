// Package leitner implements the fixed five-bucket spaced repetition scheme
// used to schedule card reviews. Each difficulty rating (1..5) maps to a
// fixed re-review interval; a review outcome reassigns the bucket outright
// rather than accumulating multiplicative history.
package leitner

import "time"

// Params defines the interval table for the Leitner scheduler.
type Params struct {
	// IntervalDays maps a difficulty rating to the number of days until the
	// next review.
	IntervalDays map[int]int

	// FallbackDays is used for any difficulty value outside the table.
	// Defensive only: the service layer rejects out-of-range input before it
	// reaches the interval function.
	FallbackDays int
}

// NewDefaultParams creates the standard interval table:
//
//	difficulty 1 -> 1 day   (hardest, just failed)
//	difficulty 2 -> 1 day
//	difficulty 3 -> 3 days
//	difficulty 4 -> 7 days
//	difficulty 5 -> 14 days (easiest, best known)
func NewDefaultParams() *Params {
	return &Params{
		IntervalDays: map[int]int{
			1: 1,
			2: 1,
			3: 3,
			4: 7,
			5: 14,
		},
		FallbackDays: 3,
	}
}

// Interval returns the review interval for the given difficulty, falling
// back to FallbackDays for values outside the table.
func (p *Params) Interval(difficulty int) time.Duration {
	days, ok := p.IntervalDays[difficulty]
	if !ok {
		days = p.FallbackDays
	}
	return time.Duration(days) * 24 * time.Hour
}
