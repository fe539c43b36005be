// Package recon reconciles extracted invoice candidates against a reference
// ledger and tracks each invoice through its processing lifecycle.
package recon

import (
	"strings"
	"time"

	"github.com/hfarag/ledgerscan/internal/extract"
	"github.com/hfarag/ledgerscan/internal/ledger"
)

// toleranceFloor is the absolute unit floor of the numeric tolerance.
const toleranceFloor = 1.0

// toleranceRatio is the relative numeric tolerance.
const toleranceRatio = 0.05

// Match reconciles a candidate against the ledger. Entries are scanned in
// their given order and the first one satisfying every per-field predicate
// wins; there is no scoring across multiple plausible entries. Absent
// candidate fields pass vacuously, except product, which is effectively
// required: a candidate without a product matches nothing.
func Match(c extract.Candidate, entries []ledger.Entry) (bool, *ledger.Entry) {
	for i := range entries {
		if entryMatches(c, &entries[i]) {
			return true, &entries[i]
		}
	}
	return false, nil
}

func entryMatches(c extract.Candidate, e *ledger.Entry) bool {
	if !productMatches(c.Product, e.Product) {
		return false
	}
	if c.Price != nil && !withinTolerance(*c.Price, e.Price) {
		return false
	}
	if c.Amount != nil && !withinTolerance(*c.Amount, e.Revenue) {
		return false
	}
	if c.Date != nil && e.Date != nil && !sameDay(*c.Date, *e.Date) {
		return false
	}
	return true
}

// productMatches is case-insensitive substring containment in either
// direction. An absent candidate product never satisfies it.
func productMatches(candidate, entry string) bool {
	if candidate == "" {
		return false
	}
	a := strings.ToLower(candidate)
	b := strings.ToLower(entry)
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// withinTolerance accepts values whose difference is at most 5% of the
// larger value, with a floor of one absolute unit. The bound is inclusive.
func withinTolerance(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	larger := a
	if b > larger {
		larger = b
	}
	limit := toleranceRatio * larger
	if limit < toleranceFloor {
		limit = toleranceFloor
	}
	return diff <= limit
}

// sameDay compares dates at day precision, ignoring time-of-day.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
