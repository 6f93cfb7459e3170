package domain

import (
	"cmp"
	"slices"
)

// AggregatedCity is the summed quantity for one city.
type AggregatedCity struct {
	City     string  `json:"city"`
	Quantity float64 `json:"quantity"`
}

// BracketTotal is the summed quantity for one age bracket.
type BracketTotal struct {
	Bracket  AgeBracket `json:"bracket"`
	Quantity float64    `json:"quantity"`
}

// Aggregate sums quantities per city over the rows that pass the filter.
// Output is ordered by city name; cities with no matching rows are omitted.
func Aggregate(rows []MeasurementRow, f Filter) []AggregatedCity {
	totals := make(map[string]float64)
	for _, r := range rows {
		if !f.Matches(r.Bracket()) {
			continue
		}
		totals[r.City] += r.Quantity
	}

	out := make([]AggregatedCity, 0, len(totals))
	for city, qty := range totals {
		out = append(out, AggregatedCity{City: city, Quantity: qty})
	}
	slices.SortFunc(out, func(a, b AggregatedCity) int {
		return cmp.Compare(a.City, b.City)
	})
	return out
}

// TotalsByBracket sums quantities per bracket over every row, in ordinal
// order. Brackets with no rows are omitted.
func TotalsByBracket(rows []MeasurementRow) []BracketTotal {
	var (
		sums    [BracketOver80 + 1]float64
		present [BracketOver80 + 1]bool
	)
	for _, r := range rows {
		b := r.Bracket()
		sums[b] += r.Quantity
		present[b] = true
	}

	var out []BracketTotal
	for _, b := range Brackets() {
		if present[b] {
			out = append(out, BracketTotal{Bracket: b, Quantity: sums[b]})
		}
	}
	return out
}

// TopCities returns the n cities with the largest quantity, largest first.
// Ties keep name order.
func TopCities(cities []AggregatedCity, n int) []AggregatedCity {
	sorted := slices.Clone(cities)
	slices.SortStableFunc(sorted, func(a, b AggregatedCity) int {
		if c := cmp.Compare(b.Quantity, a.Quantity); c != 0 {
			return c
		}
		return cmp.Compare(a.City, b.City)
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
