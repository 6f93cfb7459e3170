package domain

import "strings"

// JoinedCity is an aggregated city with its coordinates, if any matched.
type JoinedCity struct {
	City     string            `json:"city"`
	Quantity float64           `json:"quantity"`
	Geo      *Geo              `json:"geo,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

// HasCoordinates is the single predicate separating map rows from
// table-only rows.
func (c JoinedCity) HasCoordinates() bool { return c.Geo != nil }

// JoinResult is the left join of aggregated cities onto coordinates.
type JoinResult struct {
	Rows               []JoinedCity `json:"rows"`
	MissingCoordinates int          `json:"missing_coordinates"`
	Unmatched          []string     `json:"unmatched,omitempty"`
}

// Join left-joins cities onto coords by city name. Names are compared after
// trimming and upper-casing only; accents and spelling are not reconciled.
// When coords repeats a city, its first row with a usable position wins.
func Join(cities []AggregatedCity, coords []CoordinateRow) JoinResult {
	index := make(map[string]CoordinateRow, len(coords))
	for _, c := range coords {
		k := joinKey(c.City)
		if prev, dup := index[k]; !dup || (prev.Geo == nil && c.Geo != nil) {
			index[k] = c
		}
	}

	res := JoinResult{Rows: make([]JoinedCity, 0, len(cities))}
	for _, city := range cities {
		row := JoinedCity{City: city.City, Quantity: city.Quantity}
		if c, ok := index[joinKey(city.City)]; ok {
			row.Geo = c.Geo
			row.Extra = c.Extra
		}
		if !row.HasCoordinates() {
			res.MissingCoordinates++
			res.Unmatched = append(res.Unmatched, city.City)
		}
		res.Rows = append(res.Rows, row)
	}
	return res
}

// Geographic returns the joined rows that carry coordinates.
func (r JoinResult) Geographic() []JoinedCity {
	out := make([]JoinedCity, 0, len(r.Rows))
	for _, row := range r.Rows {
		if row.HasCoordinates() {
			out = append(out, row)
		}
	}
	return out
}

func joinKey(city string) string {
	return upper(strings.TrimSpace(city))
}
