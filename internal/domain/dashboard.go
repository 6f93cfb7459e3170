package domain

import "time"

// DefaultTopCities is the size of the top-cities series.
const DefaultTopCities = 15

// HeatPoint is one weighted heat-map sample.
type HeatPoint struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Quantity float64 `json:"quantity"`
}

// LegendBand is one intensity band of the heat-map legend.
type LegendBand struct {
	Name  string  `json:"name"`
	Color string  `json:"color"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Legend splits [0, MaxQuantity] at 25%, 50% and 75%.
type Legend struct {
	MaxQuantity float64      `json:"max_quantity"`
	Thresholds  [3]float64   `json:"thresholds"`
	Bands       []LegendBand `json:"bands"`
}

// NewLegend builds the four-band legend for a maximum quantity.
// A zero maximum yields all-zero thresholds.
func NewLegend(maxQty float64) Legend {
	q1, q2, q3 := maxQty*0.25, maxQty*0.5, maxQty*0.75
	return Legend{
		MaxQuantity: maxQty,
		Thresholds:  [3]float64{q1, q2, q3},
		Bands: []LegendBand{
			{Name: "Baixa", Color: "green", Min: 0, Max: q1},
			{Name: "Média", Color: "yellow", Min: q1, Max: q2},
			{Name: "Alta", Color: "orange", Min: q2, Max: q3},
			{Name: "Muito Alta", Color: "red", Min: q3, Max: maxQty},
		},
	}
}

// HeatPoints converts the geographic subset of a join into heat-map samples.
func HeatPoints(r JoinResult) []HeatPoint {
	geo := r.Geographic()
	out := make([]HeatPoint, len(geo))
	for i, row := range geo {
		out[i] = HeatPoint{Lat: row.Geo.Lat, Lon: row.Geo.Lon, Quantity: row.Quantity}
	}
	return out
}

// MaxQuantity is the largest heat-point quantity, or 0 when there are none.
func MaxQuantity(points []HeatPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	m := points[0].Quantity
	for _, p := range points[1:] {
		m = max(m, p.Quantity)
	}
	return m
}

// Dashboard is everything the presentation layer needs for one filter.
type Dashboard struct {
	Filter      string           `json:"filter"`
	Options     []string         `json:"options"`
	HeatMap     []HeatPoint      `json:"heat_map"`
	Legend      Legend           `json:"legend"`
	ByBracket   []BracketTotal   `json:"by_bracket"`
	TopCities   []AggregatedCity `json:"top_cities"`
	Joined      JoinResult       `json:"joined"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// Build runs aggregation and the geographic join for one filter over an
// immutable dataset. topN <= 0 selects DefaultTopCities.
func Build(ds Dataset, f Filter, topN int) Dashboard {
	if topN <= 0 {
		topN = DefaultTopCities
	}

	cities := Aggregate(ds.Measurements, f)
	joined := Join(cities, ds.Coordinates)
	heat := HeatPoints(joined)

	return Dashboard{
		Filter:      f.String(),
		Options:     FilterOptions(ds.Measurements),
		HeatMap:     heat,
		Legend:      NewLegend(MaxQuantity(heat)),
		ByBracket:   TotalsByBracket(ds.Measurements),
		TopCities:   TopCities(cities, topN),
		Joined:      joined,
		GeneratedAt: clock.Now(),
	}
}
