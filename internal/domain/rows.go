package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// missingMarkers are cell values read as "no value", mirroring the NA
// markers spreadsheet and CSV exports commonly use.
var missingMarkers = map[string]bool{
	"":      true,
	"NA":    true,
	"N/A":   true,
	"NaN":   true,
	"nan":   true,
	"NULL":  true,
	"null":  true,
	"<nil>": true,
}

// Geo is a WGS-84 latitude/longitude pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// MeasurementRow is one normalized record of the measurements table.
type MeasurementRow struct {
	City     string
	Age      Age
	Quantity float64
	Extra    map[string]string
}

// Bracket classifies the row's age.
func (r MeasurementRow) Bracket() AgeBracket { return Classify(r.Age) }

// CoordinateRow is one record of the coordinates table. Geo is nil when the
// latitude or longitude cell did not parse.
type CoordinateRow struct {
	City  string
	Geo   *Geo
	Extra map[string]string
}

// ParseReport counts the lenient conversions applied while parsing a table.
type ParseReport struct {
	Rows               int `json:"rows"`
	SkippedRows        int `json:"skipped_rows"`
	MissingAges        int `json:"missing_ages"`
	InvalidQuantities  int `json:"invalid_quantities"`
	InvalidCoordinates int `json:"invalid_coordinates"`
}

// Dataset is the immutable result of one load of both sources.
type Dataset struct {
	Measurements      []MeasurementRow
	Coordinates       []CoordinateRow
	MeasurementReport ParseReport
	CoordinateReport  ParseReport
	LoadedAt          time.Time
}

// BuildDataset normalizes both raw tables and parses them into typed rows.
func BuildDataset(measurements, coordinates Table) (Dataset, error) {
	mrows, mrep, err := ParseMeasurements(NormalizeMeasurements(measurements))
	if err != nil {
		return Dataset{}, err
	}
	crows, crep, err := ParseCoordinates(NormalizeCoordinates(coordinates))
	if err != nil {
		return Dataset{}, err
	}
	return Dataset{
		Measurements:      mrows,
		Coordinates:       crows,
		MeasurementReport: mrep,
		CoordinateReport:  crep,
		LoadedAt:          clock.Now(),
	}, nil
}

// ParseMeasurements converts a normalized measurements table into rows.
// Rows without a city are skipped, unparseable ages become missing and
// unparseable quantities count as zero. Quantity sign is not validated.
func ParseMeasurements(t Table) ([]MeasurementRow, ParseReport, error) {
	idx, err := t.require("measurements", ColumnCity, ColumnAge, ColumnQuantity)
	if err != nil {
		return nil, ParseReport{}, err
	}
	cityIdx, ageIdx, qtyIdx := idx[0], idx[1], idx[2]
	canonical := map[int]bool{cityIdx: true, ageIdx: true, qtyIdx: true}

	var rep ParseReport
	rows := make([]MeasurementRow, 0, len(t.Rows))
	for i := range t.Rows {
		city := cleanCity(t.Cell(i, cityIdx))
		if city == "" {
			rep.SkippedRows++
			continue
		}

		age := Age{}
		if v, ok := parseNumber(t.Cell(i, ageIdx)); ok {
			age = KnownAge(v)
		} else {
			rep.MissingAges++
		}

		qty, ok := parseNumber(t.Cell(i, qtyIdx))
		if !ok {
			qty = 0
			rep.InvalidQuantities++
		}

		rows = append(rows, MeasurementRow{
			City:     city,
			Age:      age,
			Quantity: qty,
			Extra:    t.extras(i, canonical),
		})
	}
	rep.Rows = len(rows)
	return rows, rep, nil
}

// ParseCoordinates converts a normalized coordinates table into rows.
func ParseCoordinates(t Table) ([]CoordinateRow, ParseReport, error) {
	idx, err := t.require("coordinates", ColumnCity, ColumnLatitude, ColumnLongitude)
	if err != nil {
		return nil, ParseReport{}, err
	}
	cityIdx, latIdx, lonIdx := idx[0], idx[1], idx[2]
	canonical := map[int]bool{cityIdx: true, latIdx: true, lonIdx: true}

	var rep ParseReport
	rows := make([]CoordinateRow, 0, len(t.Rows))
	for i := range t.Rows {
		city := cleanCity(t.Cell(i, cityIdx))
		if city == "" {
			rep.SkippedRows++
			continue
		}

		row := CoordinateRow{City: city, Extra: t.extras(i, canonical)}
		lat, latOK := parseNumber(t.Cell(i, latIdx))
		lon, lonOK := parseNumber(t.Cell(i, lonIdx))
		if latOK && lonOK {
			row.Geo = &Geo{Lat: lat, Lon: lon}
		} else {
			rep.InvalidCoordinates++
		}
		rows = append(rows, row)
	}
	rep.Rows = len(rows)
	return rows, rep, nil
}

func cleanCity(s string) string {
	s = strings.TrimSpace(s)
	if missingMarkers[s] {
		return ""
	}
	return s
}

// parseNumber coerces a cell to a finite float64. NA markers, NaN, infinities
// and hex literals are not numbers.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if missingMarkers[s] || strings.ContainsAny(s, "xX") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// String summarizes a report for log lines and CLI output.
func (r ParseReport) String() string {
	return fmt.Sprintf("rows=%d skipped=%d missing_ages=%d invalid_quantities=%d invalid_coordinates=%d",
		r.Rows, r.SkippedRows, r.MissingAges, r.InvalidQuantities, r.InvalidCoordinates)
}
