// Command validate runs the dashboard pipeline over a pair of source files
// for every filter option and checks the properties the rendered output must
// hold: quantity sums survive aggregation, the geographic join keeps one row
// per aggregated city, every row lands in exactly one age bracket and the
// legend is consistent with the heat map.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -measurements data/MapaCalor.xlsx \
//	  -coordinates data/coordenadas_prontas.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/couchcryptid/indicacoes-heatmap/internal/adapter/source"
	"github.com/couchcryptid/indicacoes-heatmap/internal/domain"
	"github.com/couchcryptid/indicacoes-heatmap/internal/observability"
	"github.com/couchcryptid/indicacoes-heatmap/internal/pipeline"
)

const epsilon = 1e-6

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	measurements := flag.String("measurements", "data/MapaCalor.xlsx", "measurements spreadsheet or CSV")
	coordinates := flag.String("coordinates", "data/coordenadas_prontas.csv", "coordinates CSV")
	flag.Parse()

	if code := run(*measurements, *coordinates); code != 0 {
		os.Exit(code)
	}
}

func run(measurementsPath, coordinatesPath string) int {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	p := pipeline.New(
		source.NewLoader(measurementsPath, coordinatesPath, logger),
		nil, nil, logger, observability.NewMetrics(),
	)

	fmt.Println("=== Heat Map Dashboard Validation ===")
	fmt.Println()

	ds, err := p.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	opts := domain.FilterOptions(ds.Measurements)
	results := make(map[string]pipeline.Result, len(opts))
	for _, label := range opts {
		res, err := p.Render(ctx, label)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: render %q: %v\n", label, err)
			return 1
		}
		results[label] = res
	}

	phases := []*phase{
		validateSums(ds, results),
		validateJoin(ds, results),
		validateBrackets(ds, results),
		validateLegend(results),
	}

	allPassed := true
	for _, ph := range phases {
		status := "\033[32mPASS\033[0m"
		if !ph.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(ph.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", ph.name, status)
	}

	fmt.Println()
	fmt.Printf("Measurements: %s\n", ds.MeasurementReport)
	fmt.Printf("Coordinates:  %s\n", ds.CoordinateReport)
	fmt.Printf("Filters:      %d (%v)\n", len(opts), opts)
	if all, ok := results[domain.AllLabel]; ok {
		fmt.Printf("Unmatched:    %d %v\n", all.Joined.MissingCoordinates, all.Joined.Unmatched)
	}

	for _, ph := range phases {
		if ph.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", ph.name)
		for i, e := range ph.errors {
			if i >= 20 {
				fmt.Printf("  ... and %d more\n", len(ph.errors)-20)
				break
			}
			fmt.Printf("  %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	fmt.Println("\nAll checks passed.")
	return 0
}

// validateSums checks that aggregation neither drops nor invents quantity.
func validateSums(ds domain.Dataset, results map[string]pipeline.Result) *phase {
	ph := &phase{name: "Quantity sum preservation"}
	for label, res := range results {
		f, err := domain.ParseFilter(label)
		if err != nil {
			ph.errorf("%s: %v", label, err)
			continue
		}
		var want float64
		for _, r := range ds.Measurements {
			if f.Matches(r.Bracket()) {
				want += r.Quantity
			}
		}
		var got float64
		for _, row := range res.Joined.Rows {
			got += row.Quantity
		}
		if math.Abs(want-got) > epsilon {
			ph.errorf("%s: rows sum to %.2f, joined cities sum to %.2f", label, want, got)
		}
	}
	return ph
}

// validateJoin checks the left join: one row per aggregated city, and the
// missing count matches the rows left off the map.
func validateJoin(ds domain.Dataset, results map[string]pipeline.Result) *phase {
	ph := &phase{name: "Left-join cardinality"}
	for label, res := range results {
		f, _ := domain.ParseFilter(label)
		cities := domain.Aggregate(ds.Measurements, f)
		if len(res.Joined.Rows) != len(cities) {
			ph.errorf("%s: %d aggregated cities but %d joined rows", label, len(cities), len(res.Joined.Rows))
		}
		seen := make(map[string]bool, len(res.Joined.Rows))
		for _, row := range res.Joined.Rows {
			if seen[row.City] {
				ph.errorf("%s: city %q joined more than once", label, row.City)
			}
			seen[row.City] = true
		}
		if got := len(res.Joined.Rows) - len(res.HeatMap); got != res.Joined.MissingCoordinates {
			ph.errorf("%s: %d rows off the map, missing count says %d", label, got, res.Joined.MissingCoordinates)
		}
		if len(res.Joined.Unmatched) != res.Joined.MissingCoordinates {
			ph.errorf("%s: %d unmatched names for %d missing", label, len(res.Joined.Unmatched), res.Joined.MissingCoordinates)
		}
	}
	return ph
}

// validateBrackets checks that every row falls in one bracket and the
// per-bracket series adds up to the dataset total.
func validateBrackets(ds domain.Dataset, results map[string]pipeline.Result) *phase {
	ph := &phase{name: "Age bracket coverage"}
	var total float64
	for i, r := range ds.Measurements {
		matches := 0
		for _, b := range domain.Brackets() {
			if domain.OnlyBracket(b).Matches(r.Bracket()) {
				matches++
			}
		}
		if matches != 1 {
			ph.errorf("row %d (%s): classified into %d brackets", i, r.City, matches)
		}
		total += r.Quantity
	}

	all, ok := results[domain.AllLabel]
	if !ok {
		ph.errorf("no render for %q", domain.AllLabel)
		return ph
	}
	var byBracket float64
	for _, bt := range all.ByBracket {
		byBracket += bt.Quantity
	}
	if math.Abs(total-byBracket) > epsilon {
		ph.errorf("bracket series sums to %.2f, dataset total is %.2f", byBracket, total)
	}
	for _, bt := range all.ByBracket {
		if _, ok := results[bt.Bracket.String()]; !ok {
			ph.errorf("bracket %s has data but is not a filter option", bt.Bracket)
		}
	}
	return ph
}

// validateLegend checks thresholds against the heat map maximum.
func validateLegend(results map[string]pipeline.Result) *phase {
	ph := &phase{name: "Legend consistency"}
	for label, res := range results {
		if want := domain.MaxQuantity(res.HeatMap); res.Legend.MaxQuantity != want {
			ph.errorf("%s: legend max %.2f, heat map max %.2f", label, res.Legend.MaxQuantity, want)
		}
		if !thresholdsOrdered(res.Legend) {
			ph.errorf("%s: thresholds %v not ordered under max %.2f", label, res.Legend.Thresholds, res.Legend.MaxQuantity)
		}
	}
	return ph
}

// thresholdsOrdered reports whether thresholds run monotonically from zero
// toward the maximum. A negative maximum reverses the direction.
func thresholdsOrdered(l domain.Legend) bool {
	th, lo := l.Thresholds, l.MaxQuantity
	if lo < 0 {
		return th[0] >= th[1] && th[1] >= th[2] && th[2] >= lo
	}
	return th[0] <= th[1] && th[1] <= th[2] && th[2] <= lo
}
