// Package source reads the measurements and coordinates files into domain tables.
package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/indicacoes-heatmap/internal/domain"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// Loader reads both source files on every Load call.
// It implements pipeline.DatasetLoader.
type Loader struct {
	measurementsPath string
	coordinatesPath  string
	logger           *slog.Logger
}

// NewLoader creates a Loader for the given measurement and coordinate files.
func NewLoader(measurementsPath, coordinatesPath string, logger *slog.Logger) *Loader {
	return &Loader{
		measurementsPath: measurementsPath,
		coordinatesPath:  coordinatesPath,
		logger:           logger,
	}
}

// Load checks that both files exist, reads them and builds an immutable dataset.
// When either file is absent a *domain.MissingSourceError names every missing path.
func (l *Loader) Load(ctx context.Context) (domain.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return domain.Dataset{}, err
	}

	if err := checkExists(l.measurementsPath, l.coordinatesPath); err != nil {
		return domain.Dataset{}, err
	}

	measurements, err := ReadTable(l.measurementsPath)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("read measurements: %w", err)
	}
	coordinates, err := ReadTable(l.coordinatesPath)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("read coordinates: %w", err)
	}

	ds, err := domain.BuildDataset(measurements, coordinates)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("build dataset: %w", err)
	}

	l.logger.Debug("sources read",
		"measurements_path", l.measurementsPath,
		"coordinates_path", l.coordinatesPath,
		"measurements", ds.MeasurementReport.String(),
		"coordinates", ds.CoordinateReport.String(),
	)
	return ds, nil
}

func checkExists(paths ...string) error {
	var missing []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				missing = append(missing, p)
				continue
			}
			return fmt.Errorf("stat %s: %w", p, err)
		}
		if info.IsDir() {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return &domain.MissingSourceError{Paths: missing}
	}
	return nil
}

// ReadTable reads a spreadsheet (.xlsx, .xlsm) or CSV file into a raw table.
// The first row is the header.
func ReadTable(path string) (domain.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readSpreadsheet(path)
	default:
		return readCSV(path)
	}
}

func readSpreadsheet(path string) (domain.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return domain.Table{}, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only handle

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return domain.Table{}, fmt.Errorf("spreadsheet %s has no sheets", path)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return domain.Table{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return toTable(rows), nil
}

// readCSV reads ragged records leniently, fits them to the header width and
// hands them to gota as plain strings. The raw header is kept because gota
// renames blank and duplicate column names.
func readCSV(path string) (domain.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return domain.Table{}, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close() //nolint:errcheck // read-only handle

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return domain.Table{}, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) < 2 {
		return toTable(records), nil
	}

	header := records[0]
	for i := 1; i < len(records); i++ {
		records[i] = fitRow(records[i], len(header))
	}

	// Every column stays a string; the domain layer does its own coercion.
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return domain.Table{}, fmt.Errorf("load csv records: %w", df.Err)
	}
	return toTable(append([][]string{header}, df.Records()[1:]...)), nil
}

// fitRow pads a short row with empty cells and drops cells past width.
func fitRow(rec []string, width int) []string {
	switch {
	case len(rec) > width:
		return rec[:width]
	case len(rec) < width:
		row := make([]string, width)
		copy(row, rec)
		return row
	}
	return rec
}

// toTable splits header from data, fits rows to the header width and
// drops rows whose cells are all blank.
func toTable(records [][]string) domain.Table {
	if len(records) == 0 {
		return domain.Table{}
	}

	header := make([]string, len(records[0]))
	for i, c := range records[0] {
		header[i] = strings.TrimPrefix(c, "\ufeff")
	}

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		rows = append(rows, fitRow(rec, len(header)))
	}
	return domain.Table{Columns: header, Rows: rows}
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
