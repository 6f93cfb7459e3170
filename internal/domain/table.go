package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Canonical column names after normalization.
const (
	ColumnCity      = "Cidade"
	ColumnAge       = "Idade"
	ColumnQuantity  = "Quantidade"
	ColumnLatitude  = "lat"
	ColumnLongitude = "lon"
)

// Table is a generic tabular source: an ordered header and string cells.
// Rows may be shorter than the header; missing trailing cells read as "".
type Table struct {
	Columns []string
	Rows    [][]string
}

// measurementRenames maps upper-cased source headers to canonical names.
// Canonical names are listed in upper-case too so normalization is idempotent;
// a raw QUANTIDADE source column is therefore read as the quantity column.
var measurementRenames = map[string]string{
	"CIDADE":                   ColumnCity,
	"IDADE":                    ColumnAge,
	"QUANTIDADE DE INDICACOES": ColumnQuantity,
	"QUANTIDADE_DE_INDICACOES": ColumnQuantity,
	"QUANTIDADE":               ColumnQuantity,
}

var coordinateRenames = map[string]string{
	"CIDADE": ColumnCity,
	"LAT":    ColumnLatitude,
	"LON":    ColumnLongitude,
}

// upper case-folds a header or city key. A Caser is stateful, so one is
// built per call rather than shared between goroutines.
func upper(s string) string {
	return cases.Upper(language.Und).String(s)
}

// NormalizeColumns returns a copy of t whose column names are trimmed,
// upper-cased and then renamed through renames. Unknown columns keep their
// upper-cased name. Rows are shared with t; neither is modified.
func NormalizeColumns(t Table, renames map[string]string) Table {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		name := upper(strings.TrimSpace(c))
		if canonical, ok := renames[name]; ok {
			name = canonical
		}
		cols[i] = name
	}
	return Table{Columns: cols, Rows: t.Rows}
}

// NormalizeMeasurements applies the measurement rename map.
func NormalizeMeasurements(t Table) Table {
	return NormalizeColumns(t, measurementRenames)
}

// NormalizeCoordinates applies the coordinate rename map.
func NormalizeCoordinates(t Table) Table {
	return NormalizeColumns(t, coordinateRenames)
}

// Index returns the position of the first column named name, or -1.
func (t Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// require resolves the positions of the named columns, failing on the first absent one.
func (t Table) require(table string, names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		idx[i] = t.Index(name)
		if idx[i] < 0 {
			return nil, &MissingColumnError{Table: table, Column: name}
		}
	}
	return idx, nil
}

// Cell returns the value at row r, column c, tolerating ragged rows.
func (t Table) Cell(r, c int) string {
	row := t.Rows[r]
	if c < 0 || c >= len(row) {
		return ""
	}
	return row[c]
}

// extras collects every column that is not one of the canonical positions.
func (t Table) extras(r int, canonical map[int]bool) map[string]string {
	var out map[string]string
	for i, name := range t.Columns {
		if canonical[i] {
			continue
		}
		v := t.Cell(r, i)
		if v == "" {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		if _, dup := out[name]; !dup {
			out[name] = v
		}
	}
	return out
}
