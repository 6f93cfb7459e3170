package source

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/indicacoes-heatmap/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func writeSpreadsheet(t *testing.T, dir, name string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck // test fixture
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	p := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(p))
	return p
}

const coordinatesCSV = "CIDADE,LAT,LON,UF\n" +
	"São Paulo,-23.55,-46.63,SP\n" +
	"Rio de Janeiro,-22.91,-43.17,RJ\n"

func TestLoad_SpreadsheetAndCSV(t *testing.T) {
	dir := t.TempDir()
	mpath := writeSpreadsheet(t, dir, "MapaCalor.xlsx", [][]any{
		{"CIDADE", "IDADE", "QUANTIDADE DE INDICACOES", "Regional"},
		{"São Paulo", 10, 5, "Sudeste"},
		{"São Paulo", 70, 3},
		{"Rio de Janeiro", "NA", 2, "Sudeste"},
	})
	cpath := writeFile(t, dir, "coordenadas.csv", coordinatesCSV)

	ds, err := NewLoader(mpath, cpath, discardLogger()).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, ds.Measurements, 3)
	assert.Equal(t, "São Paulo", ds.Measurements[0].City)
	assert.Equal(t, domain.BracketUpTo18, ds.Measurements[0].Bracket())
	assert.InDelta(t, 5.0, ds.Measurements[0].Quantity, 1e-9)
	assert.Equal(t, "Sudeste", ds.Measurements[0].Extra["REGIONAL"])
	assert.Nil(t, ds.Measurements[1].Extra, "short row is padded, not rejected")
	assert.Equal(t, domain.BracketMissing, ds.Measurements[2].Bracket())
	assert.Equal(t, 1, ds.MeasurementReport.MissingAges)

	require.Len(t, ds.Coordinates, 2)
	assert.Equal(t, "Rio de Janeiro", ds.Coordinates[1].City)
	require.NotNil(t, ds.Coordinates[1].Geo)
	assert.InDelta(t, -22.91, ds.Coordinates[1].Geo.Lat, 1e-9)
	assert.Equal(t, "RJ", ds.Coordinates[1].Extra["UF"])
}

func TestLoad_CSVMeasurements(t *testing.T) {
	dir := t.TempDir()
	mpath := writeFile(t, dir, "medidas.csv",
		"Cidade,Idade,Quantidade\n"+
			"Campinas,45,4\n"+
			"Campinas,,1\n")
	cpath := writeFile(t, dir, "coordenadas.csv", coordinatesCSV)

	ds, err := NewLoader(mpath, cpath, discardLogger()).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, ds.Measurements, 2)
	assert.Equal(t, domain.Bracket31To50, ds.Measurements[0].Bracket())
	assert.Equal(t, domain.BracketMissing, ds.Measurements[1].Bracket())
}

func TestReadTable_RaggedCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "coordenadas.csv",
		"Cidade,Lat,Lon,,UF\n"+
			"SP,-23.5,-46.6\n"+
			"RJ,-22.9,-43.2,,RJ,extra\n")

	got, err := ReadTable(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Cidade", "Lat", "Lon", "", "UF"}, got.Columns)
	assert.Equal(t, [][]string{
		{"SP", "-23.5", "-46.6", "", ""},
		{"RJ", "-22.9", "-43.2", "", "RJ"},
	}, got.Rows)
}

func TestLoad_RaggedCoordinatesCSV(t *testing.T) {
	dir := t.TempDir()
	mpath := writeFile(t, dir, "medidas.csv", "Cidade,Idade,Quantidade\nSP,45,4\n")
	cpath := writeFile(t, dir, "coordenadas.csv", "Cidade,Lat,Lon,UF\nSP,-23.5,-46.6\n")

	ds, err := NewLoader(mpath, cpath, discardLogger()).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, ds.Coordinates, 1)
	require.NotNil(t, ds.Coordinates[0].Geo)
	assert.InDelta(t, -23.5, ds.Coordinates[0].Geo.Lat, 1e-9)
}

func TestLoad_MissingBothFiles(t *testing.T) {
	dir := t.TempDir()
	mpath := filepath.Join(dir, "MapaCalor.xlsx")
	cpath := filepath.Join(dir, "coordenadas_prontas.csv")

	_, err := NewLoader(mpath, cpath, discardLogger()).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingSource))

	var missing *domain.MissingSourceError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{mpath, cpath}, missing.Paths)
}

func TestLoad_MissingCoordinatesOnly(t *testing.T) {
	dir := t.TempDir()
	mpath := writeFile(t, dir, "medidas.csv", "Cidade,Idade,Quantidade\nCampinas,45,4\n")
	cpath := filepath.Join(dir, "coordenadas_prontas.csv")

	_, err := NewLoader(mpath, cpath, discardLogger()).Load(context.Background())

	var missing *domain.MissingSourceError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{cpath}, missing.Paths)
}

func TestLoad_MissingColumn(t *testing.T) {
	dir := t.TempDir()
	mpath := writeFile(t, dir, "medidas.csv", "Cidade,Quantidade\nCampinas,4\n")
	cpath := writeFile(t, dir, "coordenadas.csv", coordinatesCSV)

	_, err := NewLoader(mpath, cpath, discardLogger()).Load(context.Background())

	var colErr *domain.MissingColumnError
	require.ErrorAs(t, err, &colErr)
	assert.Equal(t, domain.ColumnAge, colErr.Column)
}

func TestLoad_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader("a.xlsx", "b.csv", discardLogger()).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestToTable_PadsAndSkipsBlankRows(t *testing.T) {
	got := toTable([][]string{
		{"\ufeffCidade", "Idade", "Quantidade"},
		{"Santos"},
		{"", "  ", ""},
		{"Sorocaba", "20", "1"},
	})

	assert.Equal(t, []string{"Cidade", "Idade", "Quantidade"}, got.Columns)
	assert.Equal(t, [][]string{
		{"Santos", "", ""},
		{"Sorocaba", "20", "1"},
	}, got.Rows)
}

func TestToTable_Empty(t *testing.T) {
	assert.Equal(t, domain.Table{}, toTable(nil))
}
