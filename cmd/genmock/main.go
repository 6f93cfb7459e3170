// Command genmock writes a sample measurements spreadsheet and coordinates
// CSV in the layout the dashboard expects. The output is deterministic for a
// given seed and deliberately includes missing ages, unparseable quantities
// and cities without coordinates so every data-quality path is exercised.
//
// Usage:
//
//	go run ./cmd/genmock -out-dir data -rows 500 -seed 42
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

type city struct {
	name     string
	lat, lon float64
	uf       string
}

var cities = []city{
	{"São Paulo", -23.5505, -46.6333, "SP"},
	{"Rio de Janeiro", -22.9068, -43.1729, "RJ"},
	{"Belo Horizonte", -19.9167, -43.9345, "MG"},
	{"Brasília", -15.7939, -47.8828, "DF"},
	{"Salvador", -12.9714, -38.5014, "BA"},
	{"Fortaleza", -3.7319, -38.5267, "CE"},
	{"Curitiba", -25.4284, -49.2733, "PR"},
	{"Manaus", -3.1190, -60.0217, "AM"},
	{"Recife", -8.0476, -34.8770, "PE"},
	{"Porto Alegre", -30.0346, -51.2177, "RS"},
	{"Belém", -1.4558, -48.4902, "PA"},
	{"Goiânia", -16.6869, -49.2648, "GO"},
	{"Campinas", -22.9056, -47.0608, "SP"},
	{"Florianópolis", -27.5954, -48.5480, "SC"},
	{"Natal", -5.7945, -35.2110, "RN"},
	{"Campo Grande", -20.4697, -54.6201, "MS"},
	{"Cuiabá", -15.6014, -56.0979, "MT"},
	{"São Luís", -2.5307, -44.3068, "MA"},
}

// unmatched cities appear in measurements only.
var unmatched = []string{"Vila Bela da Santíssima Trindade", "Sao Paulo"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "data", "directory to write MapaCalor.xlsx and coordenadas_prontas.csv")
	rows := flag.Int("rows", 500, "number of measurement rows")
	seed := flag.Uint64("seed", 42, "random seed")
	flag.Parse()

	if *rows <= 0 {
		flag.Usage()
		return fmt.Errorf("-rows must be positive")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))

	mpath := filepath.Join(*outDir, "MapaCalor.xlsx")
	if err := writeMeasurements(mpath, rng, *rows); err != nil {
		return err
	}
	log.Printf("measurements: %d rows -> %s", *rows, mpath)

	cpath := filepath.Join(*outDir, "coordenadas_prontas.csv")
	if err := writeCoordinates(cpath); err != nil {
		return err
	}
	log.Printf("coordinates: %d rows -> %s", len(cities), cpath)
	return nil
}

func writeMeasurements(path string, rng *rand.Rand, n int) error {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck // closed after SaveAs

	const sheet = "Indicacoes"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := []any{"CIDADE", "IDADE", "QUANTIDADE DE INDICACOES", "CANAL"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	channels := []string{"Site", "Telefone", "Presencial"}
	for i := range n {
		row := []any{pickCity(rng), pickAge(rng), pickQuantity(rng), channels[rng.IntN(len(channels))]}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func pickCity(rng *rand.Rand) string {
	if rng.IntN(40) == 0 {
		return unmatched[rng.IntN(len(unmatched))]
	}
	return cities[rng.IntN(len(cities))].name
}

// pickAge returns an int age, or a missing marker about 5% of the time.
func pickAge(rng *rand.Rand) any {
	switch rng.IntN(20) {
	case 0:
		return "NA"
	case 1:
		return ""
	default:
		return 5 + rng.IntN(90)
	}
}

func pickQuantity(rng *rand.Rand) any {
	if rng.IntN(100) == 0 {
		return "n/d"
	}
	return 1 + rng.IntN(12)
}

func writeCoordinates(path string) error {
	records := [][]string{{"Cidade", "lat", "lon", "UF"}}
	for _, c := range cities {
		records = append(records, []string{
			c.name,
			strconv.FormatFloat(c.lat, 'f', 4, 64),
			strconv.FormatFloat(c.lon, 'f', 4, 64),
			c.uf,
		})
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return fmt.Errorf("build coordinates frame: %w", df.Err)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := df.WriteCSV(out); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return out.Close()
}
