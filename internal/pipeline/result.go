package pipeline

import (
	"fmt"
	"time"

	"github.com/couchcryptid/indicacoes-heatmap/internal/domain"
	"github.com/google/uuid"
)

// Result is one rendered dashboard plus the data-quality context it was built from.
type Result struct {
	RenderID string `json:"render_id"`
	domain.Dashboard
	Warnings          []string           `json:"warnings,omitempty"`
	MeasurementReport domain.ParseReport `json:"measurement_report"`
	CoordinateReport  domain.ParseReport `json:"coordinate_report"`
	LoadedAt          time.Time          `json:"loaded_at"`
}

func newResult(ds domain.Dataset, dash domain.Dashboard) Result {
	res := Result{
		RenderID:          uuid.NewString(),
		Dashboard:         dash,
		MeasurementReport: ds.MeasurementReport,
		CoordinateReport:  ds.CoordinateReport,
		LoadedAt:          ds.LoadedAt,
	}
	if n := dash.Joined.MissingCoordinates; n > 0 {
		res.Warnings = append(res.Warnings, missingCoordinatesWarning(n))
	}
	if n := ds.MeasurementReport.InvalidQuantities; n > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d linhas com quantidade inválida foram contadas como zero.", n))
	}
	return res
}

func missingCoordinatesWarning(n int) string {
	return fmt.Sprintf("%d cidades não têm coordenadas e foram ignoradas no mapa.", n)
}
