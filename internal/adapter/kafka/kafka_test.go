package kafka

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/indicacoes-heatmap/internal/config"
	"github.com/couchcryptid/indicacoes-heatmap/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMeta = domain.ExportMeta{
	Filter:      "Até 18",
	RenderID:    "0f8e3c1a-5b7d-4a43-9a57-2f3d1f0f8c11",
	GeneratedAt: time.Date(2025, time.May, 1, 9, 30, 0, 0, time.UTC),
}

func TestSerializeToMessage(t *testing.T) {
	row := domain.JoinedCity{
		City:     "São Paulo",
		Quantity: 5,
		Geo:      &domain.Geo{Lat: -23.55, Lon: -46.63},
		Extra:    map[string]string{"UF": "SP"},
	}

	msg, err := serializeToMessage(testMeta, row)
	require.NoError(t, err)

	assert.Equal(t, []byte("São Paulo"), msg.Key)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "bracket", msg.Headers[0].Key)
	assert.Equal(t, []byte("Até 18"), msg.Headers[0].Value)
	assert.Equal(t, "render_id", msg.Headers[1].Key)
	assert.Equal(t, []byte(testMeta.RenderID), msg.Headers[1].Value)
	assert.Equal(t, "generated_at", msg.Headers[2].Key)
	assert.Equal(t, []byte("2025-05-01T09:30:00Z"), msg.Headers[2].Value)

	var rec exportRecord
	require.NoError(t, json.Unmarshal(msg.Value, &rec))
	assert.Equal(t, "São Paulo", rec.City)
	assert.InDelta(t, 5.0, rec.Quantity, 1e-9)
	require.NotNil(t, rec.Lat)
	assert.InDelta(t, -23.55, *rec.Lat, 1e-9)
	assert.True(t, rec.HasCoordinates)
	assert.Equal(t, "SP", rec.Extra["UF"])
	assert.Equal(t, testMeta.GeneratedAt, rec.GeneratedAt)
}

func TestSerializeToMessage_WithoutCoordinates(t *testing.T) {
	msg, err := serializeToMessage(testMeta, domain.JoinedCity{City: "Manaus", Quantity: 4})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"city": "Manaus",
		"quantity": 4,
		"has_coordinates": false,
		"filter": "Até 18",
		"render_id": "0f8e3c1a-5b7d-4a43-9a57-2f3d1f0f8c11",
		"generated_at": "2025-05-01T09:30:00Z"
	}`, string(msg.Value))
}

func TestExport_NoRowsIsNoop(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"localhost:1"}, KafkaExportTopic: "unused"}
	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = w.Close() })

	assert.NoError(t, w.Export(context.Background(), testMeta, nil))
}
