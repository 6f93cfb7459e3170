//go:build mapbox

package mapbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/indicacoes-heatmap/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real Mapbox API and require a valid MAPBOX_TOKEN env var.
// Run with: go test -tags=mapbox ./internal/adapter/mapbox/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_TOKEN")
	if token == "" {
		t.Fatal("MAPBOX_TOKEN must be set to run smoke tests")
	}
	return NewClient(token, 10*time.Second, observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_ForwardGeocode(t *testing.T) {
	c := smokeClient(t)

	result, err := c.ForwardGeocode(context.Background(), "Campinas", "Brasil")
	require.NoError(t, err)

	assert.InDelta(t, -22.90, result.Lat, 0.2, "lat should be near Campinas")
	assert.InDelta(t, -47.06, result.Lon, 0.2, "lon should be near Campinas")
	assert.Contains(t, result.FormattedAddress, "Campinas")
	assert.Greater(t, result.Confidence, 0.5)
}

func TestSmoke_ForwardGeocode_Accents(t *testing.T) {
	c := smokeClient(t)

	result, err := c.ForwardGeocode(context.Background(), "São José dos Campos", "Brasil")
	require.NoError(t, err)
	assert.InDelta(t, -23.18, result.Lat, 0.2)
}

func TestSmoke_ForwardGeocode_LowRelevance(t *testing.T) {
	c := smokeClient(t)

	// Fuzzy matching may still return a feature for nonsense, so only the
	// absence of an error is checked.
	_, err := c.ForwardGeocode(context.Background(), "XYZNONEXISTENT99", "Brasil")
	require.NoError(t, err)
}

func TestSmoke_CachedGeocoder(t *testing.T) {
	cached := NewCachedGeocoder(smokeClient(t), time.Minute, observability.NewMetricsForTesting())

	r1, err := cached.ForwardGeocode(context.Background(), "Manaus", "Brasil")
	require.NoError(t, err)
	assert.Contains(t, r1.FormattedAddress, "Manaus")

	r2, err := cached.ForwardGeocode(context.Background(), "Manaus", "Brasil")
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}
