package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock geocoder ---

type mockGeocoder struct {
	results map[string]GeocodingResult
	err     error
	calls   []string
}

func (m *mockGeocoder) ForwardGeocode(_ context.Context, name, _ string) (GeocodingResult, error) {
	m.calls = append(m.calls, name)
	if m.err != nil {
		return GeocodingResult{}, m.err
	}
	return m.results[name], nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func joinWithUnmatched() JoinResult {
	return Join(
		[]AggregatedCity{{City: "Campinas", Quantity: 4}, {City: "RJ", Quantity: 2}, {City: "SP", Quantity: 8}},
		[]CoordinateRow{{City: "SP", Geo: &Geo{Lat: -23.5, Lon: -46.6}}},
	)
}

// --- tests ---

func TestSuggestCoordinates_NilGeocoder(t *testing.T) {
	got := SuggestCoordinates(context.Background(), joinWithUnmatched(), nil, "Brasil", discardLogger())

	require.Len(t, got, 2)
	assert.Equal(t, "Campinas", got[0].City)
	assert.Equal(t, 4.0, got[0].Quantity)
	assert.Nil(t, got[0].Suggested)
	assert.Empty(t, got[0].Source)
	assert.Equal(t, "RJ", got[1].City)
}

func TestSuggestCoordinates_Geocoded(t *testing.T) {
	geo := &mockGeocoder{results: map[string]GeocodingResult{
		"RJ": {Lat: -22.9, Lon: -43.2, FormattedAddress: "Rio de Janeiro, Brasil", Confidence: 0.9},
	}}

	got := SuggestCoordinates(context.Background(), joinWithUnmatched(), geo, "Brasil", discardLogger())

	require.Len(t, got, 2)
	assert.Equal(t, []string{"Campinas", "RJ"}, geo.calls, "matched cities are not geocoded")

	assert.Equal(t, SuggestionNotFound, got[0].Source)
	assert.Nil(t, got[0].Suggested)

	assert.Equal(t, SuggestionGeocoded, got[1].Source)
	require.NotNil(t, got[1].Suggested)
	assert.Equal(t, -22.9, got[1].Suggested.Lat)
	assert.Equal(t, -43.2, got[1].Suggested.Lon)
	assert.Equal(t, "Rio de Janeiro, Brasil", got[1].FormattedAddress)
	assert.Equal(t, 0.9, got[1].Confidence)
}

func TestSuggestCoordinates_ErrorDegradesPerCity(t *testing.T) {
	geo := &mockGeocoder{err: errors.New("API timeout")}

	got := SuggestCoordinates(context.Background(), joinWithUnmatched(), geo, "Brasil", discardLogger())

	require.Len(t, got, 2)
	for _, u := range got {
		assert.Equal(t, SuggestionFailed, u.Source)
		assert.Nil(t, u.Suggested)
	}
}

func TestSuggestCoordinates_NothingUnmatched(t *testing.T) {
	geo := &mockGeocoder{}
	r := Join([]AggregatedCity{{City: "SP", Quantity: 1}}, []CoordinateRow{{City: "SP", Geo: &Geo{Lat: 1, Lon: 2}}})

	got := SuggestCoordinates(context.Background(), r, geo, "Brasil", discardLogger())

	assert.Empty(t, got)
	assert.Empty(t, geo.calls)
}
