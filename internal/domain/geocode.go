package domain

import (
	"context"
	"log/slog"
)

// Suggestion sources.
const (
	SuggestionGeocoded = "geocoded"
	SuggestionNotFound = "not_found"
	SuggestionFailed   = "failed"
)

// UnmatchedCity is a city that had no coordinate row, with an optional
// geocoded position to help fix the coordinates table.
type UnmatchedCity struct {
	City             string  `json:"city"`
	Quantity         float64 `json:"quantity"`
	Suggested        *Geo    `json:"suggested,omitempty"`
	FormattedAddress string  `json:"formatted_address,omitempty"`
	Confidence       float64 `json:"confidence,omitempty"`
	Source           string  `json:"source,omitempty"`
}

// SuggestCoordinates lists the joined rows without coordinates and, when a
// geocoder is available, looks each one up. Geocoding failures are logged and
// recorded per city; they never fail the call. The join itself is unchanged.
func SuggestCoordinates(ctx context.Context, r JoinResult, geocoder Geocoder, region string, logger *slog.Logger) []UnmatchedCity {
	var out []UnmatchedCity
	for _, row := range r.Rows {
		if row.HasCoordinates() {
			continue
		}
		u := UnmatchedCity{City: row.City, Quantity: row.Quantity}
		if geocoder != nil {
			u = suggest(ctx, u, geocoder, region, logger)
		}
		out = append(out, u)
	}
	return out
}

func suggest(ctx context.Context, u UnmatchedCity, geocoder Geocoder, region string, logger *slog.Logger) UnmatchedCity {
	result, err := geocoder.ForwardGeocode(ctx, u.City, region)
	if err != nil {
		logger.Warn("forward geocoding failed",
			"city", u.City,
			"region", region,
			"error", err,
		)
		u.Source = SuggestionFailed
		return u
	}
	if result.Lat == 0 && result.Lon == 0 {
		u.Source = SuggestionNotFound
		return u
	}
	u.Suggested = &Geo{Lat: result.Lat, Lon: result.Lon}
	u.FormattedAddress = result.FormattedAddress
	u.Confidence = result.Confidence
	u.Source = SuggestionGeocoded
	return u
}
