// README: Place search / geocoding over the Google Places API.
package maps

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"safeparking/internal/types"
)

// PlacesService handles keyword place search biased around the caller's position.
type PlacesService struct {
	client *maps.Client
}

func NewPlacesService(apiKey string) (*PlacesService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &PlacesService{client: client}, nil
}

// Search returns places matching the keyword near origin, in API order.
// An empty result is a normal outcome, not an error; callers decide whether
// it warrants a clarification.
func (s *PlacesService) Search(ctx context.Context, keyword string, origin types.Point) ([]types.Entity, error) {
	r := &maps.TextSearchRequest{
		Query:    keyword,
		Language: "ko",
		Region:   "KR",
	}
	if !origin.IsZero() {
		r.Location = &maps.LatLng{Lat: origin.Lat, Lng: origin.Lng}
		r.Radius = 20000
	}

	resp, err := s.client.TextSearch(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("places api error: %w", err)
	}
	return s.toEntities(resp.Results, origin, ""), nil
}

// SearchParking is the backfill query: the same search restricted to parking
// facilities so sparse inventory results can be supplemented.
func (s *PlacesService) SearchParking(ctx context.Context, keyword string, origin types.Point) ([]types.Entity, error) {
	r := &maps.TextSearchRequest{
		Query:    strings.TrimSpace(keyword + " 주차장"),
		Type:     maps.PlaceType("parking"),
		Language: "ko",
		Region:   "KR",
	}
	if !origin.IsZero() {
		r.Location = &maps.LatLng{Lat: origin.Lat, Lng: origin.Lng}
		r.Radius = 10000
	}

	resp, err := s.client.TextSearch(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("places api error: %w", err)
	}
	return s.toEntities(resp.Results, origin, "주차장"), nil
}

func (s *PlacesService) toEntities(results []maps.PlacesSearchResult, origin types.Point, category string) []types.Entity {
	var out []types.Entity
	for _, result := range results {
		pos := types.Point{
			Lat: result.Geometry.Location.Lat,
			Lng: result.Geometry.Location.Lng,
		}
		e := types.Entity{
			Name:     result.Name,
			Address:  result.FormattedAddress,
			Position: pos,
			Category: category,
			Source:   types.SourcePlace,
		}
		if e.Category == "" && len(result.Types) > 0 {
			e.Category = result.Types[0]
		}
		if !origin.IsZero() {
			e.DistanceKm = types.HaversineKm(origin, pos)
		}
		out = append(out, e)
	}
	return out
}
