// README: Directions queries over the Google Maps API.
package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"safeparking/internal/types"
)

// RouteService issues driving-direction queries.
type RouteService struct {
	client *maps.Client
}

func NewRouteService(apiKey string) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client}, nil
}

// Route computes a driving route from origin through the ordered waypoints to
// dest. preference is one of "fastest", "shortest", "tollFree"; anything else
// falls back to the API default.
func (s *RouteService) Route(ctx context.Context, origin types.Point, waypoints []types.Point, dest types.Point, preference string) (types.RouteSummary, error) {
	r := &maps.DirectionsRequest{
		Origin:      latLng(origin),
		Destination: latLng(dest),
		Mode:        maps.TravelModeDriving,
		Language:    "ko",
		Region:      "KR",
	}
	for _, wp := range waypoints {
		r.Waypoints = append(r.Waypoints, latLng(wp))
	}

	switch preference {
	case "tollFree":
		r.Avoid = []maps.Avoid{maps.AvoidTolls}
	case "shortest":
		// The API has no shortest-path mode; avoiding highways approximates it.
		r.Avoid = []maps.Avoid{maps.AvoidHighways}
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return types.RouteSummary{}, fmt.Errorf("directions api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return types.RouteSummary{}, fmt.Errorf("no route found")
	}

	summary := types.RouteSummary{
		Destination: dest,
		Waypoints:   waypoints,
	}
	for _, leg := range routes[0].Legs {
		summary.DistanceMeters += leg.Distance.Meters
		summary.DurationSeconds += int(leg.Duration.Seconds())
	}
	return summary, nil
}

func latLng(p types.Point) string {
	return fmt.Sprintf("%f,%f", p.Lat, p.Lng)
}
