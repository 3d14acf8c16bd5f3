// README: Parking inventory service — radius search over the imported dataset.
package parking

import (
	"context"
	"math"

	"safeparking/internal/types"
)

// LotLister is the store contract the service needs; satisfied by *Store.
type LotLister interface {
	ListInBounds(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]Lot, error)
	SearchByName(ctx context.Context, keyword string, limit int) ([]Lot, error)
}

type Service struct {
	store LotLister
}

func NewService(store LotLister) *Service {
	return &Service{store: store}
}

// FindNearby returns lots within radiusKm of center as entities, closest first.
func (s *Service) FindNearby(ctx context.Context, center types.Point, radiusKm float64) ([]types.Entity, error) {
	minLat, maxLat, minLng, maxLng := boundingBox(center, radiusKm)
	lots, err := s.store.ListInBounds(ctx, minLat, maxLat, minLng, maxLng)
	if err != nil {
		return nil, err
	}

	var results []types.Entity
	for _, lot := range lots {
		d := types.HaversineKm(center, lot.Position)
		if d > radiusKm {
			continue
		}
		results = append(results, lot.Entity(d))
	}
	sortByDistance(results)
	return results, nil
}

// SearchByName matches lots by name or address substring.
func (s *Service) SearchByName(ctx context.Context, keyword string, limit int) ([]types.Entity, error) {
	lots, err := s.store.SearchByName(ctx, keyword, limit)
	if err != nil {
		return nil, err
	}
	results := make([]types.Entity, 0, len(lots))
	for _, lot := range lots {
		results = append(results, lot.Entity(0))
	}
	return results, nil
}

// boundingBox expands a center point into a lat/lng rectangle covering the
// radius. The longitude span widens with latitude.
func boundingBox(center types.Point, radiusKm float64) (minLat, maxLat, minLng, maxLng float64) {
	latDelta := radiusKm / 110.574
	lngDelta := radiusKm / (111.320 * math.Cos(center.Lat*math.Pi/180))
	return center.Lat - latDelta, center.Lat + latDelta,
		center.Lng - lngDelta, center.Lng + lngDelta
}

// sortByDistance performs an insertion sort (fine for small N).
func sortByDistance(items []types.Entity) {
	for i := 1; i < len(items); i++ {
		key := items[i]
		j := i - 1
		for j >= 0 && items[j].DistanceKm > key.DistanceKm {
			items[j+1] = items[j]
			j--
		}
		items[j+1] = key
	}
}
