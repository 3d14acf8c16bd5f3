// README: Restricted-zone store backed by Redis GEO and hashes.
package zones

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"safeparking/internal/types"
)

const (
	zoneGeoKey  = "zones:geo"
	zoneMetaKey = "zones:meta"
)

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

// Upsert registers a zone centroid and its metadata.
func (s *Store) Upsert(ctx context.Context, z Zone) error {
	meta, err := json.Marshal(z)
	if err != nil {
		return err
	}
	pipe := s.redis.Pipeline()
	pipe.GeoAdd(ctx, zoneGeoKey, &redis.GeoLocation{
		Name:      string(z.ID),
		Longitude: z.Position.Lng,
		Latitude:  z.Position.Lat,
	})
	pipe.HSet(ctx, zoneMetaKey, string(z.ID), meta)
	_, err = pipe.Exec(ctx)
	return err
}

// FindWithin returns the nearest zone whose centroid lies within radiusM of p,
// or nil when none does.
func (s *Store) FindWithin(ctx context.Context, p types.Point, radiusM float64) (*Zone, error) {
	ids, err := s.redis.GeoSearch(ctx, zoneGeoKey, &redis.GeoSearchQuery{
		Longitude:  p.Lng,
		Latitude:   p.Lat,
		Radius:     radiusM,
		RadiusUnit: "m",
		Sort:       "ASC",
		Count:      1,
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	raw, err := s.redis.HGet(ctx, zoneMetaKey, ids[0]).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var z Zone
	if err := json.Unmarshal([]byte(raw), &z); err != nil {
		return nil, err
	}
	return &z, nil
}
