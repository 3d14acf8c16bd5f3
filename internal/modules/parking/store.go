// README: Parking lot store backed by PostgreSQL.
package parking

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// ListInBounds returns lots inside a lat/lng bounding box. The box is a cheap
// index-friendly prefilter; exact radius filtering happens in the service.
func (s *Store) ListInBounds(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]Lot, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, name, address, lat, lng, capacity, fee, contact
        FROM parking_lots
        WHERE lat BETWEEN $1 AND $2
          AND lng BETWEEN $3 AND $4`,
		minLat, maxLat, minLng, maxLng,
	)
	if err != nil {
		return nil, fmt.Errorf("parking query: %w", err)
	}
	defer rows.Close()

	return scanLots(rows)
}

// SearchByName matches lots whose name or address contains the keyword.
func (s *Store) SearchByName(ctx context.Context, keyword string, limit int) ([]Lot, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, name, address, lat, lng, capacity, fee, contact
        FROM parking_lots
        WHERE name ILIKE '%' || $1 || '%' OR address ILIKE '%' || $1 || '%'
        ORDER BY name
        LIMIT $2`,
		keyword, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("parking name query: %w", err)
	}
	defer rows.Close()

	return scanLots(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanLots(rows rowScanner) ([]Lot, error) {
	var lots []Lot
	for rows.Next() {
		var l Lot
		if err := rows.Scan(&l.ID, &l.Name, &l.Address, &l.Position.Lat, &l.Position.Lng, &l.Capacity, &l.Fee, &l.Contact); err != nil {
			return nil, err
		}
		lots = append(lots, l)
	}
	return lots, rows.Err()
}
