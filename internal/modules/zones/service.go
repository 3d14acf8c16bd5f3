// README: Restricted-zone dwell monitoring — warn once after a sustained stop.
package zones

import (
	"context"
	"sync"
	"time"

	"safeparking/internal/types"
)

// ZoneFinder locates the nearest restricted zone around a position.
type ZoneFinder interface {
	FindWithin(ctx context.Context, p types.Point, radiusM float64) (*Zone, error)
}

// Status is the outcome of one position check for one vehicle.
type Status struct {
	InZone   bool          `json:"inZone"`
	Zone     *Zone         `json:"zone,omitempty"`
	DwellSec int           `json:"dwellSec"`
	Warn     bool          `json:"warn"`
	Remain   time.Duration `json:"-"`
}

type dwell struct {
	zoneID  types.ID
	since   time.Time
	warned  bool
	lastHit time.Time
}

// Service tracks per-vehicle dwell time inside restricted zones. A vehicle
// that stays within the zone radius past the warn threshold gets exactly one
// warning; leaving the zone resets its dwell.
type Service struct {
	finder  ZoneFinder
	radiusM float64
	warnDur time.Duration
	now     func() time.Time

	mu     sync.Mutex
	dwells map[types.ID]*dwell
}

func NewService(finder ZoneFinder, radiusM float64, warnAfter time.Duration) *Service {
	return &Service{
		finder:  finder,
		radiusM: radiusM,
		warnDur: warnAfter,
		now:     time.Now,
		dwells:  make(map[types.ID]*dwell),
	}
}

// Check records the vehicle's current position and reports its zone status.
func (s *Service) Check(ctx context.Context, vehicleID types.ID, p types.Point) (Status, error) {
	zone, err := s.finder.FindWithin(ctx, p, s.radiusM)
	if err != nil {
		return Status{}, err
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if zone == nil || !zone.RestrictedAt(now) {
		delete(s.dwells, vehicleID)
		return Status{InZone: zone != nil, Zone: zone}, nil
	}

	d, ok := s.dwells[vehicleID]
	if !ok || d.zoneID != zone.ID {
		d = &dwell{zoneID: zone.ID, since: now}
		s.dwells[vehicleID] = d
	}
	d.lastHit = now

	elapsed := now.Sub(d.since)
	st := Status{
		InZone:   true,
		Zone:     zone,
		DwellSec: int(elapsed / time.Second),
		Remain:   s.warnDur - elapsed,
	}
	if elapsed >= s.warnDur && !d.warned {
		d.warned = true
		st.Warn = true
	}
	return st, nil
}

// Sweep drops dwell records that have not been refreshed recently. Intended to
// run periodically so vehicles that stop reporting do not pin memory.
func (s *Service) Sweep(staleAfter time.Duration) {
	cutoff := s.now().Add(-staleAfter)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, d := range s.dwells {
		if d.lastHit.Before(cutoff) {
			delete(s.dwells, id)
		}
	}
}
