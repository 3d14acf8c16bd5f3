// README: Parking lot record as imported from the public inventory dataset.
package parking

import "safeparking/internal/types"

type Lot struct {
	ID       int64
	Name     string
	Address  string
	Position types.Point
	// Capacity is the number of stalls; 0 when the dataset omits it.
	Capacity int
	// Fee is the free-form fee description from the dataset ("무료", "최초 30분 1,000원" 등).
	Fee     string
	Contact string
}

// Entity converts a lot into the pipeline's candidate shape.
func (l Lot) Entity(distanceKm float64) types.Entity {
	return types.Entity{
		Name:       l.Name,
		Address:    l.Address,
		Position:   l.Position,
		DistanceKm: distanceKm,
		Capacity:   l.Capacity,
		Fee:        l.Fee,
		Phone:      l.Contact,
		Category:   "주차장",
		Source:     types.SourceInventory,
	}
}
