// README: Candidate entity and route summary passed between pipeline stages.
package types

// EntitySource tells which collaborator produced an entity.
type EntitySource string

const (
	SourceInventory EntitySource = "inventory"
	SourcePlace     EntitySource = "place"
)

// Entity is one retrieved candidate: a parking lot or a generic place.
// Name and Position are always set; the rest depends on the source.
type Entity struct {
	Name       string       `json:"name"`
	Address    string       `json:"address,omitempty"`
	Position   Point        `json:"position"`
	DistanceKm float64      `json:"distanceKm,omitempty"`
	Capacity   int          `json:"capacity,omitempty"`
	Fee        string       `json:"fee,omitempty"`
	Category   string       `json:"category,omitempty"`
	Phone      string       `json:"phone,omitempty"`
	Source     EntitySource `json:"source"`
}

// RouteSummary is the outcome of one routing query. When Failed is set the
// summary carries only the destination name; callers must render it as a
// failed lookup, never as a zero-length route.
type RouteSummary struct {
	DestinationName string  `json:"destinationName"`
	Destination     Point   `json:"destination"`
	Waypoints       []Point `json:"waypoints,omitempty"`
	DistanceMeters  int     `json:"distanceMeters,omitempty"`
	DurationSeconds int     `json:"durationSeconds,omitempty"`
	Fare            int64   `json:"fare,omitempty"`
	Failed          bool    `json:"failed,omitempty"`
}
