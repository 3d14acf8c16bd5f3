// README: Structured request schema — the typed form of one classified user turn.
package request

// Intent is the closed set of request intents. The classifier is untrusted;
// anything outside this set is coerced to IntentGeneral by the validator.
type Intent string

const (
	IntentFind         Intent = "find"
	IntentRecommend    Intent = "recommend"
	IntentDetail       Intent = "detail"
	IntentSetRoute     Intent = "set_route"
	IntentSelectPrior  Intent = "select_prior"
	IntentNearbySearch Intent = "nearby_search"
	IntentTrafficInfo  Intent = "traffic_info"
	IntentCancel       Intent = "cancel"
	IntentRollback     Intent = "rollback"
	IntentGreeting     Intent = "greeting"
	IntentGeneral      Intent = "general"
)

// NeedsRetrieval reports whether the intent carries a data-lookup obligation.
func (i Intent) NeedsRetrieval() bool {
	switch i {
	case IntentRollback, IntentCancel, IntentGeneral, IntentGreeting, IntentTrafficInfo:
		return false
	}
	return true
}

// Committable reports whether a completed turn with this intent is recorded in
// conversation history. Small talk and cancellations leave no trace.
func (i Intent) Committable() bool {
	switch i {
	case IntentGeneral, IntentCancel, IntentGreeting, IntentRollback:
		return false
	}
	return true
}

type FacilityType string

const (
	FacilityPublic  FacilityType = "public"
	FacilityPrivate FacilityType = "private"
	FacilityAny     FacilityType = "any"
)

type FeeType string

const (
	FeeFree FeeType = "free"
	FeePaid FeeType = "paid"
	FeeAny  FeeType = "any"
)

type SortKey string

const (
	SortDistance SortKey = "distance"
	SortPrice    SortKey = "price"
	SortCapacity SortKey = "capacity"
)

type RoutePreference string

const (
	RouteFastest  RoutePreference = "fastest"
	RouteShortest RoutePreference = "shortest"
	RouteTollFree RoutePreference = "tollFree"
	RouteNone     RoutePreference = ""
)

// StructuredRequest is the validated, canonical form of one user turn.
// Instances are immutable once produced by the validator; a fresh one is
// built each turn.
type StructuredRequest struct {
	Intent      Intent `json:"intent"`
	Region      string `json:"region,omitempty"`
	Destination string `json:"destination,omitempty"`
	Departure   string `json:"departure,omitempty"`

	// WaypointNames are explicit intermediate place names, in declared order.
	WaypointNames []string `json:"waypointNames,omitempty"`
	// WaypointRefs are 1-based indices into the last-result register.
	WaypointRefs []int `json:"waypointRefs,omitempty"`

	FacilityType  FacilityType `json:"facilityType"`
	FeeType       FeeType      `json:"feeType"`
	MaxFee        *float64     `json:"maxFee,omitempty"`
	MaxDistanceKm float64      `json:"maxDistanceKm"`
	SortBy        SortKey      `json:"sortBy"`
	ResultLimit   int          `json:"resultLimit"`

	RoutePreference RoutePreference `json:"routePreference,omitempty"`

	// SelectionIndex is a 1-based index into the last-result register; 0 means absent.
	SelectionIndex int `json:"selectionIndex,omitempty"`

	Keywords          []string `json:"keywords,omitempty"`
	RollbackRequested bool     `json:"rollbackRequested,omitempty"`
}

// HasRouteTarget reports whether a set_route request names anything resolvable.
func (r StructuredRequest) HasRouteTarget() bool {
	return r.Destination != "" || r.SelectionIndex > 0 ||
		len(r.WaypointRefs) > 0 || len(r.WaypointNames) > 0
}
