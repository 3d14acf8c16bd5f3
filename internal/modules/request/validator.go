// README: Validator — coerces the untrusted classifier table into a StructuredRequest.
package request

import (
	"fmt"
	"strconv"
	"strings"
)

// Validator enforces field domains and cross-field invariants on raw classifier
// output. It never fails: every out-of-domain value is coerced to a documented
// default and the coercion is recorded in the returned corrections list.
//
// The validator is pure except for one read-only input: priorResults, the
// length of the session's last-result register, used to clamp 1-based indices
// and to reclassify select_prior when there is nothing to select.
type Validator struct {
	defaultRadiusKm float64
	minRadiusKm     float64
	maxRadiusKm     float64
	defaultLimit    int
	maxLimit        int
}

func NewValidator(defaultRadiusKm float64, defaultLimit, maxLimit int) *Validator {
	return &Validator{
		defaultRadiusKm: defaultRadiusKm,
		minRadiusKm:     0.5,
		maxRadiusKm:     50,
		defaultLimit:    defaultLimit,
		maxLimit:        maxLimit,
	}
}

// intentAliases maps the spellings the classification prompt emits (carried
// over from the legacy schema) onto the canonical intent set.
var intentAliases = map[string]Intent{
	"find":              IntentFind,
	"find_parking":      IntentFind,
	"recommend":         IntentRecommend,
	"recommend_parking": IntentRecommend,
	"detail":            IntentDetail,
	"parking_detail":    IntentDetail,
	"set_route":         IntentSetRoute,
	"route_set":         IntentSetRoute,
	"select_prior":      IntentSelectPrior,
	"select_result":     IntentSelectPrior,
	"nearby_search":     IntentNearbySearch,
	"traffic_info":      IntentTrafficInfo,
	"cancel":            IntentCancel,
	"rollback":          IntentRollback,
	"greeting":          IntentGreeting,
	"general":           IntentGeneral,
}

// Validate converts an arbitrary raw table into a StructuredRequest satisfying
// every schema invariant. It never panics, whatever shape raw has.
func (v *Validator) Validate(raw map[string]any, priorResults int) (StructuredRequest, []string) {
	var corrections []string
	note := func(format string, args ...any) {
		corrections = append(corrections, fmt.Sprintf(format, args...))
	}

	fixed := StructuredRequest{
		Intent:        IntentGeneral,
		FacilityType:  FacilityAny,
		FeeType:       FeeAny,
		MaxDistanceKm: v.defaultRadiusKm,
		SortBy:        SortDistance,
		ResultLimit:   v.defaultLimit,
	}
	if raw == nil {
		note("empty classifier output -> default request")
		return fixed, corrections
	}

	// intent
	if s, ok := pickString(raw, "intent"); ok {
		if in, known := intentAliases[strings.TrimSpace(s)]; known {
			fixed.Intent = in
		} else {
			note("invalid intent %q -> general", s)
		}
	} else {
		note("missing intent -> general")
	}

	// plain string fields
	fixed.Region, _ = pickString(raw, "region")
	fixed.Destination, _ = pickString(raw, "destination")
	fixed.Departure, _ = pickString(raw, "departure")

	// facility type
	if s, ok := pickString(raw, "facilityType", "facility_type", "parking_type"); ok {
		switch FacilityType(s) {
		case FacilityPublic, FacilityPrivate, FacilityAny:
			fixed.FacilityType = FacilityType(s)
		default:
			note("invalid facilityType %q -> any", s)
		}
	}

	// fee type
	if s, ok := pickString(raw, "feeType", "fee_type"); ok {
		switch FeeType(s) {
		case FeeFree, FeePaid, FeeAny:
			fixed.FeeType = FeeType(s)
		default:
			note("invalid feeType %q -> any", s)
		}
	}

	// max fee
	if f, ok := pickFloat(raw, "maxFee", "max_fee"); ok {
		if f < 0 {
			note("negative maxFee %v -> unset", f)
		} else {
			fixed.MaxFee = &f
		}
	}

	// search radius
	if f, ok := pickFloat(raw, "maxDistanceKm", "max_distance_km"); ok {
		switch {
		case f < v.minRadiusKm:
			note("maxDistanceKm %v below minimum -> %v", f, v.minRadiusKm)
			fixed.MaxDistanceKm = v.minRadiusKm
		case f > v.maxRadiusKm:
			note("maxDistanceKm %v above maximum -> %v", f, v.maxRadiusKm)
			fixed.MaxDistanceKm = v.maxRadiusKm
		default:
			fixed.MaxDistanceKm = f
		}
	}

	// sort key
	if s, ok := pickString(raw, "sortBy", "sort_by"); ok {
		switch SortKey(s) {
		case SortDistance, SortPrice, SortCapacity:
			fixed.SortBy = SortKey(s)
		default:
			note("invalid sortBy %q -> distance", s)
		}
	}

	// result limit
	if n, ok := pickInt(raw, "resultLimit", "result_limit", "top_n"); ok {
		switch {
		case n < 1:
			note("resultLimit %d below minimum -> 1", n)
			fixed.ResultLimit = 1
		case n > v.maxLimit:
			note("resultLimit %d above maximum -> %d", n, v.maxLimit)
			fixed.ResultLimit = v.maxLimit
		default:
			fixed.ResultLimit = n
		}
	}

	// route preference
	if s, ok := pickString(raw, "routePreference", "route_preference", "route_pref"); ok {
		switch s {
		case "fastest":
			fixed.RoutePreference = RouteFastest
		case "shortest":
			fixed.RoutePreference = RouteShortest
		case "tollFree", "toll_free", "free":
			fixed.RoutePreference = RouteTollFree
		default:
			note("invalid routePreference %q -> unset", s)
		}
	}

	// selection index
	if n, ok := pickInt(raw, "selectionIndex", "selection_index", "select_index"); ok {
		if n < 1 {
			note("selectionIndex %d out of range -> unset", n)
		} else {
			fixed.SelectionIndex = n
		}
	}

	// keywords and waypoints
	fixed.Keywords = pickStringSlice(raw, "keywords")
	fixed.WaypointNames = pickStringSlice(raw, "waypointNames", "waypoint_names", "waypoints")
	for _, n := range pickIntSlice(raw, "waypointRefs", "waypoint_refs") {
		if n < 1 {
			note("waypointRef %d out of range -> dropped", n)
			continue
		}
		fixed.WaypointRefs = append(fixed.WaypointRefs, n)
	}

	// rollback flag (legacy schema uses "O"/"X")
	if b, ok := pickBool(raw, "rollbackRequested", "rollback_requested", "rollback"); ok {
		fixed.RollbackRequested = b
	}

	// ── cross-field reconciliation ──

	// Private lots are never free by definition.
	if fixed.FacilityType == FacilityPrivate && fixed.FeeType == FeeFree {
		note("conflict: private + free -> feeType=any")
		fixed.FeeType = FeeAny
	}

	// Rollback intent and flag must agree, in both directions.
	if fixed.Intent == IntentRollback && !fixed.RollbackRequested {
		note("intent=rollback without rollback flag -> flag set")
		fixed.RollbackRequested = true
	}
	if fixed.RollbackRequested && fixed.Intent != IntentRollback {
		note("rollback flag without intent=rollback -> intent=rollback")
		fixed.Intent = IntentRollback
	}

	// set_route with only a region still has a nameable target; promote it.
	if fixed.Intent == IntentSetRoute && fixed.Destination == "" &&
		fixed.SelectionIndex == 0 && len(fixed.WaypointRefs) == 0 && len(fixed.WaypointNames) == 0 &&
		fixed.Region != "" {
		note("set_route without destination -> region %q promoted", fixed.Region)
		fixed.Destination = fixed.Region
	}

	// "거기로 안내해줘" right after a shown list: a set_route naming no target
	// at all means the first shown result. Only with an empty register does the
	// resolver ask for a destination instead.
	if fixed.Intent == IntentSetRoute && !fixed.HasRouteTarget() && priorResults > 0 {
		note("set_route without destination -> prior result 1 selected")
		fixed.SelectionIndex = 1
	}

	// Selecting from an empty register is a search, not a selection.
	if fixed.Intent == IntentSelectPrior && priorResults == 0 {
		note("select_prior with no prior results -> find")
		fixed.Intent = IntentFind
		fixed.SelectionIndex = 0
	}

	// Saturate out-of-range references to the last valid index.
	if fixed.SelectionIndex > 0 {
		if priorResults == 0 {
			note("selectionIndex %d with no prior results -> unset", fixed.SelectionIndex)
			fixed.SelectionIndex = 0
		} else if fixed.SelectionIndex > priorResults {
			note("selectionIndex %d beyond prior results -> %d", fixed.SelectionIndex, priorResults)
			fixed.SelectionIndex = priorResults
		}
	}
	for i, ref := range fixed.WaypointRefs {
		if ref > priorResults {
			if priorResults == 0 {
				note("waypointRef %d with no prior results -> dropped", ref)
				fixed.WaypointRefs[i] = 0
				continue
			}
			note("waypointRef %d beyond prior results -> %d", ref, priorResults)
			fixed.WaypointRefs[i] = priorResults
		}
	}
	fixed.WaypointRefs = compactRefs(fixed.WaypointRefs)

	return fixed, corrections
}

func compactRefs(refs []int) []int {
	out := refs[:0]
	for _, r := range refs {
		if r > 0 {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ── untyped field extraction ──
//
// The raw table comes from json.Unmarshal into map[string]any, so numbers are
// float64, but the classifier also emits numeric strings and "O"/"X" booleans.

func pickString(raw map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			s = strings.TrimSpace(s)
			if s != "" && !strings.EqualFold(s, "null") {
				return s, true
			}
		}
	}
	return "", false
}

func pickFloat(raw map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func pickInt(raw map[string]any, keys ...string) (int, bool) {
	if f, ok := pickFloat(raw, keys...); ok {
		return int(f), true
	}
	return 0, false
}

func pickBool(raw map[string]any, keys ...string) (bool, bool) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch b := v.(type) {
		case bool:
			return b, true
		case string:
			switch strings.TrimSpace(b) {
			case "O", "o", "true", "Y", "y":
				return true, true
			case "X", "x", "false", "N", "n":
				return false, true
			}
		}
	}
	return false, false
}

func pickStringSlice(raw map[string]any, keys ...string) []string {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		items, ok := v.([]any)
		if !ok {
			continue
		}
		var out []string
		for _, it := range items {
			if s, ok := it.(string); ok {
				s = strings.TrimSpace(s)
				if s != "" {
					out = append(out, s)
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func pickIntSlice(raw map[string]any, keys ...string) []int {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		items, ok := v.([]any)
		if !ok {
			continue
		}
		var out []int
		for _, it := range items {
			switch n := it.(type) {
			case float64:
				out = append(out, int(n))
			case string:
				if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
					out = append(out, parsed)
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}
