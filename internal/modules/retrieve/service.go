// README: Retrieval orchestrator — inventory fan-out, filtering, dedup, backfill.
package retrieve

import (
	"context"
	"log"
	"sort"
	"strconv"
	"strings"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"

	"safeparking/internal/modules/convo"
	"safeparking/internal/modules/request"
	"safeparking/internal/types"
)

// InventorySearcher is the parking-inventory collaborator.
type InventorySearcher interface {
	FindNearby(ctx context.Context, center types.Point, radiusKm float64) ([]types.Entity, error)
}

// PlaceSearcher is the place-search/geocoding collaborator.
type PlaceSearcher interface {
	Search(ctx context.Context, keyword string, origin types.Point) ([]types.Entity, error)
	SearchParking(ctx context.Context, keyword string, origin types.Point) ([]types.Entity, error)
}

// Result is the orchestrator's outcome for one turn. Clarify is set instead of
// Entities when the turn cannot proceed without asking the user; NewSearch
// marks a genuinely new top-level search whose results should replace the
// last-result register.
type Result struct {
	Entities  []types.Entity
	Clarify   convo.ClarifyReason
	NewSearch bool
}

type Options struct {
	DedupRadiusM     float64
	BackfillCutoffKm float64
	CacheSize        int
}

// Service orchestrates data retrieval for validated, reference-resolved requests.
type Service struct {
	inventory InventorySearcher
	places    PlaceSearcher

	dedupRadiusM     float64
	backfillCutoffKm float64

	// cache holds raw (unfiltered) inventory results keyed by normalized
	// region + radius; per-request filters are applied after lookup.
	cache *lru.Cache[string, []types.Entity]
}

func NewService(inventory InventorySearcher, places PlaceSearcher, opts Options) (*Service, error) {
	if opts.DedupRadiusM <= 0 {
		opts.DedupRadiusM = 50
	}
	if opts.BackfillCutoffKm <= 0 {
		opts.BackfillCutoffKm = 5
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	cache, err := lru.New[string, []types.Entity](opts.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Service{
		inventory:        inventory,
		places:           places,
		dedupRadiusM:     opts.DedupRadiusM,
		backfillCutoffKm: opts.BackfillCutoffKm,
		cache:            cache,
	}, nil
}

// Retrieve resolves the routed request to candidate entities. External failures
// and timeouts degrade to empty results, never to an error return; the only
// non-entity outcome is a clarification.
func (s *Service) Retrieve(ctx context.Context, routed convo.RoutedRequest, origin types.Point) Result {
	req := routed.Request

	if !req.Intent.NeedsRetrieval() {
		return Result{}
	}

	// Entities already resolved from the last-result register are returned
	// as-is: no network call, and the user gets exactly what was shown.
	if routed.FromPrior {
		return Result{Entities: routed.Selected}
	}

	if req.Intent == request.IntentNearbySearch {
		return s.nearbySearch(ctx, req, origin)
	}

	if req.Intent == request.IntentSetRoute {
		// Route targets are resolved by the route-resolution stage; there is
		// no inventory obligation for a fresh set_route.
		return Result{}
	}

	return s.parkingSearch(ctx, req, origin)
}

// InvalidateRegion drops a region's cached inventory results.
func (s *Service) InvalidateRegion(region string, radiusKm float64) {
	s.cache.Remove(cacheKey(region, radiusKm))
}

func (s *Service) nearbySearch(ctx context.Context, req request.StructuredRequest, origin types.Point) Result {
	keyword := normalizeKeywords(req.Keywords)
	if keyword == "" {
		keyword = req.Region
	}
	if keyword == "" {
		keyword = "편의점"
	}

	places, err := s.places.Search(ctx, keyword, origin)
	if err != nil {
		log.Printf("nearby search %q: %v", keyword, err)
		return Result{NewSearch: true}
	}
	if len(places) > req.ResultLimit {
		places = places[:req.ResultLimit]
	}
	return Result{Entities: places, NewSearch: true}
}

func (s *Service) parkingSearch(ctx context.Context, req request.StructuredRequest, origin types.Point) Result {
	center := origin
	searchName := req.Destination
	if searchName == "" {
		searchName = req.Region
	}

	// A named region/destination must resolve to coordinates. Zero results
	// escalate to a clarification — silently searching around the user's
	// current position would return plausible but wrong lots.
	if searchName != "" {
		places, err := s.places.Search(ctx, searchName, origin)
		if err != nil {
			log.Printf("region lookup %q: %v", searchName, err)
			return Result{Clarify: convo.ReasonLocationNotFound}
		}
		if len(places) == 0 {
			return Result{Clarify: convo.ReasonLocationNotFound}
		}
		center = places[0].Position
	}

	lots := s.lotsAround(ctx, searchName, center, req.MaxDistanceKm)

	results := filterLots(lots, req)
	results = s.dedup(results)
	boostAndSort(results, req)

	results = s.backfill(ctx, results, req, searchName, center)

	if len(results) > req.ResultLimit {
		results = results[:req.ResultLimit]
	}
	return Result{Entities: results, NewSearch: true}
}

func (s *Service) lotsAround(ctx context.Context, region string, center types.Point, radiusKm float64) []types.Entity {
	key := cacheKey(region, radiusKm)
	if region != "" {
		if cached, ok := s.cache.Get(key); ok {
			return cached
		}
	}

	lots, err := s.inventory.FindNearby(ctx, center, radiusKm)
	if err != nil {
		// Treated like an empty inventory: the backfill source still runs.
		log.Printf("inventory search around %v: %v", center, err)
		return nil
	}
	if region != "" && len(lots) > 0 {
		s.cache.Add(key, lots)
	}
	return lots
}

// backfill supplements sparse inventory results with a place search restricted
// to parking facilities. Primary-source entries always rank first.
func (s *Service) backfill(ctx context.Context, primary []types.Entity, req request.StructuredRequest, searchName string, center types.Point) []types.Entity {
	nearCount := 0
	for _, e := range primary {
		if e.DistanceKm <= s.backfillCutoffKm {
			nearCount++
		}
	}
	if nearCount >= req.ResultLimit {
		return primary
	}

	extra, err := s.places.SearchParking(ctx, searchName, center)
	if err != nil {
		log.Printf("backfill search %q: %v", searchName, err)
		return primary
	}

	merged := primary
	for _, e := range extra {
		if s.isDuplicate(merged, e) {
			continue
		}
		merged = append(merged, e)
		if len(merged) >= req.ResultLimit {
			break
		}
	}
	return merged
}

func filterLots(lots []types.Entity, req request.StructuredRequest) []types.Entity {
	var out []types.Entity
	for _, lot := range lots {
		if req.FeeType == request.FeeFree && !strings.Contains(lot.Fee, "무료") {
			continue
		}
		if req.FeeType == request.FeePaid && strings.Contains(lot.Fee, "무료") {
			continue
		}
		private := strings.Contains(lot.Name, "민영") || strings.Contains(lot.Fee, "민영") || strings.Contains(lot.Name, "사설")
		if req.FacilityType == request.FacilityPublic && private {
			continue
		}
		if req.FacilityType == request.FacilityPrivate && !private {
			continue
		}
		if req.MaxFee != nil {
			if fee, ok := leadingFee(lot.Fee); ok && fee > *req.MaxFee {
				continue
			}
		}
		out = append(out, lot)
	}
	return out
}

// dedup removes entities that repeat an earlier one by exact name or by
// centroid distance under the dedup radius.
func (s *Service) dedup(entities []types.Entity) []types.Entity {
	var out []types.Entity
	for _, e := range entities {
		if s.isDuplicate(out, e) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (s *Service) isDuplicate(seen []types.Entity, e types.Entity) bool {
	for _, prev := range seen {
		if prev.Name == e.Name {
			return true
		}
		if types.HaversineM(prev.Position, e.Position) < s.dedupRadiusM {
			return true
		}
	}
	return false
}

// boostAndSort orders entities by keyword match count, then by the requested
// sort key. Price sorting falls back to distance when a fee is unparseable.
func boostAndSort(entities []types.Entity, req request.StructuredRequest) {
	matches := func(e types.Entity) int {
		haystack := strings.ToLower(e.Name + " " + e.Address)
		n := 0
		for _, kw := range req.Keywords {
			if strings.Contains(haystack, strings.ToLower(kw)) {
				n++
			}
		}
		return n
	}

	less := func(a, b types.Entity) bool {
		switch req.SortBy {
		case request.SortCapacity:
			if a.Capacity != b.Capacity {
				return a.Capacity > b.Capacity
			}
		case request.SortPrice:
			fa, aok := leadingFee(a.Fee)
			fb, bok := leadingFee(b.Fee)
			if aok && bok && fa != fb {
				return fa < fb
			}
			if aok != bok {
				return aok
			}
		}
		return a.DistanceKm < b.DistanceKm
	}

	sort.SliceStable(entities, func(i, j int) bool {
		mi, mj := matches(entities[i]), matches(entities[j])
		if mi != mj {
			return mi > mj
		}
		return less(entities[i], entities[j])
	})
}

// leadingFee reads a comparable amount out of a free-form fee string.
// Fees come as text like "최초 30분 1,000원"; the largest numeric run is the
// amount in won. "무료" parses as 0. Unparseable fees report ok=false.
func leadingFee(fee string) (float64, bool) {
	if fee == "" {
		return 0, false
	}
	if strings.Contains(fee, "무료") {
		return 0, true
	}
	cleaned := strings.ReplaceAll(fee, ",", "")
	best := -1.0
	start := -1
	flush := func(end int) {
		if start == -1 {
			return
		}
		if n, err := strconv.ParseFloat(cleaned[start:end], 64); err == nil && n > best {
			best = n
		}
		start = -1
	}
	for i, r := range cleaned {
		if unicode.IsDigit(r) {
			if start == -1 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(cleaned))
	if best < 0 {
		return 0, false
	}
	return best, true
}

func cacheKey(region string, radiusKm float64) string {
	return strings.ToLower(strings.Join(strings.Fields(region), " ")) + "|" + strconv.FormatFloat(radiusKm, 'f', 1, 64)
}
