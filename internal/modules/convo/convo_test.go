package convo

import (
	"fmt"
	"testing"

	"safeparking/internal/modules/request"
	"safeparking/internal/types"
)

func findReq(region string) request.StructuredRequest {
	return request.StructuredRequest{
		Intent:        request.IntentFind,
		Region:        region,
		FacilityType:  request.FacilityAny,
		FeeType:       request.FeeAny,
		MaxDistanceKm: 5,
		SortBy:        request.SortDistance,
		ResultLimit:   3,
	}
}

func lots(names ...string) []types.Entity {
	out := make([]types.Entity, 0, len(names))
	for i, n := range names {
		out = append(out, types.Entity{
			Name:     n,
			Position: types.Point{Lat: 37.5 + float64(i)*0.01, Lng: 127.0},
			Source:   types.SourceInventory,
		})
	}
	return out
}

func TestHistoryBoundAndRollbackExhaustion(t *testing.T) {
	mgr := NewSessions(10)

	// 11 committed turns: the first has no predecessor to push, so the stack
	// holds exactly 10 entries afterwards.
	for i := 0; i < 11; i++ {
		turn := mgr.Begin("s1")
		if ok := turn.Commit(findReq(fmt.Sprintf("region-%d", i)), lots("lot"), true, nil); !ok {
			t.Fatalf("commit %d refused", i)
		}
	}

	turn := mgr.Begin("s1")
	if turn.HistoryLen != 10 {
		t.Fatalf("history length = %d, want 10", turn.HistoryLen)
	}

	// 10 rollbacks drain the stack; the 11th reports restored=false.
	for i := 0; i < 10; i++ {
		turn = mgr.Begin("s1")
		if !turn.Rollback() {
			t.Fatalf("rollback %d should succeed", i+1)
		}
	}
	turn = mgr.Begin("s1")
	if turn.Rollback() {
		t.Fatal("11th rollback should report restored=false")
	}
}

func TestRollbackClearsDerivedRegisters(t *testing.T) {
	mgr := NewSessions(10)

	turn := mgr.Begin("s1")
	turn.Commit(findReq("시청"), lots("A", "B"), true, nil)
	turn = mgr.Begin("s1")
	turn.Commit(findReq("강남"), lots("C"), true, &types.RouteSummary{DestinationName: "C"})

	turn = mgr.Begin("s1")
	if len(turn.Results) != 1 || turn.Results[0].Name != "C" {
		t.Fatalf("unexpected register before rollback: %+v", turn.Results)
	}
	if !turn.Rollback() {
		t.Fatal("rollback should succeed")
	}

	turn = mgr.Begin("s1")
	if len(turn.Results) != 0 {
		t.Errorf("register should be cleared after rollback, got %d entries", len(turn.Results))
	}
}

func TestContextSummaryCarriesResultsAndRoute(t *testing.T) {
	mgr := NewSessions(10)

	turn := mgr.Begin("s1")
	turn.Commit(findReq("시청"), lots("A", "B"), true, &types.RouteSummary{DestinationName: "부산역"})

	turn = mgr.Begin("s1")
	want := "[이전 추천 목록: 1번: A, 2번: B] [현재 경로: 부산역까지]"
	if turn.ContextSummary != want {
		t.Errorf("ContextSummary = %q, want %q", turn.ContextSummary, want)
	}

	// A failed route never grounds follow-up references.
	turn.Commit(findReq("시청"), nil, false, &types.RouteSummary{DestinationName: "없는곳", Failed: true})
	turn = mgr.Begin("s1")
	if turn.ContextSummary != "[이전 추천 목록: 1번: A, 2번: B]" {
		t.Errorf("failed route leaked into context: %q", turn.ContextSummary)
	}

	// Rollback clears both registers.
	if !turn.Rollback() {
		t.Fatal("rollback should succeed")
	}
	turn = mgr.Begin("s1")
	if turn.ContextSummary != "" {
		t.Errorf("ContextSummary after rollback = %q, want empty", turn.ContextSummary)
	}
}

func TestTwoRollbacksWithOneCommittedTurn(t *testing.T) {
	mgr := NewSessions(10)

	turn := mgr.Begin("s1")
	turn.Commit(findReq("시청"), lots("A"), true, nil)
	turn = mgr.Begin("s1")
	turn.Commit(findReq("강남"), lots("B"), true, nil)

	// One predecessor on the stack: first rollback succeeds, second does not.
	turn = mgr.Begin("s1")
	if !turn.Rollback() {
		t.Fatal("first rollback should restore")
	}
	turn = mgr.Begin("s1")
	if turn.Rollback() {
		t.Fatal("second rollback should report restored=false")
	}
}

func TestStaleTurnCannotCommit(t *testing.T) {
	mgr := NewSessions(10)

	old := mgr.Begin("s1")
	newer := mgr.Begin("s1") // user spoke again before the old turn finished

	if ok := old.Commit(findReq("구버전"), lots("old"), true, nil); ok {
		t.Fatal("stale turn must not commit")
	}
	if !old.Stale() {
		t.Error("old turn should report stale")
	}
	if ok := newer.Commit(findReq("신버전"), lots("new"), true, nil); !ok {
		t.Fatal("latest turn must commit")
	}

	turn := mgr.Begin("s1")
	if len(turn.Results) != 1 || turn.Results[0].Name != "new" {
		t.Errorf("register = %+v, want the newer turn's results", turn.Results)
	}
}

func TestSessionsAreIsolatedAndResettable(t *testing.T) {
	mgr := NewSessions(10)

	a := mgr.Begin("a")
	a.Commit(findReq("시청"), lots("A"), true, nil)

	b := mgr.Begin("b")
	if len(b.Results) != 0 || b.HistoryLen != 0 {
		t.Error("sessions must not share state")
	}

	mgr.Reset("a")
	a = mgr.Begin("a")
	if len(a.Results) != 0 || a.HistoryLen != 0 {
		t.Error("reset should discard all session state")
	}
}

func TestResolve_RollbackIsTerminal(t *testing.T) {
	req := request.StructuredRequest{Intent: request.IntentRollback, RollbackRequested: true}

	out := Resolve(req, nil, 2)
	rb, ok := out.(RollbackResult)
	if !ok {
		t.Fatalf("outcome = %T, want RollbackResult", out)
	}
	if !rb.Restored {
		t.Error("non-empty history should restore")
	}

	out = Resolve(req, nil, 0)
	if rb := out.(RollbackResult); rb.Restored {
		t.Error("empty history must report restored=false")
	}
}

func TestResolve_SetRouteWithoutTarget(t *testing.T) {
	req := request.StructuredRequest{Intent: request.IntentSetRoute}
	out := Resolve(req, nil, 0)
	cl, ok := out.(Clarification)
	if !ok {
		t.Fatalf("outcome = %T, want Clarification", out)
	}
	if cl.Reason != ReasonNoDestination {
		t.Errorf("reason = %q, want no_destination", cl.Reason)
	}
}

func TestResolve_SelectPriorDefensiveCheck(t *testing.T) {
	req := request.StructuredRequest{Intent: request.IntentSelectPrior}
	out := Resolve(req, nil, 0)
	cl, ok := out.(Clarification)
	if !ok {
		t.Fatalf("outcome = %T, want Clarification", out)
	}
	if cl.Reason != ReasonNoPriorResults {
		t.Errorf("reason = %q, want no_prior_results", cl.Reason)
	}
}

func TestResolve_SelectionIsByteIdentical(t *testing.T) {
	prior := lots("첫번째", "두번째", "세번째", "네번째")
	req := request.StructuredRequest{Intent: request.IntentSelectPrior, SelectionIndex: 2}

	out := Resolve(req, prior, 1)
	routed, ok := out.(RoutedRequest)
	if !ok {
		t.Fatalf("outcome = %T, want RoutedRequest", out)
	}
	if !routed.FromPrior {
		t.Error("selection must be marked as resolved from prior results")
	}
	if len(routed.Selected) != 1 || routed.Selected[0] != prior[1] {
		t.Errorf("Selected = %+v, want exactly prior[1]", routed.Selected)
	}
}

func TestResolve_WaypointRefsPreserveOrder(t *testing.T) {
	prior := lots("A", "B", "C")
	req := request.StructuredRequest{
		Intent:       request.IntentSetRoute,
		Destination:  "서울역",
		WaypointRefs: []int{3, 1},
	}

	routed := Resolve(req, prior, 0).(RoutedRequest)
	if len(routed.Waypoints) != 2 {
		t.Fatalf("waypoints = %+v, want 2", routed.Waypoints)
	}
	if routed.Waypoints[0].Name != "C" || routed.Waypoints[1].Name != "A" {
		t.Errorf("waypoint order not preserved: %+v", routed.Waypoints)
	}
}

func TestResolve_DetailWithoutIndexReturnsWholeList(t *testing.T) {
	prior := lots("A", "B")
	req := request.StructuredRequest{Intent: request.IntentDetail}

	routed := Resolve(req, prior, 1).(RoutedRequest)
	if len(routed.Selected) != 2 || !routed.FromPrior {
		t.Errorf("detail should carry the whole prior list, got %+v", routed.Selected)
	}
}
