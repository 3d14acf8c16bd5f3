package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"safeparking/internal/ai"
	"safeparking/internal/modules/convo"
	"safeparking/internal/modules/request"
	"safeparking/internal/modules/retrieve"
	"safeparking/internal/types"
)

var cityHall = types.Point{Lat: 37.5665, Lng: 126.9780}

type fakeClassifier struct {
	out map[string]any
	err error
	// outs, when set, is consumed one response per call.
	outs []map[string]any
}

func (f *fakeClassifier) Classify(_ context.Context, _, _ string) (map[string]any, error) {
	if len(f.outs) > 0 {
		out := f.outs[0]
		f.outs = f.outs[1:]
		return out, nil
	}
	return f.out, f.err
}

type fakeResponder struct {
	err  error
	last ai.ReplySummary
}

func (f *fakeResponder) Compose(_ context.Context, s ai.ReplySummary) (string, error) {
	f.last = s
	if f.err != nil {
		return "", f.err
	}
	return "ok", nil
}

type fakeRetriever struct {
	res   retrieve.Result
	calls int
}

func (f *fakeRetriever) Retrieve(_ context.Context, routed convo.RoutedRequest, _ types.Point) retrieve.Result {
	f.calls++
	if routed.FromPrior {
		return retrieve.Result{Entities: routed.Selected}
	}
	return f.res
}

type fakePlaces struct {
	byName map[string]types.Entity
	calls  int
}

func (f *fakePlaces) Search(_ context.Context, keyword string, _ types.Point) ([]types.Entity, error) {
	f.calls++
	if e, ok := f.byName[keyword]; ok {
		return []types.Entity{e}, nil
	}
	return nil, nil
}

type fakeRouter struct {
	err   error
	calls int
	last  struct {
		waypoints []types.Point
		dest      types.Point
		pref      string
	}
}

func (f *fakeRouter) Route(_ context.Context, _ types.Point, waypoints []types.Point, dest types.Point, pref string) (types.RouteSummary, error) {
	f.calls++
	f.last.waypoints = waypoints
	f.last.dest = dest
	f.last.pref = pref
	if f.err != nil {
		return types.RouteSummary{}, f.err
	}
	return types.RouteSummary{Destination: dest, Waypoints: waypoints, DistanceMeters: 4200, DurationSeconds: 600}, nil
}

type fixture struct {
	pipeline   *Pipeline
	classifier *fakeClassifier
	responder  *fakeResponder
	retriever  *fakeRetriever
	places     *fakePlaces
	router     *fakeRouter
	sessions   *convo.Sessions
}

func newFixture() *fixture {
	f := &fixture{
		classifier: &fakeClassifier{out: map[string]any{}},
		responder:  &fakeResponder{},
		retriever:  &fakeRetriever{},
		places:     &fakePlaces{byName: map[string]types.Entity{}},
		router:     &fakeRouter{},
		sessions:   convo.NewSessions(10),
	}
	f.pipeline = NewPipeline(
		f.classifier, f.responder, f.sessions,
		request.NewValidator(5, 3, 10),
		f.retriever, f.places, f.router,
		time.Second,
	)
	return f
}

func process(t *testing.T, f *fixture, session types.ID) TurnResult {
	t.Helper()
	res, err := f.pipeline.ProcessTurn(context.Background(), TurnInput{
		SessionID: session, Utterance: "u", Position: cityHall,
	})
	if err != nil {
		t.Fatalf("ProcessTurn: %v", err)
	}
	return res
}

func TestProcessTurn_FindCommitsResults(t *testing.T) {
	f := newFixture()
	f.classifier.out = map[string]any{"intent": "find_parking", "fee_type": "free"}
	f.retriever.res = retrieve.Result{
		Entities:  []types.Entity{{Name: "세종로 공영주차장", Fee: "무료"}},
		NewSearch: true,
	}

	res := process(t, f, "s1")
	if res.Intent != request.IntentFind {
		t.Fatalf("intent = %q", res.Intent)
	}
	if len(res.Entities) != 1 || res.Text != "ok" {
		t.Fatalf("unexpected result %+v", res)
	}

	// The committed register must ground the next turn's ordinal references.
	f.classifier.out = map[string]any{"intent": "select_result", "select_index": float64(1)}
	res = process(t, f, "s1")
	if len(res.Entities) != 1 || res.Entities[0].Name != "세종로 공영주차장" {
		t.Errorf("selection did not resolve against the committed register: %+v", res.Entities)
	}
}

func TestProcessTurn_ClassifierFailureDegradesToGeneral(t *testing.T) {
	f := newFixture()
	f.classifier.err = errors.New("model down")

	res := process(t, f, "s1")
	if res.Intent != request.IntentGeneral {
		t.Errorf("intent = %q, want general fallback", res.Intent)
	}
	if f.retriever.calls != 0 {
		t.Error("general intent must not retrieve")
	}
}

func TestProcessTurn_RollbackRestoresAndSkipsRetrieval(t *testing.T) {
	f := newFixture()
	f.classifier.out = map[string]any{"intent": "find_parking"}
	f.retriever.res = retrieve.Result{Entities: []types.Entity{{Name: "A"}}, NewSearch: true}
	process(t, f, "s1")
	process(t, f, "s1") // second find pushes the first onto history

	calls := f.retriever.calls
	f.classifier.out = map[string]any{"intent": "rollback", "rollback": "O"}
	res := process(t, f, "s1")
	if !res.RolledBack || !res.Restored {
		t.Fatalf("rollback result %+v", res)
	}
	if f.retriever.calls != calls {
		t.Error("rollback must not trigger retrieval")
	}
}

func TestProcessTurn_RollbackWithEmptyHistory(t *testing.T) {
	f := newFixture()
	f.classifier.out = map[string]any{"intent": "rollback", "rollback": "O"}
	res := process(t, f, "fresh")
	if !res.RolledBack || res.Restored {
		t.Errorf("empty-history rollback should report nothing restored: %+v", res)
	}
}

func TestProcessTurn_SetRouteWithoutDestinationClarifies(t *testing.T) {
	f := newFixture()
	f.classifier.out = map[string]any{"intent": "route_set"}

	res := process(t, f, "s1")
	if res.Clarify != convo.ReasonNoDestination {
		t.Fatalf("Clarify = %q, want no_destination", res.Clarify)
	}
	if f.router.calls != 0 {
		t.Error("clarification must precede any routing call")
	}
	if f.responder.last.Clarify != string(convo.ReasonNoDestination) {
		t.Error("reply model must see the clarification reason")
	}
}

func TestProcessTurn_SetRouteFreshDestination(t *testing.T) {
	f := newFixture()
	f.places.byName["부산역"] = types.Entity{Name: "부산역", Position: types.Point{Lat: 35.1151, Lng: 129.0413}}
	f.classifier.out = map[string]any{"intent": "route_set", "destination": "부산역", "route_pref": "tollFree"}

	res := process(t, f, "s1")
	if res.Route == nil || res.Route.Failed {
		t.Fatalf("route missing or failed: %+v", res.Route)
	}
	if res.Route.DestinationName != "부산역" {
		t.Errorf("DestinationName = %q", res.Route.DestinationName)
	}
	if f.router.last.pref != "tollFree" {
		t.Errorf("preference = %q, want tollFree", f.router.last.pref)
	}
}

func TestProcessTurn_SetRouteUnknownDestinationClarifiesBeforeRouting(t *testing.T) {
	f := newFixture()
	f.classifier.out = map[string]any{"intent": "route_set", "destination": "없는곳"}

	res := process(t, f, "s1")
	if res.Clarify != convo.ReasonLocationNotFound {
		t.Fatalf("Clarify = %q, want location_not_found", res.Clarify)
	}
	if f.router.calls != 0 {
		t.Error("an unresolvable destination must never reach the router")
	}
}

func TestProcessTurn_SetRouteToPriorSelection(t *testing.T) {
	f := newFixture()
	target := types.Entity{Name: "을지로 주차장", Position: types.Point{Lat: 37.566, Lng: 126.983}}
	f.classifier.out = map[string]any{"intent": "find_parking"}
	f.retriever.res = retrieve.Result{Entities: []types.Entity{{Name: "다른 곳"}, target}, NewSearch: true}
	process(t, f, "s1")

	f.classifier.out = map[string]any{"intent": "route_set", "select_index": float64(2)}
	res := process(t, f, "s1")
	if res.Route == nil {
		t.Fatal("no route")
	}
	if res.Route.DestinationName != target.Name || f.router.last.dest != target.Position {
		t.Errorf("route target should be the byte-identical prior entity, got %+v", res.Route)
	}
	if f.places.calls != 0 {
		t.Error("a register-resolved destination must not be re-geocoded")
	}
}

func TestProcessTurn_SetRouteFallsBackToPriorFirst(t *testing.T) {
	f := newFixture()
	target := types.Entity{Name: "세종로 공영주차장", Position: types.Point{Lat: 37.5725, Lng: 126.9769}}
	f.classifier.out = map[string]any{"intent": "find_parking"}
	f.retriever.res = retrieve.Result{Entities: []types.Entity{target, {Name: "다른 곳"}}, NewSearch: true}
	process(t, f, "s1")

	// "거기로 안내해줘": no destination named, but a list was just shown.
	f.classifier.out = map[string]any{"intent": "route_set"}
	res := process(t, f, "s1")
	if res.Clarify != "" {
		t.Fatalf("Clarify = %q, want the first shown result picked instead", res.Clarify)
	}
	if res.Route == nil || res.Route.DestinationName != target.Name {
		t.Fatalf("route = %+v, want destination %q", res.Route, target.Name)
	}
	if f.router.calls != 1 || f.router.last.dest != target.Position {
		t.Errorf("router got %+v, want the prior #1 position", f.router.last.dest)
	}
	if f.places.calls != 0 {
		t.Error("the register-resolved destination must not be re-geocoded")
	}
}

func TestProcessTurn_RoutingFailureStillAnswers(t *testing.T) {
	f := newFixture()
	f.places.byName["부산역"] = types.Entity{Name: "부산역", Position: types.Point{Lat: 35.1151, Lng: 129.0413}}
	f.classifier.out = map[string]any{"intent": "route_set", "destination": "부산역"}
	f.router.err = errors.New("directions api down")

	res := process(t, f, "s1")
	if res.Clarify != "" {
		t.Fatal("a routing failure is not a clarification")
	}
	if res.Route == nil || !res.Route.Failed {
		t.Fatalf("route should be marked failed: %+v", res.Route)
	}
	if len(res.Entities) == 0 || res.Entities[0].Name != "부산역" {
		t.Error("the resolved destination is still shown to the user")
	}
}

func TestProcessTurn_WaypointsPreserveDeclaredOrder(t *testing.T) {
	f := newFixture()
	f.places.byName["부산역"] = types.Entity{Name: "부산역", Position: types.Point{Lat: 35.1151, Lng: 129.0413}}
	f.places.byName["휴게소"] = types.Entity{Name: "휴게소", Position: types.Point{Lat: 36.5, Lng: 127.5}}
	f.places.byName["주유소"] = types.Entity{Name: "주유소", Position: types.Point{Lat: 37.0, Lng: 127.2}}
	f.classifier.out = map[string]any{
		"intent":         "route_set",
		"destination":    "부산역",
		"waypoint_names": []any{"주유소", "휴게소"},
	}

	res := process(t, f, "s1")
	if res.Route == nil {
		t.Fatal("no route")
	}
	want := []types.Point{{Lat: 37.0, Lng: 127.2}, {Lat: 36.5, Lng: 127.5}}
	if len(f.router.last.waypoints) != 2 || f.router.last.waypoints[0] != want[0] || f.router.last.waypoints[1] != want[1] {
		t.Errorf("waypoints = %v, want declared order %v", f.router.last.waypoints, want)
	}
}

func TestProcessTurn_ClarificationDoesNotCommit(t *testing.T) {
	f := newFixture()
	f.classifier.out = map[string]any{"intent": "find_parking"}
	f.retriever.res = retrieve.Result{Entities: []types.Entity{{Name: "A"}}, NewSearch: true}
	process(t, f, "s1")

	f.classifier.out = map[string]any{"intent": "route_set", "destination": "없는곳"} // unresolvable -> clarify
	process(t, f, "s1")

	// The register must still hold the find results, not be disturbed.
	f.classifier.out = map[string]any{"intent": "select_result", "select_index": float64(1)}
	res := process(t, f, "s1")
	if len(res.Entities) != 1 || res.Entities[0].Name != "A" {
		t.Errorf("clarification turn disturbed the register: %+v", res.Entities)
	}
}

func TestProcessTurn_ComposeFailureFallsBack(t *testing.T) {
	f := newFixture()
	f.responder.err = errors.New("model down")
	f.classifier.out = map[string]any{"intent": "greeting"}

	res := process(t, f, "s1")
	if res.Text == "" {
		t.Error("a dead reply model must still produce a canned answer")
	}
}

func TestProcessTurn_SessionsAreIsolated(t *testing.T) {
	f := newFixture()
	f.classifier.out = map[string]any{"intent": "find_parking"}
	f.retriever.res = retrieve.Result{Entities: []types.Entity{{Name: "A"}}, NewSearch: true}
	process(t, f, "s1")

	f.classifier.out = map[string]any{"intent": "select_result", "select_index": float64(1)}
	res := process(t, f, "s2")
	// In a fresh session the selection reclassifies to a plain find.
	if res.Intent != request.IntentFind {
		t.Errorf("intent = %q, want find reclassification in the empty session", res.Intent)
	}
}

func TestReset_DiscardsSessionState(t *testing.T) {
	f := newFixture()
	f.classifier.out = map[string]any{"intent": "find_parking"}
	f.retriever.res = retrieve.Result{Entities: []types.Entity{{Name: "A"}}, NewSearch: true}
	process(t, f, "s1")

	f.pipeline.Reset("s1")

	f.classifier.out = map[string]any{"intent": "rollback", "rollback": "O"}
	res := process(t, f, "s1")
	if res.Restored {
		t.Error("reset must clear the history stack")
	}
}
