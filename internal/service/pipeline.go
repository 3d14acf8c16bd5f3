// README: Pipeline controller — classify, validate, resolve, retrieve, route, reply.
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"safeparking/internal/ai"
	"safeparking/internal/modules/convo"
	"safeparking/internal/modules/request"
	"safeparking/internal/modules/retrieve"
	"safeparking/internal/types"
)

// Retriever orchestrates data retrieval for one resolved request.
type Retriever interface {
	Retrieve(ctx context.Context, routed convo.RoutedRequest, origin types.Point) retrieve.Result
}

// PlaceResolver resolves a place name to candidate entities.
type PlaceResolver interface {
	Search(ctx context.Context, keyword string, origin types.Point) ([]types.Entity, error)
}

// Router computes a driving route through ordered waypoints.
type Router interface {
	Route(ctx context.Context, origin types.Point, waypoints []types.Point, dest types.Point, preference string) (types.RouteSummary, error)
}

// Pipeline owns the full conversational turn: it is the only component that
// mutates session state, and it does so exactly once per turn, at the end.
type Pipeline struct {
	classifier ai.Classifier
	responder  ai.Responder
	sessions   *convo.Sessions
	validator  *request.Validator
	retriever  Retriever
	places     PlaceResolver
	router     Router

	externalTimeout time.Duration
}

func NewPipeline(
	classifier ai.Classifier,
	responder ai.Responder,
	sessions *convo.Sessions,
	validator *request.Validator,
	retriever Retriever,
	places PlaceResolver,
	router Router,
	externalTimeout time.Duration,
) *Pipeline {
	if externalTimeout <= 0 {
		externalTimeout = 10 * time.Second
	}
	return &Pipeline{
		classifier:      classifier,
		responder:       responder,
		sessions:        sessions,
		validator:       validator,
		retriever:       retriever,
		places:          places,
		router:          router,
		externalTimeout: externalTimeout,
	}
}

// TurnInput is one user utterance with the device position it was sent from.
type TurnInput struct {
	SessionID types.ID
	Utterance string
	Position  types.Point
}

// TurnResult is the pipeline's answer for one turn.
type TurnResult struct {
	Text        string               `json:"text"`
	Intent      request.Intent       `json:"intent"`
	Corrections []string             `json:"corrections,omitempty"`
	Entities    []types.Entity       `json:"entities,omitempty"`
	Route       *types.RouteSummary  `json:"route,omitempty"`
	Clarify     convo.ClarifyReason  `json:"clarify,omitempty"`
	RolledBack  bool                 `json:"rolledBack,omitempty"`
	Restored    bool                 `json:"restored,omitempty"`
	// Superseded marks a turn whose state change was refused because a newer
	// utterance arrived for the same session while this one was in flight.
	Superseded bool `json:"superseded,omitempty"`
}

// ProcessTurn runs one utterance through the whole pipeline. It never returns
// an error for degraded external services — the reply explains instead; an
// error means the turn produced no usable reply at all.
func (p *Pipeline) ProcessTurn(ctx context.Context, in TurnInput) (TurnResult, error) {
	turn := p.sessions.Begin(in.SessionID)

	raw := p.classify(ctx, in.Utterance, turn.ContextSummary)
	req, corrections := p.validator.Validate(raw, len(turn.Results))

	res := TurnResult{Intent: req.Intent, Corrections: corrections}

	switch outcome := convo.Resolve(req, turn.Results, turn.HistoryLen).(type) {
	case convo.RollbackResult:
		res.RolledBack = true
		res.Restored = turn.Rollback()
		res.Superseded = !res.Restored && outcome.Restored

	case convo.Clarification:
		// A clarification is an unanswered turn: no retrieval, no commit.
		res.Clarify = outcome.Reason

	case convo.RoutedRequest:
		rctx, cancel := context.WithTimeout(ctx, p.externalTimeout)
		retrieved := p.retriever.Retrieve(rctx, outcome, in.Position)
		cancel()
		if retrieved.Clarify != "" {
			res.Clarify = retrieved.Clarify
			break
		}
		res.Entities = retrieved.Entities

		if req.Intent == request.IntentSetRoute {
			route, entities, clarify := p.resolveRoute(ctx, req, outcome, in.Position)
			if clarify != "" {
				res.Clarify = clarify
				break
			}
			res.Route = route
			if len(res.Entities) == 0 {
				res.Entities = entities
			}
		}

		if req.Intent.Committable() {
			if !turn.Commit(req, res.Entities, retrieved.NewSearch, res.Route) {
				res.Superseded = true
			}
		}
	}

	text, err := p.compose(ctx, in.Utterance, res)
	if err != nil {
		return TurnResult{}, err
	}
	res.Text = text
	return res, nil
}

// Reset discards all conversation state for a session.
func (p *Pipeline) Reset(sessionID types.ID) {
	p.sessions.Reset(sessionID)
}

// classify degrades a failed or unparseable classification to an empty map;
// the validator turns that into a general-intent request and the user gets a
// normal conversational reply instead of an error.
func (p *Pipeline) classify(ctx context.Context, utterance, contextSummary string) map[string]any {
	cctx, cancel := context.WithTimeout(ctx, p.externalTimeout)
	defer cancel()

	raw, err := p.classifier.Classify(cctx, utterance, contextSummary)
	if err != nil {
		log.Printf("classification failed, falling back to general: %v", err)
		return map[string]any{}
	}
	return raw
}

// resolveRoute resolves the route target and waypoints, then calls the router.
// Target resolution happens strictly before the routing call: an unresolvable
// destination yields a clarification and the router is never invoked. A
// routing failure after a resolved target is not a clarification — the user
// still gets the destination info, with the route marked failed.
func (p *Pipeline) resolveRoute(ctx context.Context, req request.StructuredRequest, routed convo.RoutedRequest, origin types.Point) (*types.RouteSummary, []types.Entity, convo.ClarifyReason) {
	ctx, cancel := context.WithTimeout(ctx, p.externalTimeout)
	defer cancel()

	var dest types.Entity
	switch {
	case routed.FromPrior && len(routed.Selected) == 1:
		dest = routed.Selected[0]
	default:
		name := req.Destination
		if name == "" {
			name = req.Region
		}
		if name == "" {
			// A selection or waypoint reference that did not survive resolution
			// leaves nothing to navigate to.
			return nil, nil, convo.ReasonNoDestination
		}
		found, err := p.places.Search(ctx, name, origin)
		if err != nil {
			log.Printf("destination lookup %q: %v", name, err)
			return nil, nil, convo.ReasonLocationNotFound
		}
		if len(found) == 0 {
			return nil, nil, convo.ReasonLocationNotFound
		}
		dest = found[0]
	}

	waypoints, err := p.resolveWaypoints(ctx, routed.Waypoints, req.WaypointNames, origin)
	if err != nil {
		log.Printf("waypoint resolution: %v", err)
	}

	summary, err := p.router.Route(ctx, origin, waypoints, dest.Position, string(req.RoutePreference))
	if err != nil {
		log.Printf("routing to %q: %v", dest.Name, err)
		summary = types.RouteSummary{Destination: dest.Position, Waypoints: waypoints, Failed: true}
	}
	summary.DestinationName = dest.Name
	return &summary, []types.Entity{dest}, ""
}

// resolveWaypoints merges reference-resolved waypoints with named ones.
// Named lookups run concurrently but the declared order is preserved;
// a waypoint that resolves to nothing is dropped from the route.
func (p *Pipeline) resolveWaypoints(ctx context.Context, resolved []types.Entity, names []string, origin types.Point) ([]types.Point, error) {
	points := make([]types.Point, 0, len(resolved)+len(names))
	for _, e := range resolved {
		points = append(points, e.Position)
	}
	if len(names) == 0 {
		return points, nil
	}

	byName := make([]types.Point, len(names))
	found := make([]bool, len(names))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			places, err := p.places.Search(gctx, name, origin)
			if err != nil {
				return fmt.Errorf("waypoint %q: %w", name, err)
			}
			if len(places) > 0 {
				byName[i] = places[0].Position
				found[i] = true
			}
			return nil
		})
	}
	err := g.Wait()

	for i := range names {
		if found[i] {
			points = append(points, byName[i])
		}
	}
	return points, err
}

func (p *Pipeline) compose(ctx context.Context, utterance string, res TurnResult) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, p.externalTimeout)
	defer cancel()

	text, err := p.responder.Compose(cctx, ai.ReplySummary{
		Utterance:  utterance,
		Intent:     string(res.Intent),
		Entities:   res.Entities,
		Route:      res.Route,
		Clarify:    string(res.Clarify),
		RolledBack: res.RolledBack,
		Restored:   res.Restored,
	})
	if err != nil {
		log.Printf("reply composition failed: %v", err)
		return fallbackReply(res), nil
	}
	return text, nil
}

// fallbackReply covers a dead reply model with a minimal canned answer so the
// turn still completes.
func fallbackReply(res TurnResult) string {
	switch {
	case res.Clarify != "":
		return "요청을 처리하려면 정보가 조금 더 필요해요. 다시 한번 말씀해 주시겠어요?"
	case res.RolledBack && res.Restored:
		return "이전 요청으로 되돌렸어요."
	case res.RolledBack:
		return "되돌릴 이전 요청이 없어요."
	case len(res.Entities) > 0:
		return fmt.Sprintf("%d건의 결과를 찾았어요. 가장 가까운 곳은 %s입니다.", len(res.Entities), res.Entities[0].Name)
	default:
		return "네, 말씀해 주세요. 주차장 찾기를 도와드릴게요."
	}
}
