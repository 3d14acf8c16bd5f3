// README: Reference resolver — maps ordinal/pronoun references onto retained results.
package convo

import (
	"safeparking/internal/modules/request"
	"safeparking/internal/types"
)

// ClarifyReason identifies why the pipeline must ask instead of guessing.
type ClarifyReason string

const (
	ReasonNoDestination    ClarifyReason = "no_destination"
	ReasonNoPriorResults   ClarifyReason = "no_prior_results"
	ReasonLocationNotFound ClarifyReason = "location_not_found"
)

// Outcome is exactly one of RoutedRequest, RollbackResult, or Clarification.
type Outcome interface{ outcome() }

// RollbackResult is terminal for the turn; no retrieval happens.
type RollbackResult struct {
	Restored bool
}

// Clarification is terminal and non-committing: it represents an unanswered
// turn, so it must never reach the history stack or the result register.
type Clarification struct {
	Reason ClarifyReason
}

// RoutedRequest carries the validated request plus any entities already
// resolved from the last-result register. Entities resolved here are returned
// byte-identical to what the user was shown — no re-lookup drift.
type RoutedRequest struct {
	Request request.StructuredRequest

	// Selected holds the entity picked by selectionIndex, or for a detail
	// request without an explicit index, the whole prior list.
	Selected []types.Entity
	// Waypoints holds entities resolved from waypointRefs, in declared order.
	Waypoints []types.Entity
	// FromPrior is set when Selected came from the register, meaning the
	// orchestrator must not issue a fresh lookup for it.
	FromPrior bool
}

func (RollbackResult) outcome() {}
func (Clarification) outcome()  {}
func (RoutedRequest) outcome()  {}

// Resolve maps the validated request onto the turn's prior-result snapshot.
// It is pure; state mutation (the actual history pop) is the controller's job.
func Resolve(fixed request.StructuredRequest, prior []types.Entity, historyLen int) Outcome {
	if fixed.RollbackRequested {
		return RollbackResult{Restored: historyLen > 0}
	}

	// The validator falls back to prior result #1 when the register is
	// non-empty, so this only fires with nothing to navigate to at all.
	if fixed.Intent == request.IntentSetRoute && !fixed.HasRouteTarget() {
		return Clarification{Reason: ReasonNoDestination}
	}

	// The validator reclassifies this case already; defensive check only.
	if fixed.Intent == request.IntentSelectPrior && len(prior) == 0 {
		return Clarification{Reason: ReasonNoPriorResults}
	}

	routed := RoutedRequest{Request: fixed}

	if fixed.SelectionIndex > 0 && fixed.SelectionIndex <= len(prior) {
		routed.Selected = []types.Entity{prior[fixed.SelectionIndex-1]}
		routed.FromPrior = true
	} else if fixed.Intent == request.IntentDetail && len(prior) > 0 {
		// Detail without an explicit index refers to the whole shown list.
		routed.Selected = prior
		routed.FromPrior = true
	}

	for _, ref := range fixed.WaypointRefs {
		if ref >= 1 && ref <= len(prior) {
			routed.Waypoints = append(routed.Waypoints, prior[ref-1])
		}
	}

	return routed
}
