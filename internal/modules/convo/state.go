// README: Conversation state — bounded history stack, last-result register, last route.
package convo

import (
	"fmt"
	"strings"

	"safeparking/internal/modules/request"
	"safeparking/internal/types"
)

// State holds everything the pipeline remembers about one chat session.
// It is owned by the session manager; nothing outside this package mutates it.
type State struct {
	capacity int

	history     []request.StructuredRequest
	current     *request.StructuredRequest
	lastResults []types.Entity
	lastRoute   *types.RouteSummary
}

func newState(capacity int) *State {
	if capacity < 1 {
		capacity = 1
	}
	return &State{capacity: capacity}
}

// commit records a completed turn: the previous current request is pushed onto
// the history stack (evicting the oldest entry at capacity) before being
// overwritten. The last-result register is replaced only when the turn was a
// genuinely new top-level search; the last route is always overwritten.
func (s *State) commit(req request.StructuredRequest, results []types.Entity, replaceResults bool, route *types.RouteSummary) {
	if s.current != nil {
		s.history = append(s.history, *s.current)
		if len(s.history) > s.capacity {
			s.history = s.history[1:]
		}
	}
	cur := req
	s.current = &cur

	if replaceResults {
		s.lastResults = results
	}
	s.lastRoute = route
}

// rollback pops the history stack. The popped request becomes the current
// conversational context; derived registers are cleared because they describe
// the turn being undone.
func (s *State) rollback() bool {
	if len(s.history) == 0 {
		return false
	}
	top := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	s.current = &top
	s.lastResults = nil
	s.lastRoute = nil
	return true
}

func (s *State) historyLen() int { return len(s.history) }

func (s *State) snapshotResults() []types.Entity {
	if len(s.lastResults) == 0 {
		return nil
	}
	out := make([]types.Entity, len(s.lastResults))
	copy(out, s.lastResults)
	return out
}

// contextSummary renders the retained registers for the classifier so both
// ordinal references ("2번") and route references ("그 경로") can be grounded.
func (s *State) contextSummary() string {
	sum := resultsSummary(s.lastResults)
	if s.lastRoute == nil || s.lastRoute.Failed {
		return sum
	}
	line := fmt.Sprintf("[현재 경로: %s까지]", s.lastRoute.DestinationName)
	if sum == "" {
		return line
	}
	return sum + " " + line
}

// resultsSummary renders the last-result register for the classifier context
// so ordinal references ("2번", "that one") can be grounded.
func resultsSummary(results []types.Entity) string {
	if len(results) == 0 {
		return ""
	}
	parts := make([]string, 0, len(results))
	for i, e := range results {
		parts = append(parts, fmt.Sprintf("%d번: %s", i+1, e.Name))
	}
	return "[이전 추천 목록: " + strings.Join(parts, ", ") + "]"
}
