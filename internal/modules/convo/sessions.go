// README: Session manager — one conversation state per session, newest turn wins.
package convo

import (
	"sync"

	"safeparking/internal/modules/request"
	"safeparking/internal/types"
)

// Sessions owns one State per active chat session. State is process-local and
// never persisted; Reset discards it explicitly ("start over").
type Sessions struct {
	mu           sync.Mutex
	byID         map[types.ID]*session
	historyDepth int
}

type session struct {
	state *State
	epoch uint64
}

func NewSessions(historyDepth int) *Sessions {
	return &Sessions{
		byID:         make(map[types.ID]*session),
		historyDepth: historyDepth,
	}
}

// Turn is one utterance's handle on its session. Begin advances the session
// epoch, so a turn that is still in flight when a newer utterance arrives
// becomes stale: its mutations are refused and the newer turn's state wins.
// Reads use the snapshot taken at Begin time.
type Turn struct {
	mgr   *Sessions
	id    types.ID
	epoch uint64

	// Results is the last-result register as of the start of this turn.
	Results []types.Entity
	// HistoryLen is the history stack depth as of the start of this turn.
	HistoryLen int
	// ContextSummary grounds ordinal and route references for the classifier.
	ContextSummary string
}

// Begin starts a new turn, abandoning any in-flight turn for the same session.
func (m *Sessions) Begin(sessionID types.ID) *Turn {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byID[sessionID]
	if !ok {
		s = &session{state: newState(m.historyDepth)}
		m.byID[sessionID] = s
	}
	s.epoch++

	return &Turn{
		mgr:            m,
		id:             sessionID,
		epoch:          s.epoch,
		Results:        s.state.snapshotResults(),
		HistoryLen:     s.state.historyLen(),
		ContextSummary: s.state.contextSummary(),
	}
}

// Reset discards the session's conversation state entirely.
func (m *Sessions) Reset(sessionID types.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, sessionID)
}

// Stale reports whether a newer turn has started for this session.
func (t *Turn) Stale() bool {
	t.mgr.mu.Lock()
	defer t.mgr.mu.Unlock()
	s, ok := t.mgr.byID[t.id]
	return !ok || s.epoch != t.epoch
}

// Commit records the turn's outcome. It is a no-op returning false when the
// turn is stale — a late completion must never overwrite a newer turn's state.
func (t *Turn) Commit(req request.StructuredRequest, results []types.Entity, replaceResults bool, route *types.RouteSummary) bool {
	t.mgr.mu.Lock()
	defer t.mgr.mu.Unlock()
	s, ok := t.mgr.byID[t.id]
	if !ok || s.epoch != t.epoch {
		return false
	}
	s.state.commit(req, results, replaceResults, route)
	return true
}

// Rollback pops the session's history stack, subject to the same staleness guard.
func (t *Turn) Rollback() (restored bool) {
	t.mgr.mu.Lock()
	defer t.mgr.mu.Unlock()
	s, ok := t.mgr.byID[t.id]
	if !ok || s.epoch != t.epoch {
		return false
	}
	return s.state.rollback()
}
