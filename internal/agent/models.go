// internal/agent/models.go
package agent

import (
	"sync"

	"github.com/google/uuid"
	"github.com/xkilldash9x/vistest/api/schemas"
)

// SessionState is the phase of one agent session.
type SessionState string

const (
	StateAwaitingModel    SessionState = "AWAITING_MODEL"    // Waiting on the next model turn.
	StateExecutingActions SessionState = "EXECUTING_ACTIONS" // Dispatching the tool calls of the current turn.
	StateFinished         SessionState = "FINISHED"          // A valid verdict was captured.
	StateBudgetExceeded   SessionState = "BUDGET_EXCEEDED"   // The turn budget ran out without a verdict.
	StateAborted          SessionState = "ABORTED"           // An orchestration failure ended the session.
)

// Terminal reports whether no further transitions are allowed out of s.
func (s SessionState) Terminal() bool {
	return s == StateFinished || s == StateBudgetExceeded || s == StateAborted
}

// FinishAck is the tool result text recorded for an accepted finishTest call.
const FinishAck = "Test finished"

// Session is the state of one instruction run: its transcript, turn counter
// and verdict. A Session is driven by exactly one goroutine.
type Session struct {
	ID          string
	Instruction schemas.Instruction
	MaxTurns    int

	mu         sync.Mutex
	state      SessionState
	turns      int
	transcript *Transcript
	verdicts   *VerdictCollector
}

func newSession(inst schemas.Instruction, maxTurns int, verdicts func(id string) *VerdictCollector) *Session {
	id := uuid.New().String()
	return &Session{
		ID:          id,
		Instruction: inst,
		MaxTurns:    maxTurns,
		state:       StateAwaitingModel,
		verdicts:    verdicts(id),
	}
}

// State returns the current phase.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Turns returns how many model turns have completed.
func (s *Session) Turns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turns
}

// transition moves to next unless the session already reached a terminal
// state. It reports whether the move happened.
func (s *Session) transition(next SessionState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return false
	}
	s.state = next
	return true
}

func (s *Session) completeTurn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns++
	return s.turns
}

// Result is what a finished session hands back to the caller.
type Result struct {
	SessionID  string                    `json:"session_id"`
	State      SessionState              `json:"state"`
	Turns      int                       `json:"turns"`
	Verdict    *schemas.Verdict          `json:"verdict,omitempty"`
	Transcript []schemas.TranscriptEntry `json:"transcript"`
}
