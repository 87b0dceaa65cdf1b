package agent

import (
	"fmt"
	"sync"

	"github.com/xkilldash9x/vistest/api/schemas"
	"go.uber.org/zap"
)

// VerdictCollector captures the single verdict of a session. The first valid
// finishTest call wins; anything after it is logged and ignored.
type VerdictCollector struct {
	logger    *zap.Logger
	sessionID string

	mu      sync.Mutex
	verdict *schemas.Verdict
}

// NewVerdictCollector creates an empty collector for one session.
func NewVerdictCollector(logger *zap.Logger, sessionID string) *VerdictCollector {
	return &VerdictCollector{
		logger:    logger.Named("verdict"),
		sessionID: sessionID,
	}
}

// OnFinish validates a raw finishTest payload and records it if no verdict has
// been recorded yet. It returns an *OrchestrationError when the payload is
// malformed.
func (c *VerdictCollector) OnFinish(raw map[string]any) error {
	success, ok := raw["success"].(bool)
	if !ok {
		return newOrchestrationError(ReasonInvalidVerdict, c.sessionID, 0,
			fmt.Errorf("%w: 'success' must be a boolean, got %T", ErrInvalidVerdict, raw["success"]))
	}
	message, ok := raw["message"].(string)
	if !ok {
		return newOrchestrationError(ReasonInvalidVerdict, c.sessionID, 0,
			fmt.Errorf("%w: 'message' must be a string, got %T", ErrInvalidVerdict, raw["message"]))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.verdict != nil {
		c.logger.Warn("Ignoring repeated finishTest call",
			zap.String("session_id", c.sessionID),
			zap.Bool("kept_success", c.verdict.Success),
			zap.Bool("ignored_success", success))
		return nil
	}
	c.verdict = &schemas.Verdict{Success: success, Message: message}
	return nil
}

// Verdict returns the captured verdict, if any.
func (c *VerdictCollector) Verdict() (schemas.Verdict, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.verdict == nil {
		return schemas.Verdict{}, false
	}
	return *c.verdict, true
}
