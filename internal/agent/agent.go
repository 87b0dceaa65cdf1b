// internal/agent/agent.go
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/xkilldash9x/vistest/api/schemas"
	"go.uber.org/zap"
)

// DefaultMaxTurns bounds how many model turns a session may take.
const DefaultMaxTurns = 10

// Config tunes the loop.
type Config struct {
	// MaxTurns is the number of model calls a session may make before it is
	// declared BUDGET_EXCEEDED.
	MaxTurns int
	// ModelMaxSteps is passed through to the model as its inner step bound.
	ModelMaxSteps int
	Display       DisplaySize
}

// Agent runs instruction sessions against a browser. It holds only shared,
// reentrant collaborators; all per-run state lives in a Session, so one Agent
// may drive many sessions concurrently.
type Agent struct {
	logger     *zap.Logger
	model      schemas.ModelClient
	dispatcher ActionDispatcher
	tools      []schemas.ToolSpec
	cfg        Config
	recorder   Recorder
}

// Option configures an Agent.
type Option func(*Agent)

// WithSessionRecorder sets the metrics sink for turn and session counters.
func WithSessionRecorder(r Recorder) Option {
	return func(a *Agent) {
		if r != nil {
			a.recorder = r
		}
	}
}

// New creates an Agent. The tool set is derived from the dispatcher registry.
func New(logger *zap.Logger, model schemas.ModelClient, dispatcher *Dispatcher, cfg Config, opts ...Option) *Agent {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}
	if cfg.ModelMaxSteps <= 0 {
		cfg.ModelMaxSteps = cfg.MaxTurns
	}
	a := &Agent{
		logger:     logger.Named("agent"),
		model:      model,
		dispatcher: dispatcher,
		tools:      ToolSet(dispatcher, cfg.Display),
		cfg:        cfg,
		recorder:   nopRecorder{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run executes one instruction against driver until the model reports a
// verdict or the turn budget is exhausted.
//
// The returned Result is never nil. A nil error means the session reached
// FINISHED and Result.Verdict is set, whatever the verdict says. Any other
// ending is an *OrchestrationError.
func (a *Agent) Run(ctx context.Context, driver schemas.BrowserDriver, inst schemas.Instruction) (*Result, error) {
	sess := newSession(inst, a.cfg.MaxTurns, func(id string) *VerdictCollector {
		return NewVerdictCollector(a.logger, id)
	})
	logger := a.logger.With(zap.String("session_id", sess.ID))
	logger.Info("Starting agent session", zap.Int("max_turns", sess.MaxTurns))

	err := a.run(ctx, logger, sess, driver)
	result := a.result(sess)
	a.recorder.SessionEnded(string(result.State), result.Turns)

	if err != nil {
		logger.Warn("Agent session aborted", zap.String("state", string(result.State)), zap.Error(err))
		return result, err
	}
	logger.Info("Agent session finished",
		zap.Int("turns", result.Turns),
		zap.Bool("success", result.Verdict.Success),
		zap.String("message", result.Verdict.Message))
	return result, nil
}

func (a *Agent) run(ctx context.Context, logger *zap.Logger, sess *Session, driver schemas.BrowserDriver) error {
	// -- Seeding --
	copied, err := cloneContext(sess.Instruction.Context)
	if err != nil {
		return a.abort(sess, ReasonBadInstruction, err)
	}
	prompt, err := RenderPrompt(schemas.Instruction{Text: sess.Instruction.Text, Context: copied})
	if err != nil {
		return a.abort(sess, ReasonBadInstruction, err)
	}
	screenshot, err := driver.CaptureScreenshot(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return a.abort(sess, ReasonCanceled, ctx.Err())
		}
		return a.abort(sess, ReasonBrowserFailure, fmt.Errorf("initial screenshot failed: %w", err))
	}
	sess.transcript = Seed(prompt, screenshot)

	// -- Turns --
	for sess.Turns() < sess.MaxTurns {
		if err := ctx.Err(); err != nil {
			return a.abort(sess, ReasonCanceled, err)
		}

		turn, err := a.model.Converse(ctx, schemas.ConverseRequest{
			Transcript: sess.transcript.Snapshot(),
			Tools:      a.tools,
			MaxSteps:   a.cfg.ModelMaxSteps,
		})
		if err != nil {
			if ctx.Err() != nil {
				return a.abort(sess, ReasonCanceled, ctx.Err())
			}
			return a.abort(sess, ReasonModelFailure, err)
		}

		n := sess.completeTurn()
		a.recorder.TurnCompleted()
		sess.transition(StateExecutingActions)

		turnLogger := logger.With(zap.Int("turn", n))
		finished, err := a.executeTurn(ctx, turnLogger, sess, driver, turn)
		if err != nil {
			return err
		}
		if finished {
			sess.transition(StateFinished)
			return nil
		}
		sess.transition(StateAwaitingModel)
	}

	sess.transition(StateBudgetExceeded)
	return newOrchestrationError(ReasonBudgetExceeded, sess.ID, sess.Turns(), nil)
}

// executeTurn processes the tool calls of one model turn strictly in order.
// It reports whether a valid finishTest call ended the session. A rejected
// request ends the turn so the model sees the failure before anything else
// runs; a closed driver aborts the session.
func (a *Agent) executeTurn(ctx context.Context, logger *zap.Logger, sess *Session, driver schemas.BrowserDriver, turn *schemas.ModelTurn) (bool, error) {
	if turn == nil || len(turn.ToolCalls) == 0 {
		logger.Debug("Model turn carried no tool calls")
		return false, nil
	}

	modelText := turn.Text
	for i := range turn.ToolCalls {
		call := turn.ToolCalls[i]
		if err := ctx.Err(); err != nil {
			return false, a.abort(sess, ReasonCanceled, err)
		}

		entry := schemas.TranscriptEntry{
			Role:      schemas.RoleTool,
			Call:      &call,
			ModelText: modelText,
			Turn:      sess.Turns(),
		}
		modelText = ""

		if call.Name == schemas.ToolFinish {
			if err := sess.verdicts.OnFinish(call.Args); err != nil {
				var oe *OrchestrationError
				if errors.As(err, &oe) {
					return false, a.abort(sess, oe.Reason, oe.Err)
				}
				return false, a.abort(sess, ReasonInvalidVerdict, err)
			}
			entry.Text = FinishAck
			sess.transcript.Append(entry)
			if skipped := len(turn.ToolCalls) - i - 1; skipped > 0 {
				logger.Debug("Skipping tool calls after finishTest", zap.Int("skipped", skipped))
			}
			return true, nil
		}

		req, known := DecodeToolCall(call)
		var outcome schemas.ActionOutcome
		if known {
			outcome = a.dispatcher.Dispatch(ctx, driver, req)
		} else {
			outcome = schemas.Rejected(schemas.ActionName(call.Name), FailureUnsupportedAction)
		}
		logger.Debug("Tool call processed",
			zap.String("tool", call.Name),
			zap.String("action", string(outcome.Action)),
			zap.Bool("failed", outcome.IsFailure()))

		entry.Outcome = &outcome
		sess.transcript.Append(entry)

		if outcome.Fatal != nil {
			return false, a.abort(sess, ReasonBrowserFailure, outcome.Fatal)
		}
		if outcome.Rejected {
			if skipped := len(turn.ToolCalls) - i - 1; skipped > 0 {
				logger.Debug("Skipping tool calls after a rejected request",
					zap.String("tool", call.Name), zap.Int("skipped", skipped))
			}
			return false, nil
		}
	}
	return false, nil
}

// abort moves the session to ABORTED and builds the orchestration error.
func (a *Agent) abort(sess *Session, reason Reason, err error) error {
	sess.transition(StateAborted)
	return newOrchestrationError(reason, sess.ID, sess.Turns(), err)
}

func (a *Agent) result(sess *Session) *Result {
	res := &Result{
		SessionID: sess.ID,
		State:     sess.State(),
		Turns:     sess.Turns(),
	}
	if sess.transcript != nil {
		res.Transcript = sess.transcript.Snapshot()
	}
	if v, ok := sess.verdicts.Verdict(); ok && res.State == StateFinished {
		res.Verdict = &v
	}
	return res
}
