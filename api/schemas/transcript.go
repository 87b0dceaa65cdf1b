package schemas

import "time"

// Role tags who a transcript entry is attributed to when it is shown to the model.
type Role string

const (
	// RoleUser entries carry the rendered instruction and the first screenshot.
	RoleUser Role = "user"
	// RoleTool entries carry the outcome of one tool call requested by the model.
	RoleTool Role = "tool"
)

// Tool names offered to the model.
const (
	ToolComputer = "computer"
	ToolNavigate = "navigate"
	ToolFinish   = "finishTest"
)

// ToolCall is one structured call emitted by the model. Args arrive exactly as
// the model produced them and are untrusted.
type ToolCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// Instruction is the natural-language test step plus optional caller context.
// It is never mutated once a session has started.
type Instruction struct {
	Text    string         `json:"text"`
	Context map[string]any `json:"context,omitempty"`
}

// TranscriptEntry is one message in the ordered session history.
type TranscriptEntry struct {
	Role Role `json:"role"`
	// Text is the rendered prompt for user entries, or the plain-text tool
	// result (finish acknowledgments) for tool entries.
	Text string `json:"text,omitempty"`
	// Image is the JPEG attached to the seed entry.
	Image []byte `json:"image,omitempty"`
	// ModelText is free text the model emitted in the same turn, ahead of Call.
	ModelText string `json:"model_text,omitempty"`
	// Call is the tool call this entry answers. Nil for user entries.
	Call *ToolCall `json:"call,omitempty"`
	// Outcome is set for computer/navigate tool entries.
	Outcome *ActionOutcome `json:"outcome,omitempty"`
	// Turn is the 1-based model turn that emitted Call. Entries sharing a
	// turn answer calls the model made together.
	Turn int `json:"turn,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Verdict is the structured result the agent reports through finishTest.
type Verdict struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
