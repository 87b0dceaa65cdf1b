package agent

import (
	"bytes"
	stdjson "encoding/json"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/xkilldash9x/vistest/api/schemas"
)

// json sorts map keys so the rendered prompt is stable between runs.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

const promptTemplate = `You are an AI powered end to end tester. Act according to the user's instructions.
Use the computer tool only when it is needed; some tests do not require it.
When the test is complete, call finishTest exactly once with the result.

Here is the test description:
<test_description>
%s
</test_description>

Here is the additional information passed by the user:
<additional_info>
%s
</additional_info>
`

// RenderPrompt renders the seed prompt for an instruction. The context is
// pretty printed as JSON; a nil context renders as an empty object.
func RenderPrompt(inst schemas.Instruction) (string, error) {
	ctx := inst.Context
	if ctx == nil {
		ctx = map[string]any{}
	}
	raw, err := json.Marshal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to render instruction context: %w", err)
	}
	// jsoniter's indenting stream writes a blank indented line inside empty
	// objects, so indentation is applied to the compact form instead.
	var info bytes.Buffer
	if err := stdjson.Indent(&info, raw, "", "  "); err != nil {
		return "", fmt.Errorf("failed to render instruction context: %w", err)
	}
	return fmt.Sprintf(promptTemplate, inst.Text, info.String()), nil
}

// cloneContext deep copies a JSON-like context via a round trip so the loop
// never shares mutable state with the caller.
func cloneContext(in map[string]any) (map[string]any, error) {
	if in == nil {
		return nil, nil
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("instruction context is not JSON serializable: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to copy instruction context: %w", err)
	}
	return out, nil
}
