package agent

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/vistest/api/schemas"
)

func TestRenderPrompt(t *testing.T) {
	t.Run("includes instruction and pretty printed context", func(t *testing.T) {
		p, err := RenderPrompt(schemas.Instruction{
			Text:    "log in and check the dashboard",
			Context: map[string]any{"username": "alice"},
		})
		require.NoError(t, err)

		assert.Contains(t, p, "<test_description>\nlog in and check the dashboard\n</test_description>")
		assert.Contains(t, p, "<additional_info>\n{\n  \"username\": \"alice\"\n}\n</additional_info>")
	})

	t.Run("nil context renders as an empty object", func(t *testing.T) {
		p, err := RenderPrompt(schemas.Instruction{Text: "x"})
		require.NoError(t, err)
		assert.Contains(t, p, "<additional_info>\n{}\n</additional_info>")
	})

	t.Run("empty context renders as an empty object", func(t *testing.T) {
		p, err := RenderPrompt(schemas.Instruction{Text: "x", Context: map[string]any{}})
		require.NoError(t, err)
		assert.Contains(t, p, "<additional_info>\n{}\n</additional_info>")
	})

	t.Run("nested empty values stay compact", func(t *testing.T) {
		p, err := RenderPrompt(schemas.Instruction{
			Text:    "x",
			Context: map[string]any{"filters": map[string]any{}, "tags": []any{}},
		})
		require.NoError(t, err)
		assert.Contains(t, p, "<additional_info>\n{\n  \"filters\": {},\n  \"tags\": []\n}\n</additional_info>")
	})

	t.Run("unserializable context", func(t *testing.T) {
		_, err := RenderPrompt(schemas.Instruction{Text: "x", Context: map[string]any{"fn": func() {}}})
		assert.Error(t, err)
	})
}

func TestCloneContext(t *testing.T) {
	in := map[string]any{"user": map[string]any{"name": "alice"}}
	out, err := cloneContext(in)
	require.NoError(t, err)

	out["user"].(map[string]any)["name"] = "mallory"
	assert.Equal(t, "alice", in["user"].(map[string]any)["name"], "the copy must not alias the caller's map")

	nilOut, err := cloneContext(nil)
	require.NoError(t, err)
	assert.Nil(t, nilOut)
}

func TestToolSet(t *testing.T) {
	tools := ToolSet(newTestDispatcher(), DisplaySize{Width: 1920, Height: 1080})
	require.Len(t, tools, 3)

	names := []string{tools[0].Name, tools[1].Name, tools[2].Name}
	assert.Equal(t, []string{schemas.ToolComputer, schemas.ToolNavigate, schemas.ToolFinish}, names)
	assert.Contains(t, tools[0].Description, "1920x1080")

	props := tools[0].Parameters["properties"].(map[string]any)
	enum := props["action"].(map[string]any)["enum"].([]any)
	assert.Len(t, enum, 9, "every registered action except navigate")
	assert.Contains(t, enum, "left_click")
	assert.Contains(t, enum, "double_click")
	assert.NotContains(t, enum, "navigate")
	listed := make([]string, 0, len(enum))
	for _, v := range enum {
		listed = append(listed, v.(string))
	}
	assert.True(t, slices.IsSorted(listed), "enum order is stable: %v", listed)

	assert.Equal(t, []any{"success", "message"}, tools[2].Parameters["required"])
}
