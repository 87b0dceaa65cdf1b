package browser

import (
	"testing"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp/kb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParseKeyCombo(t *testing.T) {
	tests := []struct {
		name      string
		combo     string
		key       string
		modifiers []input.Modifier
	}{
		{"named key", "Return", kb.Enter, nil},
		{"named key lower", "tab", kb.Tab, nil},
		{"single char", "a", "a", nil},
		{"ctrl a", "ctrl+a", "a", []input.Modifier{input.ModifierCtrl}},
		{"two modifiers", "ctrl+shift+t", "t", []input.Modifier{input.ModifierCtrl, input.ModifierShift}},
		{"aliases", "cmd+Option+Left", kb.ArrowLeft, []input.Modifier{input.ModifierMeta, input.ModifierAlt}},
		{"surrounding space", "  shift+Tab ", kb.Tab, []input.Modifier{input.ModifierShift}},
		{"lone plus", "+", "+", nil},
		{"ctrl plus", "ctrl++", "+", []input.Modifier{input.ModifierCtrl}},
		{"function key", "F5", kb.F5, nil},
		{"page down alias", "Next", kb.PageDown, nil},
		{"unicode char", "é", "é", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKeyCombo(tt.combo)
			require.NoError(t, err)
			assert.Equal(t, tt.key, got.Key)
			assert.Equal(t, tt.modifiers, got.Modifiers)
		})
	}
}

func TestParseKeyCombo_Errors(t *testing.T) {
	tests := []struct {
		combo   string
		wantErr string
	}{
		{"", "empty key combination"},
		{"   ", "empty key combination"},
		{"hyper+a", "unknown modifier"},
		{"ctrl+", "malformed key combination"},
		{"ctrl++a", "malformed key combination"},
		{"NotAKey", "unknown key"},
	}

	for _, tt := range tests {
		t.Run(tt.combo, func(t *testing.T) {
			_, err := ParseKeyCombo(tt.combo)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// Any modifier list followed by a known key parses back to the same parts.
func TestParseKeyCombo_Property(t *testing.T) {
	mods := make([]string, 0, len(modifierNames))
	for name := range modifierNames {
		mods = append(mods, name)
	}
	keys := make([]string, 0, len(namedKeys))
	for name := range namedKeys {
		keys = append(keys, name)
	}

	rapid.Check(t, func(rt *rapid.T) {
		chosen := rapid.SliceOfN(rapid.SampledFrom(mods), 0, 3).Draw(rt, "modifiers")
		key := rapid.SampledFrom(keys).Draw(rt, "key")

		combo := key
		for i := len(chosen) - 1; i >= 0; i-- {
			combo = chosen[i] + "+" + combo
		}

		got, err := ParseKeyCombo(combo)
		if err != nil {
			rt.Fatalf("ParseKeyCombo(%q): %v", combo, err)
		}
		if got.Key != namedKeys[key] {
			rt.Fatalf("key for %q = %q, want %q", combo, got.Key, namedKeys[key])
		}
		if len(got.Modifiers) != len(chosen) {
			rt.Fatalf("modifiers for %q = %v", combo, got.Modifiers)
		}
		for i, name := range chosen {
			if got.Modifiers[i] != modifierNames[name] {
				rt.Fatalf("modifier %d of %q = %v", i, combo, got.Modifiers[i])
			}
		}
	})
}
