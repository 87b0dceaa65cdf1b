package browser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp/kb"
)

// KeyCombo is a parsed key press such as "ctrl+shift+t": zero or more
// modifiers held while a single key is pressed.
type KeyCombo struct {
	Modifiers []input.Modifier
	// Key is the chromedp key sequence for the pressed key, either a
	// printable character or one of the kb constants.
	Key string
}

var modifierNames = map[string]input.Modifier{
	"ctrl":    input.ModifierCtrl,
	"control": input.ModifierCtrl,
	"alt":     input.ModifierAlt,
	"option":  input.ModifierAlt,
	"shift":   input.ModifierShift,
	"meta":    input.ModifierMeta,
	"cmd":     input.ModifierMeta,
	"command": input.ModifierMeta,
	"super":   input.ModifierMeta,
	"win":     input.ModifierMeta,
}

// namedKeys maps xdotool style key names (lower cased) to chromedp keys.
var namedKeys = map[string]string{
	"return":     kb.Enter,
	"enter":      kb.Enter,
	"kp_enter":   kb.Enter,
	"tab":        kb.Tab,
	"backspace":  kb.Backspace,
	"escape":     kb.Escape,
	"esc":        kb.Escape,
	"delete":     kb.Delete,
	"insert":     kb.Insert,
	"home":       kb.Home,
	"end":        kb.End,
	"page_up":    kb.PageUp,
	"pageup":     kb.PageUp,
	"prior":      kb.PageUp,
	"page_down":  kb.PageDown,
	"pagedown":   kb.PageDown,
	"next":       kb.PageDown,
	"up":         kb.ArrowUp,
	"down":       kb.ArrowDown,
	"left":       kb.ArrowLeft,
	"right":      kb.ArrowRight,
	"arrowup":    kb.ArrowUp,
	"arrowdown":  kb.ArrowDown,
	"arrowleft":  kb.ArrowLeft,
	"arrowright": kb.ArrowRight,
	"space":      " ",
	"minus":      "-",
	"plus":       "+",
	"period":     ".",
	"comma":      ",",
	"slash":      "/",
	"f1":         kb.F1,
	"f2":         kb.F2,
	"f3":         kb.F3,
	"f4":         kb.F4,
	"f5":         kb.F5,
	"f6":         kb.F6,
	"f7":         kb.F7,
	"f8":         kb.F8,
	"f9":         kb.F9,
	"f10":        kb.F10,
	"f11":        kb.F11,
	"f12":        kb.F12,
}

// ParseKeyCombo parses an xdotool style combination: modifiers and a key
// joined by '+', e.g. "Return", "ctrl+a", "shift+Tab". A lone "+" is the
// plus key.
func ParseKeyCombo(combo string) (KeyCombo, error) {
	combo = strings.TrimSpace(combo)
	if combo == "" {
		return KeyCombo{}, fmt.Errorf("empty key combination")
	}
	if combo == "+" {
		return KeyCombo{Key: "+"}, nil
	}

	parts := strings.Split(combo, "+")
	// "ctrl++" splits into ["ctrl", "", ""]; the trailing empties are the plus key.
	if strings.HasSuffix(combo, "++") {
		parts = append(parts[:len(parts)-2], "+")
	}

	var out KeyCombo
	for i, raw := range parts {
		name := strings.TrimSpace(raw)
		if name == "" {
			return KeyCombo{}, fmt.Errorf("malformed key combination %q", combo)
		}
		if i < len(parts)-1 {
			mod, ok := modifierNames[strings.ToLower(name)]
			if !ok {
				return KeyCombo{}, fmt.Errorf("unknown modifier %q in %q", name, combo)
			}
			out.Modifiers = append(out.Modifiers, mod)
			continue
		}
		key, err := resolveKey(name)
		if err != nil {
			return KeyCombo{}, fmt.Errorf("%w in %q", err, combo)
		}
		out.Key = key
	}
	return out, nil
}

func resolveKey(name string) (string, error) {
	if key, ok := namedKeys[strings.ToLower(name)]; ok {
		return key, nil
	}
	if utf8.RuneCountInString(name) == 1 {
		return name, nil
	}
	return "", fmt.Errorf("unknown key %q", name)
}
