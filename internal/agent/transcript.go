// internal/agent/transcript.go
package agent

import (
	"sync"
	"time"

	"github.com/xkilldash9x/vistest/api/schemas"
)

// Transcript is the append-only conversation history of one session. Entries
// are never reordered or modified once appended.
type Transcript struct {
	mu      sync.RWMutex
	entries []schemas.TranscriptEntry
	now     func() time.Time
}

// Seed creates a transcript whose single entry combines the rendered prompt
// with the first screenshot.
func Seed(prompt string, screenshot []byte) *Transcript {
	t := &Transcript{now: time.Now}
	img := make([]byte, len(screenshot))
	copy(img, screenshot)
	t.entries = append(t.entries, schemas.TranscriptEntry{
		Role:      schemas.RoleUser,
		Text:      prompt,
		Image:     img,
		Timestamp: t.now(),
	})
	return t
}

// Append adds an entry at the end. A zero timestamp is filled in.
func (t *Transcript) Append(entry schemas.TranscriptEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = t.now()
	}
	t.entries = append(t.entries, entry)
}

// Snapshot returns a copy of the entries in order. Callers may keep it across
// later appends.
func (t *Transcript) Snapshot() []schemas.TranscriptEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]schemas.TranscriptEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
