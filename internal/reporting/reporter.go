// internal/reporting/reporter.go
package reporting

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Entry statuses.
const (
	StatusInfo    = "info"
	StatusRunning = "running"
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusError   = "error"
)

// Report formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Entry is one timestamped line of a test run report.
type Entry struct {
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Reporter collects entries during a run and writes them out on Close.
// Add is safe for concurrent use.
type Reporter interface {
	Add(title, status, message string)
	Entries() []Entry
	// Close writes the report and closes any underlying resources (e.g., file handles).
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a new reporter based on the specified format and output path.
func New(format, outputPath string) (Reporter, error) {
	switch format {
	case FormatText, FormatJSON:
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	var writer io.WriteCloser
	if outputPath == "" || outputPath == "stdout" {
		// Wrap Stdout so Close() is a no-op.
		writer = &nopWriteCloser{os.Stdout}
	} else {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}

	if format == FormatJSON {
		return NewJSONReporter(writer), nil
	}
	return NewTextReporter(writer), nil
}

// collector holds the entries shared by every format.
type collector struct {
	mu      sync.Mutex
	entries []Entry
	now     func() time.Time
}

func (c *collector) Add(title, status, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, Entry{
		Title:     title,
		Status:    status,
		Message:   message,
		Timestamp: c.clock().UTC(),
	})
}

func (c *collector) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func (c *collector) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}
