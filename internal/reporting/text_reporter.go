package reporting

import (
	"bufio"
	"fmt"
	"io"
	"time"
)

// TextReporter prints entries as "[<timestamp>] <title> - <status> - <message>".
type TextReporter struct {
	collector
	writer io.WriteCloser
}

// NewTextReporter takes ownership of writer.
func NewTextReporter(writer io.WriteCloser) *TextReporter {
	return &TextReporter{writer: writer}
}

// FormatEntry renders a single entry line. The message segment is omitted
// when empty.
func FormatEntry(e Entry) string {
	line := fmt.Sprintf("[%s] %s - %s", e.Timestamp.Format(time.RFC3339), e.Title, e.Status)
	if e.Message != "" {
		line += " - " + e.Message
	}
	return line
}

func (r *TextReporter) Close() error {
	w := bufio.NewWriter(r.writer)
	fmt.Fprintln(w, "\nTest Run Report:")
	for _, e := range r.Entries() {
		fmt.Fprintln(w, FormatEntry(e))
	}
	flushErr := w.Flush()
	closeErr := r.writer.Close()
	if flushErr != nil {
		return fmt.Errorf("failed to write report: %w", flushErr)
	}
	return closeErr
}
