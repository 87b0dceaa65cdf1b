package reporting

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONReporter writes the entries as one indented JSON document.
type JSONReporter struct {
	collector
	writer io.WriteCloser
}

// NewJSONReporter takes ownership of writer.
func NewJSONReporter(writer io.WriteCloser) *JSONReporter {
	return &JSONReporter{writer: writer}
}

func (r *JSONReporter) Close() error {
	doc := struct {
		Entries []Entry `json:"entries"`
	}{Entries: r.Entries()}

	enc := json.NewEncoder(r.writer)
	enc.SetIndent("", "  ")
	encErr := enc.Encode(doc)
	closeErr := r.writer.Close()
	if encErr != nil {
		return fmt.Errorf("failed to encode report: %w", encErr)
	}
	return closeErr
}
