// File: cmd/main_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/vistest/internal/config"
	"github.com/xkilldash9x/vistest/internal/observability"
)

// resetForTest clears package state and silences the logger.
func resetForTest(t *testing.T) {
	t.Helper()
	cfgFile = ""
	observability.InitializeLogger(config.LoggerConfig{Level: "fatal", Format: "console", ServiceName: "test"})
	t.Cleanup(func() { cfgFile = "" })
}

// executeCommand runs a fresh command tree with args and returns its output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetForTest(t)

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// writeFile writes content to a file in a per-test directory.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// findCommand locates a subcommand of a fresh tree.
func findCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c, _, err := NewRootCommand().Find(args)
	if err != nil {
		t.Fatalf("find %v: %v", args, err)
	}
	return c
}
