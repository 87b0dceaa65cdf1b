package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSuite = `
name: storefront
base_url: http://localhost:3000
tests:
  - name: login works
    steps:
      - ai: Log in with the email and password
        context:
          email: alice@example.com
          password: hunter2
          roles: [admin, buyer]
      - ai: Make sure the dashboard greets Alice
  - name: search
    steps:
      - ai: Search for "lamp" and make sure results appear
`

func TestParseSuite(t *testing.T) {
	suite, err := ParseSuite([]byte(sampleSuite))
	require.NoError(t, err)

	assert.Equal(t, "storefront", suite.Name)
	assert.Equal(t, "http://localhost:3000", suite.BaseURL)
	require.Len(t, suite.Tests, 2)

	login := suite.Tests[0]
	assert.Equal(t, "login works", login.Name)
	require.Len(t, login.Steps, 2)
	assert.Equal(t, "Log in with the email and password", login.Steps[0].AI)
	assert.Equal(t, map[string]any{
		"email":    "alice@example.com",
		"password": "hunter2",
		"roles":    []any{"admin", "buyer"},
	}, login.Steps[0].Context)
	assert.Nil(t, login.Steps[1].Context)
}

func TestParseSuite_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", "", "suite is empty"},
		{"no tests", "name: x\n", "suite has no tests"},
		{"unknown field", "name: x\ntests:\n  - name: a\n    stepz: []\n", "failed to parse suite"},
		{"unnamed test", "tests:\n  - steps:\n      - ai: go\n", "test #1 has no name"},
		{"duplicate", "tests:\n  - name: a\n    steps: [{ai: go}]\n  - name: a\n    steps: [{ai: go}]\n", `duplicate test name "a"`},
		{"no steps", "tests:\n  - name: a\n", `test "a" has no steps`},
		{"blank step", "tests:\n  - name: a\n    steps: [{ai: '  '}]\n", `test "a" step #1 has an empty ai instruction`},
		{"malformed", "tests: [", "failed to parse suite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSuite([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadSuite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleSuite), 0o600))

	suite, err := LoadSuite(path)
	require.NoError(t, err)
	assert.Len(t, suite.Tests, 2)

	_, err = LoadSuite(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read suite file")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: x\n"), 0o600))
	_, err = LoadSuite(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad)
}
