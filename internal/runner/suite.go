// internal/runner/suite.go
package runner

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Suite is a named collection of tests loaded from YAML:
//
//	name: storefront
//	base_url: http://localhost:3000
//	tests:
//	  - name: login works
//	    steps:
//	      - ai: Log in with the email and password
//	        context:
//	          email: alice@example.com
//	          password: hunter2
type Suite struct {
	Name    string     `yaml:"name"`
	BaseURL string     `yaml:"base_url,omitempty"`
	Tests   []TestCase `yaml:"tests"`
}

// TestCase is a list of steps run in order in one browser tab.
type TestCase struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step is one natural language instruction plus optional context handed to
// the agent as additional information.
type Step struct {
	AI      string         `yaml:"ai"`
	Context map[string]any `yaml:"context,omitempty"`
}

// LoadSuite reads and validates a suite file.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file %s: %w", path, err)
	}
	suite, err := ParseSuite(data)
	if err != nil {
		return nil, fmt.Errorf("suite %s: %w", path, err)
	}
	return suite, nil
}

// ParseSuite decodes and validates a suite document. Unknown fields are rejected.
func ParseSuite(data []byte) (*Suite, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var suite Suite
	if err := dec.Decode(&suite); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("suite is empty")
		}
		return nil, fmt.Errorf("failed to parse suite: %w", err)
	}
	if err := suite.Validate(); err != nil {
		return nil, err
	}
	return &suite, nil
}

// Validate checks that every test has a unique name and at least one
// non-empty step.
func (s *Suite) Validate() error {
	if len(s.Tests) == 0 {
		return fmt.Errorf("suite has no tests")
	}
	seen := make(map[string]bool, len(s.Tests))
	for i, tc := range s.Tests {
		name := strings.TrimSpace(tc.Name)
		if name == "" {
			return fmt.Errorf("test #%d has no name", i+1)
		}
		if seen[name] {
			return fmt.Errorf("duplicate test name %q", name)
		}
		seen[name] = true

		if len(tc.Steps) == 0 {
			return fmt.Errorf("test %q has no steps", name)
		}
		for j, step := range tc.Steps {
			if strings.TrimSpace(step.AI) == "" {
				return fmt.Errorf("test %q step #%d has an empty ai instruction", name, j+1)
			}
		}
	}
	return nil
}
