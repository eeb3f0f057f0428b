// Package testutil provides test utilities shared by release-helper tests.
package testutil

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jovyan123-playground/release-helper/internal/run"
)

// MockRunner implements run.Runner for tests. It records every command
// invoked and replies from a scripted table of outputs, so pipeline
// logic can be exercised without git, npm, python, or twine installed.
type MockRunner struct {
	mu sync.Mutex

	// Outputs maps a command prefix to the stdout it should produce.
	// The longest matching prefix wins.
	Outputs map[string]string

	// Errors maps a command prefix to an error to return.
	Errors map[string]error

	// Calls records each command in invocation order.
	Calls []string
}

// NewMockRunner returns a MockRunner with empty script tables.
func NewMockRunner() *MockRunner {
	return &MockRunner{
		Outputs: map[string]string{},
		Errors:  map[string]error{},
	}
}

// Run records the call and replies from the scripted tables.
func (m *MockRunner) Run(cmd string, opts ...run.Option) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, cmd)

	if err := m.lookupErr(cmd); err != nil {
		return "", err
	}
	return m.lookup(cmd), nil
}

// Fail scripts commands starting with prefix to fail with message.
func (m *MockRunner) Fail(prefix, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[prefix] = fmt.Errorf("%s", message)
}

// CalledWith reports whether any recorded command starts with prefix.
func (m *MockRunner) CalledWith(prefix string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

func (m *MockRunner) lookup(cmd string) string {
	best := ""
	out := ""
	for prefix, o := range m.Outputs {
		if strings.HasPrefix(cmd, prefix) && len(prefix) > len(best) {
			best = prefix
			out = o
		}
	}
	return out
}

func (m *MockRunner) lookupErr(cmd string) error {
	best := ""
	var err error
	for prefix, e := range m.Errors {
		if strings.HasPrefix(cmd, prefix) && len(prefix) > len(best) {
			best = prefix
			err = e
		}
	}
	if err != nil {
		return fmt.Errorf("running %q: %w", cmd, err)
	}
	return nil
}
