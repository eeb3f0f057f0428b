// Package run executes external commands for the release pipeline.
// Every invocation is echoed as "+ cmd" before it runs, matching the
// fail-fast shell semantics the pipeline replaces: any non-zero exit
// aborts the calling operation, with no retries.
package run

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Runner executes external commands. The interface exists so tests can
// substitute a mock and assert on the exact invocations.
type Runner interface {
	// Run executes the command and returns its trimmed stdout.
	Run(cmd string, opts ...Option) (string, error)
}

// Option adjusts a single invocation.
type Option func(*settings)

type settings struct {
	dir   string
	quiet bool
	env   []string
}

// InDir runs the command with the given working directory.
func InDir(dir string) Option {
	return func(s *settings) { s.dir = dir }
}

// Quiet suppresses the "+ cmd" echo.
func Quiet() Option {
	return func(s *settings) { s.quiet = true }
}

// WithEnv appends environment variables ("KEY=value") to the inherited
// environment for this invocation.
func WithEnv(env ...string) Option {
	return func(s *settings) { s.env = append(s.env, env...) }
}

// ExecRunner runs commands with os/exec. Echo output goes to Stderr so
// captured stdout stays machine-readable.
type ExecRunner struct {
	// Echo receives the "+ cmd" lines. Defaults to os.Stderr.
	Echo io.Writer
}

// NewExecRunner returns an ExecRunner echoing to stderr.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Echo: os.Stderr}
}

// Run executes cmd, split on whitespace with single- and double-quote
// grouping, and returns its trimmed stdout. Stderr from the child is
// passed through. A non-zero exit returns an error wrapping the exit
// status together with any captured output.
func (r *ExecRunner) Run(cmd string, opts ...Option) (string, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	parts, err := Split(cmd)
	if err != nil {
		return "", fmt.Errorf("parsing command %q: %w", cmd, err)
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("empty command")
	}

	if !s.quiet {
		echo := r.Echo
		if echo == nil {
			echo = os.Stderr
		}
		fmt.Fprintf(echo, "+ %s\n", cmd)
	}

	c := exec.Command(parts[0], parts[1:]...)
	c.Dir = s.dir
	c.Stderr = os.Stderr
	if len(s.env) > 0 {
		c.Env = append(os.Environ(), s.env...)
	}

	out, err := c.Output()
	if err != nil {
		trimmed := strings.TrimSpace(string(out))
		if trimmed != "" {
			fmt.Fprintln(os.Stderr, trimmed)
		}
		return trimmed, fmt.Errorf("running %q: %w", cmd, err)
	}

	return strings.TrimSpace(string(out)), nil
}

// Split tokenizes a command line, honoring single and double quotes.
// Quotes group words but are not included in the tokens. There is no
// escape processing beyond quoting; release commands never need it.
func Split(cmd string) ([]string, error) {
	var (
		tokens  []string
		current strings.Builder
		quote   rune
		inWord  bool
	)

	for _, r := range cmd {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inWord = true
		case r == ' ' || r == '\t' || r == '\n':
			if inWord {
				tokens = append(tokens, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated %q quote", quote)
	}
	if inWord {
		tokens = append(tokens, current.String())
	}

	return tokens, nil
}
