// Package output provides terminal output helpers for the release-helper CLI.
// It has minimal dependencies to avoid import cycles.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// GetTerminalWidth returns the terminal width, defaulting to 80 if unavailable.
func GetTerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

// PrintStepHeader prints a colored header marking a release step, e.g.
// "── tag-release ──".
func PrintStepHeader(out io.Writer, step string) {
	termWidth := GetTerminalWidth()
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()

	label := " " + step + " "
	lineLen := (termWidth - len(label)) / 2
	if lineLen < 3 {
		lineLen = 3
	}

	line := strings.Repeat("─", lineLen)
	fmt.Fprintf(out, "%s%s%s\n", cyan(line), cyan(label), cyan(line))
}

// PrintSuccess prints a green checkmark line.
func PrintSuccess(out io.Writer, message string) {
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	fmt.Fprintf(out, "%s %s\n", green("✓"), message)
}

// PrintKeyValue prints a "name=value" status line the way GitHub Actions
// logs surface pipeline variables.
func PrintKeyValue(out io.Writer, name, value string) {
	dim := color.New(color.Faint).SprintFunc()
	fmt.Fprintf(out, "%s%s\n", dim(name+"="), value)
}

// PrintWarning prints a yellow warning line.
func PrintWarning(out io.Writer, message string) {
	yellow := color.New(color.FgYellow, color.Bold).SprintFunc()
	fmt.Fprintf(out, "%s %s\n", yellow("!"), message)
}
