package errors

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestFormatErrorPlainRendersUsageAndRemediation(t *testing.T) {
	err := NewArgumentErrorWithUsage(
		"invalid release url \"nope\"",
		"release-helper delete-release <release-url>",
		"Pass the html_url of the release.")

	out := FormatErrorPlain(err)
	assert.Contains(t, out, "Error [Argument Error]: invalid release url \"nope\"")
	assert.Contains(t, out, "Usage: release-helper delete-release <release-url>")
	assert.Contains(t, out, "• Pass the html_url of the release.")
}

func TestFprintErrorPlainWhenColorDisabled(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	var buf bytes.Buffer
	FprintError(&buf, NewConfigError("remote must not be empty", "Pass --remote."))
	assert.Equal(t, FormatErrorPlain(NewConfigError("remote must not be empty", "Pass --remote.")), buf.String())
	assert.Contains(t, buf.String(), "Error [Configuration Error]: remote must not be empty")
}
