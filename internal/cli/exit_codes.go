package cli

import "github.com/jovyan123-playground/release-helper/internal/errors"

// Exit codes for the release-helper CLI
const (
	// ExitSuccess indicates successful command execution
	ExitSuccess = 0

	// ExitFailure indicates the command failed
	ExitFailure = 1

	// ExitInvalidArguments indicates invalid command arguments
	ExitInvalidArguments = 3
)

// ExitCode returns the exit code for an error returned by Execute.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if cliErr := errors.AsCLIError(err); cliErr != nil && cliErr.Category == errors.Argument {
		return ExitInvalidArguments
	}
	return ExitFailure
}
