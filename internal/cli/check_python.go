package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var checkPythonCmd = &cobra.Command{
	Use:   "check-python [dist-files...]",
	Short: "Check the Python dist files",
	Long: `Check the Python dist files.

Each file is validated with twine, then installed into a throwaway
virtual environment where the test command runs. By default the
package is simply imported. Without arguments every sdist and wheel in
the dist directory is checked.

Examples:
  release-helper check-python
  release-helper check-python dist/demo-1.0.1.tar.gz --test-cmd "pytest --pyargs demo"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(cmd)
		if err != nil {
			return err
		}
		testCmd, _ := cmd.Flags().GetString("test-cmd")
		if testCmd == "" {
			testCmd = os.Getenv("PY_TEST_CMD")
		}
		return p.CheckPython(cmd.Context(), args, testCmd)
	},
}

func init() {
	checkPythonCmd.Flags().String("test-cmd", "", "command run in the test venv (default: PY_TEST_CMD)")
	rootCmd.AddCommand(checkPythonCmd)
}
