package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var checkNpmCmd = &cobra.Command{
	Use:   "check-npm",
	Short: "Check the npm dist tarball(s)",
	Long: `Check the npm dist tarball(s).

Every tarball in the dist directory is installed into a scratch npm
project and the test command runs there. By default each package is
required from node.

Example:
  release-helper check-npm`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(cmd)
		if err != nil {
			return err
		}
		testCmd, _ := cmd.Flags().GetString("test-cmd")
		if testCmd == "" {
			testCmd = os.Getenv("NPM_TEST_CMD")
		}
		return p.CheckNpm(cmd.Context(), testCmd)
	},
}

func init() {
	checkNpmCmd.Flags().String("test-cmd", "", "command run in the scratch project (default: NPM_TEST_CMD)")
	rootCmd.AddCommand(checkNpmCmd)
}
