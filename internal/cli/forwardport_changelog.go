package cli

import (
	"github.com/spf13/cobra"
)

var forwardportChangelogCmd = &cobra.Command{
	Use:   "forwardport-changelog <release-url>",
	Short: "Forward port a changelog entry to the default branch",
	Long: `Forward port the changelog entry of a released tag to the default
branch and open a pull request with it.

The entry is anchored by the header that preceded it on the release
branch, so it lands in the right place even when the default branch
changelog has moved on. Skipped when the tag is already merged into
the default branch.

Example:
  release-helper forwardport-changelog https://github.com/owner/repo/releases/tag/v1.0.1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := releaseURLArg(cmd, args)
		if err != nil {
			return err
		}
		p, err := newPipelineWithHub(cmd)
		if err != nil {
			return err
		}
		return p.ForwardportChangelog(cmd.Context(), url)
	},
}

func init() {
	rootCmd.AddCommand(forwardportChangelogCmd)
}
