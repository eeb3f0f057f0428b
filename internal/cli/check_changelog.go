package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var checkChangelogCmd = &cobra.Command{
	Use:   "check-changelog",
	Short: "Verify the pending changelog entry",
	Long: `Verify the pending changelog entry.

The entry between the markers must cover the pending version, include
every PR merged since the last tag, and reference no PR that does not
belong. The changelog PR itself may be absent. The verified entry can
be written to a file for use as a release body.

Example:
  release-helper check-changelog --output entry.md`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipelineWithHub(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("resolve-backports") {
			p.Cfg.ResolveBackports, _ = cmd.Flags().GetBool("resolve-backports")
		}
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = os.Getenv("CHANGELOG_OUTPUT")
		}
		return p.CheckChangelog(cmd.Context(), output)
	},
}

func init() {
	checkChangelogCmd.Flags().Bool("resolve-backports", false, "resolve backport PRs to their originals")
	checkChangelogCmd.Flags().String("output", "", "file the verified entry is written to (default: CHANGELOG_OUTPUT)")
	rootCmd.AddCommand(checkChangelogCmd)
}
