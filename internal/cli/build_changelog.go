package cli

import (
	"github.com/spf13/cobra"
)

var buildChangelogCmd = &cobra.Command{
	Use:   "build-changelog",
	Short: "Generate the changelog entry for the pending version",
	Long: `Generate the changelog entry for the pending version.

The entry lists the PRs merged into the target branch since the last
tag and is spliced into the changelog between the entry markers. When
an entry for the same version is already pending, new PRs are added
while lines you have edited by hand are kept.

Example:
  release-helper build-changelog --resolve-backports`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipelineWithHub(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("resolve-backports") {
			p.Cfg.ResolveBackports, _ = cmd.Flags().GetBool("resolve-backports")
		}
		return p.BuildChangelog(cmd.Context())
	},
}

func init() {
	buildChangelogCmd.Flags().Bool("resolve-backports", false, "resolve backport PRs to their originals")
	rootCmd.AddCommand(buildChangelogCmd)
}
