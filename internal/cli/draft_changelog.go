package cli

import (
	"github.com/spf13/cobra"
)

var draftChangelogCmd = &cobra.Command{
	Use:   "draft-changelog <version-spec>",
	Short: "Open a pull request with the pending changelog entry",
	Long: `Open a pull request with the pending changelog entry.

The entry is committed on a fresh branch and a PR is opened against
the target branch. The PR body records the version spec so the Draft
Release workflow can be run with the same spec after merging. With
--dry-run the commit is made but nothing is pushed. The version spec
may also come from the RH_VERSION_SPEC environment variable.

Example:
  release-helper draft-changelog 1.0.1`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := versionSpecArg(cmd, args)
		if err != nil {
			return err
		}
		p, err := newPipelineWithHub(cmd)
		if err != nil {
			return err
		}
		return p.DraftChangelog(cmd.Context(), spec)
	},
}

func init() {
	rootCmd.AddCommand(draftChangelogCmd)
}
