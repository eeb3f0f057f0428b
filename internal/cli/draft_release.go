package cli

import (
	"github.com/spf13/cobra"
)

var draftReleaseCmd = &cobra.Command{
	Use:   "draft-release [assets...]",
	Short: "Create a draft GitHub release",
	Long: `Create a draft GitHub release carrying the dist assets and the
pending changelog entry as its body.

Draft releases older than a day are pruned first. When a post version
spec is configured the version is bumped and committed before the
branch is pushed. With --dry-run nothing is pushed but the draft is
still created.

Examples:
  release-helper draft-release
  release-helper draft-release --post-version-spec 1.1.0.dev0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipelineWithHub(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("post-version-spec") {
			p.Cfg.PostVersionSpec, _ = cmd.Flags().GetString("post-version-spec")
		}
		return p.DraftRelease(cmd.Context(), args)
	},
}

func init() {
	draftReleaseCmd.Flags().String("post-version-spec", "", "version spec applied after the release")
	rootCmd.AddCommand(draftReleaseCmd)
}
