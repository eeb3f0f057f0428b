package cli

import (
	"github.com/spf13/cobra"
)

var publishReleaseCmd = &cobra.Command{
	Use:   "publish-release <release-url>",
	Short: "Publish the release assets and finalize the release",
	Long: `Publish the extracted assets to their registries and take the
GitHub release out of draft.

Python dists are uploaded with the twine command, npm tarballs with
the npm command. An npm token, when configured, is written to .npmrc
first. With --dry-run uploads and finalization are skipped.

Example:
  release-helper publish-release https://github.com/owner/repo/releases/tag/untagged-abc`,
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
		if cmd.Flags().Changed("npm-cmd") {
			p.Cfg.NpmCommand, _ = cmd.Flags().GetString("npm-cmd")
		}
		if cmd.Flags().Changed("twine-cmd") {
			p.Cfg.TwineCommand, _ = cmd.Flags().GetString("twine-cmd")
		}
		return p.PublishRelease(cmd.Context(), url)
	},
}

func init() {
	publishReleaseCmd.Flags().String("npm-cmd", "", "command used to publish npm tarballs")
	publishReleaseCmd.Flags().String("twine-cmd", "", "command used to publish Python dists")
	rootCmd.AddCommand(publishReleaseCmd)
}
