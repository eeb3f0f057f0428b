package cli

import (
	"github.com/spf13/cobra"
)

var extractReleaseCmd = &cobra.Command{
	Use:   "extract-release <release-url>",
	Short: "Download and verify draft release assets",
	Long: `Download the assets of a draft GitHub release into the dist
directory, smoke-test them, and verify their sha256 digests against
the release commit message.

The release URL may be the release page or its API URL. Digest
verification is skipped with --dry-run since the remote tag does not
exist yet.

Example:
  release-helper extract-release https://github.com/owner/repo/releases/tag/untagged-abc`,
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
		return p.ExtractRelease(cmd.Context(), url)
	},
}

func init() {
	rootCmd.AddCommand(extractReleaseCmd)
}
