package cli

import (
	"github.com/spf13/cobra"
)

var deleteReleaseCmd = &cobra.Command{
	Use:   "delete-release <release-url>",
	Short: "Delete a draft GitHub release",
	Long: `Delete a draft GitHub release and its assets by URL.

Example:
  release-helper delete-release https://github.com/owner/repo/releases/tag/untagged-abc`,
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
		return p.DeleteRelease(cmd.Context(), url)
	},
}

func init() {
	rootCmd.AddCommand(deleteReleaseCmd)
}
