package cli

import (
	"github.com/spf13/cobra"
)

var tagReleaseCmd = &cobra.Command{
	Use:   "tag-release",
	Short: "Create the release commit and tag",
	Long: `Create the release commit and tag.

The release commit embeds the sha256 digest of every dist asset so
published files can later be verified against it. An annotated
v<version> tag is created, plus name@version tags for npm workspace
packages unless --no-git-tag-workspace is given.

Example:
  release-helper tag-release`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(cmd)
		if err != nil {
			return err
		}
		noWorkspace, _ := cmd.Flags().GetBool("no-git-tag-workspace")
		return p.TagRelease(cmd.Context(), noWorkspace)
	},
}

func init() {
	tagReleaseCmd.Flags().Bool("no-git-tag-workspace", false, "skip tagging npm workspace packages")
	rootCmd.AddCommand(tagReleaseCmd)
}
