package cli

import (
	"github.com/spf13/cobra"
)

var prepGitCmd = &cobra.Command{
	Use:   "prep-git",
	Short: "Set up git for the release",
	Long: `Set up git for the release.

On GitHub Actions this configures the bot identity and adds the
release remote. It then fetches all tags and checks out the target
branch so later steps can commit and push to it.

Example:
  release-helper prep-git --branch 1.x`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(cmd)
		if err != nil {
			return err
		}
		return p.PrepGit(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(prepGitCmd)
}
