package cli

import (
	"github.com/spf13/cobra"
)

var checkManifestCmd = &cobra.Command{
	Use:   "check-manifest",
	Short: "Check the Python source manifest",
	Long: `Check the Python source manifest with check-manifest.

Skipped when the project has neither a setup.py nor a MANIFEST.in.

Example:
  release-helper check-manifest`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(cmd)
		if err != nil {
			return err
		}
		return p.CheckManifest(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(checkManifestCmd)
}
