package cli

import (
	"github.com/spf13/cobra"
)

var buildNpmCmd = &cobra.Command{
	Use:   "build-npm [package]",
	Short: "Build the npm dist tarball(s)",
	Long: `Build the npm dist tarball(s) into the dist directory.

The package argument may be a directory to pack or an existing
tarball; it defaults to the current directory. Public workspace
packages are packed as well. Private packages are skipped.

Example:
  release-helper build-npm`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(cmd)
		if err != nil {
			return err
		}
		pkg := ""
		if len(args) > 0 {
			pkg = args[0]
		}
		return p.BuildNpm(cmd.Context(), pkg)
	},
}

func init() {
	rootCmd.AddCommand(buildNpmCmd)
}
