package cli

import (
	"github.com/spf13/cobra"
)

var bumpVersionCmd = &cobra.Command{
	Use:   "bump-version <version-spec>",
	Short: "Bump the package version",
	Long: `Bump the package version using the detected version tool.

The tool is detected from the repository (tbump, bump2version, or npm
version) unless --version-cmd overrides it. The resulting version is
validated and, together with the branch, repository, and prerelease
status, written to the output env file when one is configured. The
version spec may also come from the RH_VERSION_SPEC environment
variable.

Examples:
  release-helper bump-version 1.0.1
  release-helper bump-version next --version-cmd "tbump --non-interactive --only-patch"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := versionSpecArg(cmd, args)
		if err != nil {
			return err
		}
		p, err := newPipeline(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("version-cmd") {
			p.Cfg.VersionCmd, _ = cmd.Flags().GetString("version-cmd")
		}
		if cmd.Flags().Changed("output") {
			p.Cfg.Output, _ = cmd.Flags().GetString("output")
		}
		return p.BumpVersion(cmd.Context(), spec)
	},
}

func init() {
	bumpVersionCmd.Flags().String("version-cmd", "", "command used to bump the version")
	bumpVersionCmd.Flags().String("output", "", "file env-style results are written to")
	rootCmd.AddCommand(bumpVersionCmd)
}
