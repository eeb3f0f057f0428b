package cli

import (
	"github.com/spf13/cobra"
)

var buildPythonCmd = &cobra.Command{
	Use:   "build-python",
	Short: "Build the Python dist files",
	Long: `Build the Python dist files into the dist directory.

Projects with a pyproject.toml are built with "python -m build";
otherwise setup.py sdist and bdist_wheel are used. Stale tarballs and
wheels in the dist directory are removed first.

Example:
  release-helper build-python --dist-dir dist`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(cmd)
		if err != nil {
			return err
		}
		return p.BuildPython(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(buildPythonCmd)
}
