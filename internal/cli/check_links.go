package cli

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var checkLinksCmd = &cobra.Command{
	Use:   "check-links",
	Short: "Check HTTP links in the markdown files",
	Long: `Check that the HTTP links in the repository's markdown files
resolve.

Successful checks are cached with an expiry so repeated CI runs do not
hammer external sites, and failures get one retry pass. Files matching
the links_ignore globs are skipped.

Example:
  release-helper check-links`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(cmd)
		if err != nil {
			return err
		}

		if term.IsTerminal(int(os.Stdout.Fd())) {
			s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			s.Suffix = " Checking links..."
			s.Start()
			defer s.Stop()
		}
		return p.CheckLinks(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(checkLinksCmd)
}
