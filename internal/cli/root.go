// Package cli implements the release-helper command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jovyan123-playground/release-helper/internal/config"
	"github.com/jovyan123-playground/release-helper/internal/errors"
	"github.com/jovyan123-playground/release-helper/internal/gh"
	"github.com/jovyan123-playground/release-helper/internal/git"
	"github.com/jovyan123-playground/release-helper/internal/output"
	"github.com/jovyan123-playground/release-helper/internal/release"
	"github.com/jovyan123-playground/release-helper/internal/run"
	"github.com/jovyan123-playground/release-helper/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "release-helper",
	Short: "Automate the release lifecycle of GitHub-hosted packages",
	Long: `release-helper automates releases of Python and npm packages hosted
on GitHub: changelog generation and validation, version bumps, dist
builds and checks, and the draft/publish GitHub release lifecycle.

Configuration is read from .release-helper.toml, the
[tool.release-helper] table in pyproject.toml, or the "release-helper"
key in package.json, with RH_* environment variables taking
precedence. The GitHub token comes from GITHUB_ACCESS_TOKEN or the
--auth flag.`,
	Example: `  release-helper bump-version 1.0.1
  release-helper build-changelog
  release-helper draft-release --post-version-spec 1.1.0.dev0`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cmd.HasParent() {
			output.PrintStepHeader(cmd.OutOrStdout(), cmd.Name())
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("branch", "", "target branch (default: detect from the environment or HEAD)")
	flags.String("remote", "", "git remote releases are pushed to")
	flags.String("repo", "", "GitHub repository as owner/name (default: resolve from the remote)")
	flags.String("auth", "", "GitHub access token (default: GITHUB_ACCESS_TOKEN)")
	flags.String("username", "", "git username for authenticated remote URLs")
	flags.String("changelog-path", "", "path to the markdown changelog")
	flags.String("dist-dir", "", "directory dist assets are built into")
	flags.Bool("dry-run", false, "skip pushes, PR creation, and release finalization")
}

// Execute runs the root command, printing failures in a consistent
// format.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		cliErr := errors.AsCLIError(err)
		if cliErr == nil {
			cliErr = errors.Wrap(err, errors.Runtime)
		}
		errors.PrintError(cliErr)
		return err
	}
	return nil
}

// loadConfig loads configuration and layers changed flags over it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("branch") {
		cfg.Branch, _ = flags.GetString("branch")
	}
	if flags.Changed("remote") {
		cfg.Remote, _ = flags.GetString("remote")
	}
	if flags.Changed("repo") {
		cfg.Repository, _ = flags.GetString("repo")
	}
	if flags.Changed("auth") {
		cfg.Auth, _ = flags.GetString("auth")
	}
	if flags.Changed("username") {
		cfg.Username, _ = flags.GetString("username")
	}
	if flags.Changed("changelog-path") {
		cfg.ChangelogPath, _ = flags.GetString("changelog-path")
	}
	if flags.Changed("dist-dir") {
		cfg.DistDir, _ = flags.GetString("dist-dir")
	}
	if flags.Changed("dry-run") {
		cfg.DryRun, _ = flags.GetBool("dry-run")
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newPipeline builds a pipeline for commands that work locally.
func newPipeline(cmd *cobra.Command) (*release.Pipeline, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	return release.New(cfg, run.NewExecRunner(), nil, dir), nil
}

// newPipelineWithHub builds a pipeline for commands that talk to the
// GitHub API, resolving the repository first.
func newPipelineWithHub(cmd *cobra.Command) (*release.Pipeline, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	runner := run.NewExecRunner()

	repo := cfg.Repository
	if repo == "" {
		repo, err = git.New(runner, dir).ResolveRepo(cfg.Remote)
		if err != nil {
			return nil, errors.WrapWithMessage(err, errors.Configuration,
				"could not resolve the GitHub repository",
				"Pass --repo owner/name or set the repository config key.")
		}
	}

	hub, err := gh.New(repo, cfg.Auth)
	if err != nil {
		return nil, errors.NewArgumentErrorWithUsage(
			fmt.Sprintf("invalid repository %q: %v", repo, err),
			"release-helper <command> --repo owner/name")
	}

	p := release.New(cfg, runner, hub, dir)
	p.Cfg.Repository = repo
	return p, nil
}

// versionSpecArg returns the version spec from the positional argument,
// falling back to the RH_VERSION_SPEC environment variable so workflows
// can export the spec instead of templating it into the command line.
func versionSpecArg(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if spec := os.Getenv("RH_VERSION_SPEC"); spec != "" {
		return spec, nil
	}
	return "", errors.NewArgumentErrorWithUsage(
		"a version spec is required",
		"release-helper "+cmd.Use,
		"Pass the version spec as an argument or set RH_VERSION_SPEC.")
}

// releaseURLArg validates a release URL argument before any API call is
// made with it.
func releaseURLArg(cmd *cobra.Command, args []string) (string, error) {
	url := args[0]
	if _, _, _, err := gh.ParseReleaseURL(url); err != nil {
		return "", errors.NewArgumentErrorWithUsage(
			fmt.Sprintf("invalid release url %q", url),
			"release-helper "+cmd.Use,
			"Pass the html_url or url reported when the release was drafted.")
	}
	return url, nil
}
