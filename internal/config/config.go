// Package config provides hierarchical configuration management for
// release-helper using koanf. Values are loaded with priority:
// environment variables (RH_ prefix) > .release-helper.toml >
// [tool.release-helper] in pyproject.toml > "release-helper" key in
// package.json > defaults, with the dedicated file outranking sections
// embedded in packaging metadata. The file sources mirror where the
// projects being released already keep that metadata.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/jovyan123-playground/release-helper/internal/errors"
)

const (
	// EnvPrefix is the prefix for release-helper environment overrides,
	// e.g. RH_CHANGELOG, RH_DRY_RUN, RH_NPM_COMMAND.
	EnvPrefix = "RH_"

	// HelperConfigFile is the dedicated config file name.
	HelperConfigFile = ".release-helper.toml"

	// PyprojectFile carries config under [tool.release-helper].
	PyprojectFile = "pyproject.toml"

	// PackageJSONFile carries config under the "release-helper" key.
	PackageJSONFile = "package.json"
)

// Config represents the release-helper configuration.
type Config struct {
	// Branch is the target release branch. Empty means detect from the
	// environment (GITHUB_BASE_REF / GITHUB_REF) or the repository HEAD.
	Branch string `koanf:"branch"`

	// Remote is the git remote releases are pushed to.
	Remote string `koanf:"remote"`

	// Repository is the GitHub "owner/name". Empty means resolve from
	// GITHUB_REPOSITORY or the remote URL.
	Repository string `koanf:"repository"`

	// Username is the git username used for authenticated remote URLs.
	// Falls back to GITHUB_ACTOR.
	Username string `koanf:"username"`

	// Auth is the GitHub access token. Only sourced from the
	// GITHUB_ACCESS_TOKEN environment variable or the --auth flag,
	// never from config files.
	Auth string `koanf:"-"`

	// ChangelogPath is the path to the Markdown changelog.
	ChangelogPath string `koanf:"changelog"`

	// DistDir is the directory dist assets are built into.
	DistDir string `koanf:"dist_dir"`

	// DryRun skips pushes, PR creation, and release finalization.
	DryRun bool `koanf:"dry_run"`

	// VersionCmd overrides version-bump tool detection.
	VersionCmd string `koanf:"version_cmd"`

	// PostVersionSpec is an optional version spec applied after a
	// release (usually a dev version).
	PostVersionSpec string `koanf:"post_version_spec"`

	// NpmCommand publishes npm tarballs, e.g. "npm publish" or
	// "npm publish --tag next".
	NpmCommand string `koanf:"npm_command"`

	// TwineCommand publishes Python dists.
	TwineCommand string `koanf:"twine_command"`

	// NpmToken, when set, is written to .npmrc before publishing.
	NpmToken string `koanf:"npm_token"`

	// ResolveBackports replaces backport-bot changelog lines with the
	// original PR reference.
	ResolveBackports bool `koanf:"resolve_backports"`

	// LinksExpire is the link-check cache lifetime in seconds.
	LinksExpire int `koanf:"links_expire"`

	// LinksIgnore lists glob patterns excluded from link checking.
	LinksIgnore []string `koanf:"links_ignore"`

	// Output is a file env-style results are written to
	// (defaults to GITHUB_ENV on Actions).
	Output string `koanf:"output"`
}

// Load reads configuration from the current directory's config files
// and the environment.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom reads configuration rooted at dir. Missing files are not
// errors; malformed files are.
func LoadFrom(dir string) (*Config, error) {
	k := koanf.New(".")

	for key, value := range defaults() {
		_ = k.Set(key, value)
	}

	if err := loadJSON(k, join(dir, PackageJSONFile), "release-helper"); err != nil {
		return nil, err
	}
	if err := loadTOML(k, join(dir, PyprojectFile), "tool.release-helper"); err != nil {
		return nil, err
	}
	if err := loadTOML(k, join(dir, HelperConfigFile), ""); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment config: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnvFallbacks(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadTOML merges a TOML file into k, optionally from a subtree path.
func loadTOML(k *koanf.Koanf, path, subtree string) error {
	if !fileExists(path) {
		return nil
	}

	tmp := koanf.New(".")
	if err := tmp.Load(file.Provider(path), toml.Parser()); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return mergeSubtree(k, tmp, path, subtree)
}

// loadJSON merges a JSON file into k, optionally from a subtree path.
func loadJSON(k *koanf.Koanf, path, subtree string) error {
	if !fileExists(path) {
		return nil
	}

	tmp := koanf.New(".")
	if err := tmp.Load(file.Provider(path), json.Parser()); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return mergeSubtree(k, tmp, path, subtree)
}

func mergeSubtree(k, tmp *koanf.Koanf, path, subtree string) error {
	if subtree != "" {
		tmp = tmp.Cut(subtree)
		if len(tmp.Keys()) == 0 {
			return nil
		}
	}
	if err := k.Merge(tmp); err != nil {
		return fmt.Errorf("merging config from %s: %w", path, err)
	}
	return nil
}

// applyEnvFallbacks fills fields whose canonical source is a well-known
// environment variable rather than an RH_ override.
func applyEnvFallbacks(cfg *Config) {
	if cfg.Auth == "" {
		cfg.Auth = os.Getenv("GITHUB_ACCESS_TOKEN")
	}
	if cfg.Username == "" {
		cfg.Username = os.Getenv("GITHUB_ACTOR")
	}
	if cfg.Output == "" {
		cfg.Output = os.Getenv("GITHUB_ENV")
	}
	if cfg.Repository == "" {
		cfg.Repository = os.Getenv("GITHUB_REPOSITORY")
	}
}

// Validate checks invariants that would otherwise surface as confusing
// failures mid-pipeline.
func Validate(cfg *Config) error {
	if cfg.Remote == "" {
		return errors.NewConfigError("remote must not be empty",
			"Pass --remote or set the remote config key.")
	}
	if cfg.ChangelogPath == "" {
		return errors.NewConfigError("changelog path must not be empty",
			"Pass --changelog-path or set the changelog config key.")
	}
	if cfg.DistDir == "" {
		return errors.NewConfigError("dist_dir must not be empty",
			"Pass --dist-dir or set the dist_dir config key.")
	}
	if cfg.LinksExpire < 0 {
		return errors.NewConfigError("links_expire must not be negative")
	}
	return nil
}

// envTransform converts environment variable names to config keys.
// Example: RH_DIST_DIR -> dist_dir
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func join(dir, name string) string {
	if dir == "" || dir == "." {
		return name
	}
	return dir + string(os.PathSeparator) + name
}
