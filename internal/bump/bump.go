// Package bump handles package version detection and bumping. It
// delegates the actual rewrite to the project's own version tool
// (tbump, bump2version, or npm version), detected from the config
// files present, the same way the shell pipeline it replaces did.
package bump

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/jovyan123-playground/release-helper/internal/errors"
	"github.com/jovyan123-playground/release-helper/internal/run"
)

// TbumpCmd is the non-interactive tbump invocation.
const TbumpCmd = "tbump --non-interactive --only-patch"

// canonicalPattern is the PEP 440 canonical version form. Python
// projects must bump to a canonical version or PyPI will reject them.
var canonicalPattern = regexp.MustCompile(
	`^([1-9]\d*!)?(0|[1-9]\d*)(\.(0|[1-9]\d*))*((a|b|rc)(0|[1-9]\d*))?(\.post(0|[1-9]\d*))?(\.dev(0|[1-9]\d*))?$`)

// finalPattern extracts the leading major.minor.patch triplet.
var finalPattern = regexp.MustCompile(`^([0-9]+\.[0-9]+\.[0-9]+)`)

// Bumper bumps and reads package versions in a project directory.
type Bumper struct {
	Runner run.Runner
	Dir    string
}

// New returns a Bumper for the given directory using the runner.
func New(runner run.Runner, dir string) *Bumper {
	return &Bumper{Runner: runner, Dir: dir}
}

// Detect determines the version command from the project's config
// files. bump2version variants win over tbump when both are present,
// matching the original lookup order; npm version is the fallback for
// pure npm packages.
func Detect(dir string) (string, error) {
	versionCmd := ""

	for _, name := range []string{"bumpversion", ".bumpversion", "bump2version", ".bump2version"} {
		if fileExists(filepath.Join(dir, name+".cfg")) {
			versionCmd = "bump2version"
		}
	}

	if fileExists(filepath.Join(dir, "tbump.toml")) && versionCmd == "" {
		versionCmd = TbumpCmd
	}

	if versionCmd == "" && fileContains(filepath.Join(dir, "pyproject.toml"), "tbump") {
		versionCmd = TbumpCmd
	}

	if versionCmd == "" && fileContains(filepath.Join(dir, "setup.cfg"), "bumpversion") {
		versionCmd = "bump2version"
	}

	if versionCmd == "" && fileExists(filepath.Join(dir, "package.json")) {
		versionCmd = "npm version --git-tag-version false"
	}

	if versionCmd == "" {
		return "", errors.NewPrerequisiteError(
			"could not detect a version bump command",
			"Add a tbump, bump2version, or package.json config to the repository.",
			"Or set the version_cmd config key to the bump command to run.")
	}

	return versionCmd, nil
}

// Bump applies the version spec using versionCmd, detecting the tool
// when versionCmd is empty.
func (b *Bumper) Bump(spec, versionCmd string) error {
	if spec == "" {
		return errors.NewArgumentError("version spec must not be empty")
	}

	if versionCmd == "" {
		detected, err := Detect(b.Dir)
		if err != nil {
			return err
		}
		versionCmd = detected
	}

	if _, err := b.Runner.Run(versionCmd+" "+spec, run.InDir(b.Dir)); err != nil {
		return fmt.Errorf("bumping version with %q: %w", versionCmd, err)
	}
	return nil
}

// GetVersion reads the current package version: setup.py when present,
// otherwise the version field of package.json.
func (b *Bumper) GetVersion() (string, error) {
	if fileExists(filepath.Join(b.Dir, "setup.py")) {
		out, err := b.Runner.Run("python setup.py --version", run.InDir(b.Dir), run.Quiet())
		if err != nil {
			return "", fmt.Errorf("reading version from setup.py: %w", err)
		}
		// setuptools may emit warnings before the version line
		lines := strings.Split(out, "\n")
		return strings.TrimSpace(lines[len(lines)-1]), nil
	}

	pkgPath := filepath.Join(b.Dir, "package.json")
	if fileExists(pkgPath) {
		data, err := os.ReadFile(pkgPath)
		if err != nil {
			return "", fmt.Errorf("reading package.json: %w", err)
		}
		var pkg struct {
			Version string `json:"version"`
		}
		if err := json.Unmarshal(data, &pkg); err != nil {
			return "", fmt.Errorf("parsing package.json: %w", err)
		}
		if pkg.Version == "" {
			return "", fmt.Errorf("package.json has no version field")
		}
		return pkg.Version, nil
	}

	return "", fmt.Errorf("no version identifier could be found")
}

// IsPrerelease reports whether a version is a prerelease. Semver
// versions are parsed properly; PEP 440 suffixes (rc, a, b, dev) fall
// back to comparing against the leading final-version triplet.
func IsPrerelease(version string) (bool, error) {
	if v, err := semver.StrictNewVersion(version); err == nil {
		return v.Prerelease() != "", nil
	}

	m := finalPattern.FindStringSubmatch(version)
	if m == nil {
		return false, fmt.Errorf("cannot parse version %q", version)
	}
	return m[1] != version, nil
}

// IsCanonical reports whether a version is in PEP 440 canonical form.
func IsCanonical(version string) bool {
	return canonicalPattern.MatchString(version)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func fileContains(path, substr string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return strings.Contains(string(data), substr)
}
