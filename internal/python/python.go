// Package python builds and checks Python distribution files.
package python

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jovyan123-playground/release-helper/internal/run"
)

// distNamePattern extracts the package name from a dist file name like
// "my-package-1.0.1.tar.gz".
var distNamePattern = regexp.MustCompile(`^(\S+)-\d`)

// Builder runs python packaging commands in Dir.
type Builder struct {
	Runner run.Runner
	Dir    string
}

// BuildDist builds sdist and wheel files into distDir. Existing
// tarballs and wheels are cleared first so stale artifacts never ship.
func (b *Builder) BuildDist(distDir string) error {
	if err := os.MkdirAll(distDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", distDir, err)
	}

	for _, pattern := range []string{"*.gz", "*.whl"} {
		matches, err := filepath.Glob(filepath.Join(distDir, pattern))
		if err != nil {
			return err
		}
		for _, match := range matches {
			if err := os.Remove(match); err != nil {
				return fmt.Errorf("removing stale dist file: %w", err)
			}
		}
	}

	if _, err := os.Stat(filepath.Join(b.Dir, "pyproject.toml")); err == nil {
		_, err := b.Runner.Run(fmt.Sprintf("python -m build --outdir %s .", distDir), run.InDir(b.Dir))
		return err
	}

	if _, err := os.Stat(filepath.Join(b.Dir, "setup.py")); err == nil {
		if _, err := b.Runner.Run(fmt.Sprintf("python setup.py sdist --dist-dir %s", distDir), run.InDir(b.Dir)); err != nil {
			return err
		}
		_, err := b.Runner.Run(fmt.Sprintf("python setup.py bdist_wheel --dist-dir %s", distDir), run.InDir(b.Dir))
		return err
	}

	return fmt.Errorf("no pyproject.toml or setup.py found in %s", b.Dir)
}

// CheckDist validates a dist file with twine, then installs it into a
// throwaway virtual environment and runs testCmd inside it. When
// testCmd is empty the package is simply imported.
func (b *Builder) CheckDist(distFile, testCmd string) error {
	if _, err := b.Runner.Run("twine check "+distFile, run.InDir(b.Dir)); err != nil {
		return err
	}

	if testCmd == "" {
		name, err := ImportName(distFile)
		if err != nil {
			return err
		}
		testCmd = fmt.Sprintf(`python -c "import %s"`, name)
	}

	envPath, err := os.MkdirTemp("", "release-helper-venv-")
	if err != nil {
		return fmt.Errorf("creating venv dir: %w", err)
	}
	defer os.RemoveAll(envPath)

	binPath := filepath.Join(envPath, "bin")

	steps := []string{
		fmt.Sprintf("python -m venv %s", envPath),
		fmt.Sprintf("%s/python -m pip install -U pip", binPath),
		fmt.Sprintf("%s/pip install -q %s", binPath, distFile),
		fmt.Sprintf("%s/%s", binPath, testCmd),
	}
	for _, step := range steps {
		if _, err := b.Runner.Run(step, run.InDir(b.Dir)); err != nil {
			return err
		}
	}
	return nil
}

// ImportName derives the importable module name from a dist file name.
func ImportName(distFile string) (string, error) {
	base := filepath.Base(distFile)
	m := distNamePattern.FindStringSubmatch(base)
	if m == nil {
		return "", fmt.Errorf("could not parse package name from %s", base)
	}
	return strings.ReplaceAll(m[1], "-", "_"), nil
}
