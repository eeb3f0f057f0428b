// Package npm builds and checks npm tarballs, including workspace
// packages.
package npm

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jovyan123-playground/release-helper/internal/run"
)

// PackageJSON is the subset of package.json fields the release needs.
type PackageJSON struct {
	Name       string         `json:"name"`
	Version    string         `json:"version"`
	Private    bool           `json:"private"`
	Workspaces *WorkspaceSpec `json:"workspaces"`
}

// WorkspaceSpec holds the workspace package globs. npm accepts either a
// bare list or an object with a "packages" key.
type WorkspaceSpec struct {
	Packages []string `json:"packages"`
}

// UnmarshalJSON accepts both workspace forms.
func (w *WorkspaceSpec) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		w.Packages = list
		return nil
	}
	type spec struct {
		Packages []string `json:"packages"`
	}
	var s spec
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	w.Packages = s.Packages
	return nil
}

// ReadPackageJSON parses the package.json at path.
func ReadPackageJSON(path string) (PackageJSON, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PackageJSON{}, fmt.Errorf("reading %s: %w", path, err)
	}
	var pkg PackageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return PackageJSON{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return pkg, nil
}

// ExtractPackageJSON reads package/package.json out of an npm tarball.
func ExtractPackageJSON(tarball string) (PackageJSON, error) {
	f, err := os.Open(tarball)
	if err != nil {
		return PackageJSON{}, fmt.Errorf("opening %s: %w", tarball, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return PackageJSON{}, fmt.Errorf("reading %s: %w", tarball, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return PackageJSON{}, fmt.Errorf("reading %s: %w", tarball, err)
		}
		if hdr.Name == "package/package.json" {
			data, err := io.ReadAll(tr)
			if err != nil {
				return PackageJSON{}, fmt.Errorf("reading %s: %w", tarball, err)
			}
			var pkg PackageJSON
			if err := json.Unmarshal(data, &pkg); err != nil {
				return PackageJSON{}, fmt.Errorf("parsing package.json in %s: %w", tarball, err)
			}
			return pkg, nil
		}
	}
	return PackageJSON{}, fmt.Errorf("no package/package.json in %s", tarball)
}

// Builder packs and checks npm packages rooted at Dir.
type Builder struct {
	Runner run.Runner
	Dir    string
}

// BuildDist packs the package (a directory or an existing tarball) and
// any public workspace packages into distDir. Private packages are
// skipped. Stale tarballs in distDir are removed first.
func (b *Builder) BuildDist(pkg, distDir string) error {
	if err := os.MkdirAll(distDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", distDir, err)
	}
	stale, err := filepath.Glob(filepath.Join(distDir, "*.tgz"))
	if err != nil {
		return err
	}
	for _, path := range stale {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("removing stale tarball: %w", err)
		}
	}

	tarball := pkg
	packed := false
	if info, err := os.Stat(pkg); err == nil && info.IsDir() {
		name, err := b.pack(pkg)
		if err != nil {
			return err
		}
		tarball = filepath.Join(pkg, name)
		packed = true
	}

	data, err := ExtractPackageJSON(tarball)
	if err != nil {
		return err
	}

	if !data.Private {
		if err := moveFile(tarball, filepath.Join(distDir, filepath.Base(tarball))); err != nil {
			return err
		}
	} else if packed {
		if err := os.Remove(tarball); err != nil {
			return err
		}
	}

	if data.Workspaces == nil {
		return nil
	}
	for _, pattern := range data.Workspaces.Packages {
		matches, err := filepath.Glob(filepath.Join(b.Dir, pattern))
		if err != nil {
			return fmt.Errorf("bad workspace pattern %q: %w", pattern, err)
		}
		for _, path := range matches {
			name, err := b.pack(path)
			if err != nil {
				return err
			}
			wsTarball := filepath.Join(path, name)
			wsData, err := ExtractPackageJSON(wsTarball)
			if err != nil {
				return err
			}
			if wsData.Private {
				if err := os.Remove(wsTarball); err != nil {
					return err
				}
				continue
			}
			if err := moveFile(wsTarball, filepath.Join(distDir, name)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Builder) pack(dir string) (string, error) {
	out, err := b.Runner.Run("npm pack", run.InDir(dir))
	if err != nil {
		return "", err
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	return strings.TrimSpace(lines[len(lines)-1]), nil
}

// CheckDist installs every public tarball in distDir into a scratch npm
// project and runs testCmd there. When testCmd is empty each package is
// required from node.
func (b *Builder) CheckDist(distDir, testCmd string) error {
	tarballs, err := filepath.Glob(filepath.Join(distDir, "*.tgz"))
	if err != nil {
		return err
	}
	if len(tarballs) == 0 {
		return fmt.Errorf("no npm tarballs found in %s", distDir)
	}

	if testCmd == "" {
		testCmd = "node index.js"
	}

	tmpDir, err := os.MkdirTemp("", "release-helper-npm-")
	if err != nil {
		return fmt.Errorf("creating scratch project: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	if _, err := b.Runner.Run("npm init -y", run.InDir(tmpDir)); err != nil {
		return err
	}

	var names []string
	staging := filepath.Join(tmpDir, "staging")
	for _, tarball := range tarballs {
		data, err := ExtractPackageJSON(tarball)
		if err != nil {
			return err
		}
		if data.Private {
			continue
		}
		names = append(names, data.Name)

		pkgDir := filepath.Join(staging, data.Name)
		if err := os.MkdirAll(filepath.Dir(pkgDir), 0o755); err != nil {
			return err
		}
		if err := extractTarball(tarball, staging); err != nil {
			return err
		}
		if err := os.Rename(filepath.Join(staging, "package"), pkgDir); err != nil {
			return err
		}
	}

	var installArgs []string
	for _, name := range names {
		installArgs = append(installArgs, "./staging/"+name)
	}
	if _, err := b.Runner.Run("npm install "+strings.Join(installArgs, " "), run.InDir(tmpDir)); err != nil {
		return err
	}

	var requires []string
	for _, name := range names {
		requires = append(requires, fmt.Sprintf("require(%q)", name))
	}
	index := filepath.Join(tmpDir, "index.js")
	if err := os.WriteFile(index, []byte(strings.Join(requires, "\n")+"\n"), 0o644); err != nil {
		return err
	}

	_, err = b.Runner.Run(testCmd, run.InDir(tmpDir))
	return err
}

// extractTarball unpacks an npm tarball under dest. Entries that would
// escape dest are rejected.
func extractTarball(tarball, dest string) error {
	f, err := os.Open(tarball)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target := filepath.Join(dest, hdr.Name)
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
			return fmt.Errorf("tarball entry escapes destination: %s", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.Create(target)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			out.Close()
		}
	}
}

// WriteAuthToken appends an npm registry auth token to .npmrc in dir.
func WriteAuthToken(dir, token string) error {
	path := filepath.Join(dir, ".npmrc")
	entry := fmt.Sprintf("//registry.npmjs.org/:_authToken=%s\n", token)

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading .npmrc: %w", err)
	}
	content := string(existing)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return os.WriteFile(path, []byte(content+entry), 0o600)
}

// VersionMismatchSummary reports npm package versions that differ from
// the release version. Empty when everything matches and there are no
// workspaces.
func VersionMismatchSummary(dir, version string) (string, error) {
	pkg, err := ReadPackageJSON(filepath.Join(dir, "package.json"))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if pkg.Version != version {
		fmt.Fprintf(&b, "\nPython version: %s", version)
		fmt.Fprintf(&b, "\nnpm version: %s: %s", pkg.Name, pkg.Version)
	}
	if pkg.Workspaces != nil {
		b.WriteString("\nnpm workspace versions:")
		for _, pattern := range pkg.Workspaces.Packages {
			matches, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				return "", fmt.Errorf("bad workspace pattern %q: %w", pattern, err)
			}
			for _, path := range matches {
				sub, err := ReadPackageJSON(filepath.Join(path, "package.json"))
				if err != nil {
					return "", err
				}
				fmt.Fprintf(&b, "\n%s: %s", sub.Name, sub.Version)
			}
		}
	}
	return b.String(), nil
}

// TagWorkspacePackages creates a name@version git tag for each
// workspace package, skipping tags that already exist.
func TagWorkspacePackages(runner run.Runner, dir string) error {
	pkgPath := filepath.Join(dir, "package.json")
	if _, err := os.Stat(pkgPath); os.IsNotExist(err) {
		return nil
	}

	pkg, err := ReadPackageJSON(pkgPath)
	if err != nil {
		return err
	}
	if pkg.Workspaces == nil {
		return nil
	}

	out, err := runner.Run("git tag", run.InDir(dir))
	if err != nil {
		return err
	}
	existing := map[string]bool{}
	for _, tag := range strings.Split(strings.TrimSpace(out), "\n") {
		existing[tag] = true
	}

	for _, pattern := range pkg.Workspaces.Packages {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return fmt.Errorf("bad workspace pattern %q: %w", pattern, err)
		}
		for _, path := range matches {
			sub, err := ReadPackageJSON(filepath.Join(path, "package.json"))
			if err != nil {
				return err
			}
			tagName := fmt.Sprintf("%s@%s", sub.Name, sub.Version)
			if existing[tagName] {
				continue
			}
			if _, err := runner.Run("git tag "+tagName, run.InDir(dir)); err != nil {
				return err
			}
		}
	}
	return nil
}

func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	// Rename can fail across filesystems; fall back to copy.
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
