package npm

import (
	"archive/tar"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jovyan123-playground/release-helper/internal/testutil"
)

// writeTarball creates an npm-style tarball holding the given
// package.json content under package/.
func writeTarball(t *testing.T, path, packageJSON string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     "package/package.json",
		Mode:     0o644,
		Size:     int64(len(packageJSON)),
		Typeflag: tar.TypeReg,
	}))
	_, err = tw.Write([]byte(packageJSON))
	require.NoError(t, err)

	index := `module.exports = {};`
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     "package/index.js",
		Mode:     0o644,
		Size:     int64(len(index)),
		Typeflag: tar.TypeReg,
	}))
	_, err = tw.Write([]byte(index))
	require.NoError(t, err)

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
}

func TestWorkspaceSpecAcceptsBothForms(t *testing.T) {
	tests := map[string]struct {
		json string
		want []string
	}{
		"bare list":    {json: `{"workspaces": ["packages/*"]}`, want: []string{"packages/*"}},
		"packages key": {json: `{"workspaces": {"packages": ["packages/*", "apps/*"]}}`, want: []string{"packages/*", "apps/*"}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			testutil.WriteFile(t, dir, "package.json", tc.json)

			pkg, err := ReadPackageJSON(filepath.Join(dir, "package.json"))
			require.NoError(t, err)
			require.NotNil(t, pkg.Workspaces)
			assert.Equal(t, tc.want, pkg.Workspaces.Packages)
		})
	}
}

func TestExtractPackageJSON(t *testing.T) {
	dir := t.TempDir()
	tarball := filepath.Join(dir, "demo-1.0.1.tgz")
	writeTarball(t, tarball, `{"name": "demo", "version": "1.0.1"}`)

	pkg, err := ExtractPackageJSON(tarball)
	require.NoError(t, err)
	assert.Equal(t, "demo", pkg.Name)
	assert.Equal(t, "1.0.1", pkg.Version)
	assert.False(t, pkg.Private)
}

func TestExtractPackageJSONMissingEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.tgz")

	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	_, err = ExtractPackageJSON(path)
	require.ErrorContains(t, err, "no package/package.json")
}

func TestBuildDistMovesPublicTarball(t *testing.T) {
	dir := t.TempDir()
	distDir := filepath.Join(dir, "dist")

	tarball := filepath.Join(dir, "demo-1.0.1.tgz")
	writeTarball(t, tarball, `{"name": "demo", "version": "1.0.1"}`)

	b := &Builder{Runner: testutil.NewMockRunner(), Dir: dir}
	require.NoError(t, b.BuildDist(tarball, distDir))

	assert.FileExists(t, filepath.Join(distDir, "demo-1.0.1.tgz"))
	assert.NoFileExists(t, tarball)
}

func TestBuildDistPacksDirectory(t *testing.T) {
	dir := t.TempDir()
	distDir := filepath.Join(dir, "dist")
	testutil.WriteFile(t, dir, "package.json", `{"name": "demo", "version": "1.0.1"}`)

	runner := testutil.NewMockRunner()
	runner.Outputs["npm pack"] = "demo-1.0.1.tgz\n"
	writeTarball(t, filepath.Join(dir, "demo-1.0.1.tgz"), `{"name": "demo", "version": "1.0.1"}`)

	b := &Builder{Runner: runner, Dir: dir}
	require.NoError(t, b.BuildDist(dir, distDir))

	assert.True(t, runner.CalledWith("npm pack"))
	assert.FileExists(t, filepath.Join(distDir, "demo-1.0.1.tgz"))
}

func TestBuildDistDropsPrivatePackage(t *testing.T) {
	dir := t.TempDir()
	distDir := filepath.Join(dir, "dist")
	testutil.WriteFile(t, dir, "package.json", `{"name": "secret", "version": "1.0.1", "private": true}`)

	runner := testutil.NewMockRunner()
	runner.Outputs["npm pack"] = "secret-1.0.1.tgz\n"
	tarball := filepath.Join(dir, "secret-1.0.1.tgz")
	writeTarball(t, tarball, `{"name": "secret", "version": "1.0.1", "private": true}`)

	b := &Builder{Runner: runner, Dir: dir}
	require.NoError(t, b.BuildDist(dir, distDir))

	assert.NoFileExists(t, tarball)
	matches, err := filepath.Glob(filepath.Join(distDir, "*.tgz"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestBuildDistPacksWorkspaces(t *testing.T) {
	dir := t.TempDir()
	distDir := filepath.Join(dir, "dist")

	root := filepath.Join(dir, "root.tgz")
	writeTarball(t, root, `{"name": "root", "version": "1.0.1", "private": true,
		"workspaces": {"packages": ["packages/*"]}}`)

	wsDir := filepath.Join(dir, "packages", "child")
	require.NoError(t, os.MkdirAll(wsDir, 0o755))
	writeTarball(t, filepath.Join(wsDir, "child-1.0.1.tgz"), `{"name": "child", "version": "1.0.1"}`)

	runner := testutil.NewMockRunner()
	runner.Outputs["npm pack"] = "child-1.0.1.tgz\n"

	b := &Builder{Runner: runner, Dir: dir}
	require.NoError(t, b.BuildDist(root, distDir))

	assert.FileExists(t, filepath.Join(distDir, "child-1.0.1.tgz"))
	// The private root tarball is left in place, not shipped.
	assert.FileExists(t, root)
	assert.NoFileExists(t, filepath.Join(distDir, "root.tgz"))
}

func TestCheckDistInstallsAndRequiresPackages(t *testing.T) {
	dir := t.TempDir()
	distDir := filepath.Join(dir, "dist")
	require.NoError(t, os.MkdirAll(distDir, 0o755))
	writeTarball(t, filepath.Join(distDir, "demo-1.0.1.tgz"), `{"name": "demo", "version": "1.0.1"}`)

	runner := testutil.NewMockRunner()
	b := &Builder{Runner: runner, Dir: dir}
	require.NoError(t, b.CheckDist(distDir, ""))

	require.Len(t, runner.Calls, 3)
	assert.Equal(t, "npm init -y", runner.Calls[0])
	assert.Equal(t, "npm install ./staging/demo", runner.Calls[1])
	assert.Equal(t, "node index.js", runner.Calls[2])
}

func TestCheckDistFailsWithoutTarballs(t *testing.T) {
	dir := t.TempDir()
	b := &Builder{Runner: testutil.NewMockRunner(), Dir: dir}
	require.ErrorContains(t, b.CheckDist(filepath.Join(dir, "dist"), ""), "no npm tarballs")
}

func TestWriteAuthToken(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteAuthToken(dir, "s3cret"))

	data, err := os.ReadFile(filepath.Join(dir, ".npmrc"))
	require.NoError(t, err)
	assert.Equal(t, "//registry.npmjs.org/:_authToken=s3cret\n", string(data))
}

func TestWriteAuthTokenAppends(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, ".npmrc", "registry=https://registry.npmjs.org/")

	require.NoError(t, WriteAuthToken(dir, "s3cret"))

	data, err := os.ReadFile(filepath.Join(dir, ".npmrc"))
	require.NoError(t, err)
	assert.Equal(t, "registry=https://registry.npmjs.org/\n//registry.npmjs.org/:_authToken=s3cret\n", string(data))
}

func TestVersionMismatchSummary(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "package.json",
		`{"name": "demo", "version": "1.0.0", "workspaces": {"packages": ["packages/*"]}}`)
	testutil.WriteFile(t, dir, "packages/child/package.json",
		`{"name": "child", "version": "2.3.4"}`)

	summary, err := VersionMismatchSummary(dir, "1.0.1")
	require.NoError(t, err)
	assert.Contains(t, summary, "Python version: 1.0.1")
	assert.Contains(t, summary, "npm version: demo: 1.0.0")
	assert.Contains(t, summary, "child: 2.3.4")
}

func TestVersionMismatchSummaryEmptyWhenMatching(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "package.json", `{"name": "demo", "version": "1.0.1"}`)

	summary, err := VersionMismatchSummary(dir, "1.0.1")
	require.NoError(t, err)
	assert.Empty(t, summary)
}

func TestTagWorkspacePackages(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "package.json",
		`{"name": "root", "version": "1.0.1", "workspaces": {"packages": ["packages/*"]}}`)
	testutil.WriteFile(t, dir, "packages/a/package.json", `{"name": "pkg-a", "version": "1.0.1"}`)
	testutil.WriteFile(t, dir, "packages/b/package.json", `{"name": "pkg-b", "version": "2.0.0"}`)

	runner := testutil.NewMockRunner()
	runner.Outputs["git tag"] = "pkg-b@2.0.0\nv1.0.0\n"

	require.NoError(t, TagWorkspacePackages(runner, dir))

	assert.True(t, runner.CalledWith("git tag pkg-a@1.0.1"))
	assert.False(t, runner.CalledWith("git tag pkg-b@2.0.0"))
}

func TestTagWorkspacePackagesNoPackageJSON(t *testing.T) {
	runner := testutil.NewMockRunner()
	require.NoError(t, TagWorkspacePackages(runner, t.TempDir()))
	assert.Empty(t, runner.Calls)
}

func TestTagWorkspacePackagesNoWorkspaces(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "package.json", `{"name": "demo", "version": "1.0.1"}`)

	runner := testutil.NewMockRunner()
	require.NoError(t, TagWorkspacePackages(runner, dir))
	assert.Empty(t, runner.Calls)
}
