package python

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jovyan123-playground/release-helper/internal/testutil"
)

func TestImportName(t *testing.T) {
	tests := map[string]struct {
		distFile string
		want     string
		wantErr  bool
	}{
		"sdist":              {distFile: "dist/my-package-1.0.1.tar.gz", want: "my_package"},
		"wheel":              {distFile: "my_package-1.0.1-py3-none-any.whl", want: "my_package"},
		"single word":        {distFile: "demo-0.0.2.tar.gz", want: "demo"},
		"no version in name": {distFile: "README.md", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ImportName(tc.distFile)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBuildDistUsesPEP517WhenPyprojectExists(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "pyproject.toml", "[build-system]\nrequires = [\"hatchling\"]\n")

	runner := testutil.NewMockRunner()
	b := &Builder{Runner: runner, Dir: dir}

	distDir := filepath.Join(dir, "dist")
	require.NoError(t, b.BuildDist(distDir))
	require.Len(t, runner.Calls, 1)
	assert.Contains(t, runner.Calls[0], "python -m build --outdir")
}

func TestBuildDistFallsBackToSetupPy(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "setup.py", "from setuptools import setup\nsetup()\n")

	runner := testutil.NewMockRunner()
	b := &Builder{Runner: runner, Dir: dir}

	require.NoError(t, b.BuildDist(filepath.Join(dir, "dist")))
	require.Len(t, runner.Calls, 2)
	assert.Contains(t, runner.Calls[0], "python setup.py sdist")
	assert.Contains(t, runner.Calls[1], "python setup.py bdist_wheel")
}

func TestBuildDistClearsStaleArtifacts(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "pyproject.toml", "[build-system]\n")

	distDir := filepath.Join(dir, "dist")
	require.NoError(t, os.MkdirAll(distDir, 0o755))
	stale := filepath.Join(distDir, "old-0.0.1.tar.gz")
	require.NoError(t, os.WriteFile(stale, []byte("stale"), 0o644))
	kept := filepath.Join(distDir, "notes.txt")
	require.NoError(t, os.WriteFile(kept, []byte("keep"), 0o644))

	b := &Builder{Runner: testutil.NewMockRunner(), Dir: dir}
	require.NoError(t, b.BuildDist(distDir))

	assert.NoFileExists(t, stale)
	assert.FileExists(t, kept)
}

func TestBuildDistRequiresPackagingFiles(t *testing.T) {
	dir := t.TempDir()
	b := &Builder{Runner: testutil.NewMockRunner(), Dir: dir}
	require.ErrorContains(t, b.BuildDist(filepath.Join(dir, "dist")), "no pyproject.toml or setup.py")
}

func TestCheckDistRunsTwineAndVenvSmokeTest(t *testing.T) {
	dir := t.TempDir()
	runner := testutil.NewMockRunner()
	b := &Builder{Runner: runner, Dir: dir}

	require.NoError(t, b.CheckDist("dist/my-package-1.0.1.tar.gz", ""))

	require.Len(t, runner.Calls, 5)
	assert.Equal(t, "twine check dist/my-package-1.0.1.tar.gz", runner.Calls[0])
	assert.Contains(t, runner.Calls[1], "python -m venv")
	assert.Contains(t, runner.Calls[2], "pip install -U pip")
	assert.Contains(t, runner.Calls[3], "pip install -q dist/my-package-1.0.1.tar.gz")
	assert.Contains(t, runner.Calls[4], `python -c "import my_package"`)
}

func TestCheckDistUsesCustomTestCommand(t *testing.T) {
	dir := t.TempDir()
	runner := testutil.NewMockRunner()
	b := &Builder{Runner: runner, Dir: dir}

	require.NoError(t, b.CheckDist("dist/demo-0.0.2.tar.gz", "pytest --pyargs demo"))
	assert.Contains(t, runner.Calls[4], "pytest --pyargs demo")
}

func TestCheckDistFailsWhenTwineFails(t *testing.T) {
	dir := t.TempDir()
	runner := testutil.NewMockRunner()
	runner.Fail("twine check", "InvalidDistribution: Metadata is missing")

	b := &Builder{Runner: runner, Dir: dir}
	err := b.CheckDist("dist/demo-0.0.2.tar.gz", "")
	require.ErrorContains(t, err, "InvalidDistribution")
	require.Len(t, runner.Calls, 1)
}
