package run

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := map[string]struct {
		cmd     string
		want    []string
		wantErr bool
	}{
		"plain words": {
			cmd:  "git fetch upstream --tags",
			want: []string{"git", "fetch", "upstream", "--tags"},
		},
		"double quoted message": {
			cmd:  `git commit -am "Publish 1.2.3"`,
			want: []string{"git", "commit", "-am", "Publish 1.2.3"},
		},
		"single quotes": {
			cmd:  `node -e 'require("pkg")'`,
			want: []string{"node", "-e", `require("pkg")`},
		},
		"collapses whitespace": {
			cmd:  "  npm   pack ",
			want: []string{"npm", "pack"},
		},
		"unterminated quote": {
			cmd:     `git commit -m "oops`,
			wantErr: true,
		},
		"empty": {
			cmd:  "",
			want: nil,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := Split(tc.cmd)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExecRunnerEchoesCommand(t *testing.T) {
	var echo bytes.Buffer
	r := &ExecRunner{Echo: &echo}

	out, err := r.Run("git version", Quiet())
	if err != nil {
		t.Skipf("git not available: %v", err)
	}
	assert.Contains(t, out, "git version")
	assert.Empty(t, echo.String())

	_, err = r.Run("git version")
	require.NoError(t, err)
	assert.Equal(t, "+ git version\n", echo.String())
}

func TestExecRunnerFailsOnNonZeroExit(t *testing.T) {
	var echo bytes.Buffer
	r := &ExecRunner{Echo: &echo}

	_, err := r.Run("git bogus-subcommand-for-test", Quiet())
	require.Error(t, err)
}

func TestExecRunnerEmptyCommand(t *testing.T) {
	r := NewExecRunner()
	_, err := r.Run("   ", Quiet())
	require.Error(t, err)
}
