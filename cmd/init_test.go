package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulmenhq/gitsherpa/internal/repo/repotest"
	"github.com/fulmenhq/gitsherpa/pkg/config"
	"github.com/fulmenhq/gitsherpa/pkg/exitcode"
)

func TestInit_ScaffoldsConfigAndScriptsDir(t *testing.T) {
	f := repotest.New(t)

	res := execRoot(t, "-C", f.Dir, "init")
	require.Equal(t, exitcode.Success, res.code, res.stderr)

	cfgPath := filepath.Join(f.Dir, config.DefaultPath)
	assert.FileExists(t, filepath.Join(f.Dir, config.ScriptsDir, "README.md"))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Branches.Pattern, cfg.Branches.Pattern)
	assert.Equal(t, config.DefaultSensitivePatterns, cfg.Sensitive.Patterns)
}

func TestInit_RefusesToOverwrite(t *testing.T) {
	f := repotest.New(t)
	cfgPath := filepath.Join(f.Dir, config.DefaultPath)
	require.NoError(t, os.WriteFile(cfgPath, []byte("# mine\n"), 0o600))

	res := execRoot(t, "-C", f.Dir, "init")
	assert.Equal(t, exitcode.FileSystemError, res.code)
	assert.Contains(t, res.stderr, "already exists")

	body, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "# mine\n", string(body))
	assert.NoDirExists(t, filepath.Join(f.Dir, config.ScriptsDir))

	res = execRoot(t, "-C", f.Dir, "init", "--force")
	require.Equal(t, exitcode.Success, res.code, res.stderr)
	body, err = os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(body), "[branches]")
}

func TestInit_OutsideRepository(t *testing.T) {
	res := execRoot(t, "-C", t.TempDir(), "init")
	assert.Equal(t, exitcode.RepositoryError, res.code)
}
