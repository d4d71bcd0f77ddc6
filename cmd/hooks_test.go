package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulmenhq/gitsherpa/internal/guardian"
	"github.com/fulmenhq/gitsherpa/internal/hooks"
	"github.com/fulmenhq/gitsherpa/internal/repo"
	"github.com/fulmenhq/gitsherpa/internal/repo/repotest"
	"github.com/fulmenhq/gitsherpa/pkg/config"
	"github.com/fulmenhq/gitsherpa/pkg/exitcode"
)

const zeroOID = "0000000000000000000000000000000000000000"

func decodeHooks(t *testing.T, out string) []hooks.Descriptor {
	t.Helper()
	var ds []hooks.Descriptor
	require.NoError(t, json.Unmarshal([]byte(out), &ds), out)
	return ds
}

func TestHooks_InstallStatusUninstall(t *testing.T) {
	f := repotest.New(t)
	hooksDir := filepath.Join(f.Dir, ".git", "hooks")

	res := execRoot(t, "-C", f.Dir, "hooks", "install", "--format", "json")
	require.Equal(t, exitcode.Success, res.code, res.stderr)
	ds := decodeHooks(t, res.stdout)
	require.Len(t, ds, 2)
	for _, d := range ds {
		assert.Equal(t, hooks.ActionInstalled, d.Action, d.Name)
		body, err := os.ReadFile(filepath.Join(hooksDir, d.Name))
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(body), hooks.Marker), d.Name)
	}

	res = execRoot(t, "-C", f.Dir, "hooks", "status", "--format", "json")
	require.Equal(t, exitcode.Success, res.code, res.stderr)
	for _, d := range decodeHooks(t, res.stdout) {
		assert.Equal(t, hooks.StateInstalled, d.State, d.Name)
	}

	res = execRoot(t, "-C", f.Dir, "hooks", "uninstall", "--hook", "pre-push")
	require.Equal(t, exitcode.Success, res.code, res.stderr)
	assert.NoFileExists(t, filepath.Join(hooksDir, "pre-push"))
	assert.FileExists(t, filepath.Join(hooksDir, "pre-commit"))
}

func TestHooks_InstallCustomInvocation(t *testing.T) {
	f := repotest.New(t)

	res := execRoot(t, "-C", f.Dir, "hooks", "install", "--hook", "pre-commit", "--invoke", "go run ./cmd/git-sherpa")
	require.Equal(t, exitcode.Success, res.code, res.stderr)

	body, err := os.ReadFile(filepath.Join(f.Dir, ".git", "hooks", "pre-commit"))
	require.NoError(t, err)
	assert.Contains(t, string(body), "exec go run ./cmd/git-sherpa check --only")
	assert.NoFileExists(t, filepath.Join(f.Dir, ".git", "hooks", "pre-push"))
}

func TestHooks_ConflictExitCode(t *testing.T) {
	f := repotest.New(t)
	hooksDir := filepath.Join(f.Dir, ".git", "hooks")
	require.NoError(t, os.MkdirAll(hooksDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(hooksDir, "pre-commit"), []byte("#!/bin/sh\necho mine\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(hooksDir, "pre-commit"+hooks.BackupSuffix), []byte("#!/bin/sh\necho older\n"), 0o600))

	res := execRoot(t, "-C", f.Dir, "hooks", "install", "--format", "json")
	require.Equal(t, exitcode.HookConflict, res.code, res.stderr)

	ds := decodeHooks(t, res.stdout)
	require.Len(t, ds, 2)
	assert.NotEmpty(t, ds[0].Error)
	assert.Equal(t, hooks.ActionInstalled, ds[1].Action, "the batch continues past a conflict")

	body, err := os.ReadFile(filepath.Join(hooksDir, "pre-commit"))
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\necho mine\n", string(body))
}

func TestHooks_UnknownHook(t *testing.T) {
	f := repotest.New(t)
	res := execRoot(t, "-C", f.Dir, "hooks", "install", "--hook", "post-merge")
	assert.Equal(t, exitcode.GeneralError, res.code)
	assert.Contains(t, res.stderr, "unknown hook")
}

func TestHooks_GuardPush(t *testing.T) {
	f := repotest.New(t)
	base := f.Commit("feat: initial import")
	f.Branch("feat/login")
	head := f.Commit("feat: add login form")

	tests := []struct {
		name  string
		input string
		code  int
	}{
		{"fast-forward", "refs/heads/feat/login " + head.String() + " refs/heads/feat/login " + base.String() + "\n", exitcode.Success},
		{"new branch", "refs/heads/feat/login " + head.String() + " refs/heads/feat/login " + zeroOID + "\n", exitcode.Success},
		{"protected", "refs/heads/feat/login " + head.String() + " refs/heads/main " + base.String() + "\n", exitcode.GeneralError},
		{"rewind", "refs/heads/main " + base.String() + " refs/heads/feat/login " + head.String() + "\n", exitcode.GeneralError},
		{"tag", "refs/tags/v1 " + head.String() + " refs/tags/v1 " + zeroOID + "\n", exitcode.Success},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := execRootInput(t, strings.NewReader(tt.input), "-C", f.Dir, "hooks", "guard-push", "origin", "git@example.com:repo.git")
			assert.Equal(t, tt.code, res.code, res.stderr)
			if tt.code != exitcode.Success {
				assert.Contains(t, res.stderr, "blocked")
			}
		})
	}
}

func TestHooks_PrePushHookMatchesGuard(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	self, err := os.Executable()
	require.NoError(t, err)

	f := trackedFeatureBranch(t)
	head := f.Head()
	headCommit, err := f.Repo.CommitObject(head)
	require.NoError(t, err)
	base := headCommit.ParentHashes[0]

	cfgPath := filepath.Join(f.Dir, config.DefaultPath)
	require.NoError(t, os.WriteFile(cfgPath, []byte("[hooks]\nprotected_branches = [\"main\", \"release/*\"]\n"), 0o600))

	res := execRoot(t, "-C", f.Dir, "hooks", "install", "--hook", "pre-push", "--invoke", self)
	require.Equal(t, exitcode.Success, res.code, res.stderr)
	hookPath := filepath.Join(f.Dir, ".git", "hooks", config.HookPrePush)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	g, err := repo.Open(f.Dir)
	require.NoError(t, err)
	policy := guardian.PolicyFromConfig(cfg)
	assert.False(t, cfg.IsProtected("release/a/b"))

	tests := []struct {
		name   string
		branch string
		local  string
		remote string
		allow  bool
	}{
		{"nested release branch", "release/a/b", head.String(), base.String(), true},
		{"release branch", "release/1", head.String(), base.String(), false},
		{"main", "main", head.String(), base.String(), false},
		{"feature fast-forward", "feat/x", head.String(), base.String(), true},
		{"feature rewind", "feat/x", base.String(), head.String(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := fmt.Sprintf("refs/heads/feat/login %s refs/heads/%s %s\n", tt.local, tt.branch, tt.remote)
			updates, err := guardian.ParseRefUpdates(strings.NewReader(line))
			require.NoError(t, err)
			guardErr := guardian.Evaluate(context.Background(), policy, updates[0], g)
			assert.Equal(t, tt.allow, guardErr == nil, "guard: %v", guardErr)

			hook := exec.Command("sh", hookPath, "origin", "git@example.com:repo.git") // #nosec G204 -- test hook
			hook.Dir = f.Dir
			hook.Env = append(os.Environ(), runMainEnv+"=1")
			hook.Stdin = strings.NewReader(line)
			out, hookErr := hook.CombinedOutput()
			assert.Equal(t, tt.allow, hookErr == nil, "hook output: %s", out)
			assert.NotContains(t, string(out), "not found in PATH")
		})
	}
}
