// Package repotest builds throwaway git repositories for tests.
package repotest

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Fixture is a non-bare repository in a temp directory, on branch main.
type Fixture struct {
	t    testing.TB
	Dir  string
	Repo *git.Repository
	tick int
}

// New initialises an empty repository with main as the unborn branch.
func New(t testing.TB) *Fixture {
	t.Helper()
	dir := t.TempDir()
	r, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.Main},
	})
	if err != nil {
		t.Fatalf("init repo: %v", err)
	}
	return &Fixture{t: t, Dir: dir, Repo: r}
}

// Write creates or replaces a file in the worktree without staging it.
func (f *Fixture) Write(path, content string) {
	f.t.Helper()
	full := filepath.Join(f.Dir, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		f.t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
		f.t.Fatalf("write %s: %v", path, err)
	}
}

// Stage writes and adds a file to the index.
func (f *Fixture) Stage(path, content string) {
	f.t.Helper()
	f.Write(path, content)
	wt := f.worktree()
	if _, err := wt.Add(path); err != nil {
		f.t.Fatalf("add %s: %v", path, err)
	}
}

// Commit stages a uniquely named file and commits it with message.
func (f *Fixture) Commit(message string) plumbing.Hash {
	f.t.Helper()
	f.tick++
	f.Stage(fmt.Sprintf("changes/%03d.txt", f.tick), message)
	return f.commit(message, nil)
}

// MergeCommit records a commit whose parents are HEAD and other.
func (f *Fixture) MergeCommit(message string, other plumbing.Hash) plumbing.Hash {
	f.t.Helper()
	head := f.Head()
	f.tick++
	f.Stage("merges.txt", message)
	return f.commit(message, []plumbing.Hash{head, other})
}

func (f *Fixture) commit(message string, parents []plumbing.Hash) plumbing.Hash {
	f.t.Helper()
	sig := &object.Signature{Name: "Test", Email: "test@example.com", When: time.Unix(1700000000+int64(f.tick), 0)}
	h, err := f.worktree().Commit(message, &git.CommitOptions{Author: sig, Committer: sig, Parents: parents})
	if err != nil {
		f.t.Fatalf("commit %q: %v", message, err)
	}
	return h
}

// Head returns the current HEAD commit.
func (f *Fixture) Head() plumbing.Hash {
	f.t.Helper()
	ref, err := f.Repo.Head()
	if err != nil {
		f.t.Fatalf("head: %v", err)
	}
	return ref.Hash()
}

// Branch creates and checks out a branch at HEAD.
func (f *Fixture) Branch(name string) {
	f.t.Helper()
	err := f.worktree().Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(name), Create: true, Keep: true})
	if err != nil {
		f.t.Fatalf("checkout -b %s: %v", name, err)
	}
}

// Checkout switches to an existing branch.
func (f *Fixture) Checkout(name string) {
	f.t.Helper()
	if err := f.worktree().Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(name)}); err != nil {
		f.t.Fatalf("checkout %s: %v", name, err)
	}
}

// Detach checks out HEAD's commit directly.
func (f *Fixture) Detach() {
	f.t.Helper()
	if err := f.worktree().Checkout(&git.CheckoutOptions{Hash: f.Head(), Keep: true}); err != nil {
		f.t.Fatalf("detach: %v", err)
	}
}

// RemoteRef points refs/remotes/<remote>/<branch> at hash, as a fetch would.
func (f *Fixture) RemoteRef(remote, branch string, hash plumbing.Hash) {
	f.t.Helper()
	ref := plumbing.NewHashReference(plumbing.NewRemoteReferenceName(remote, branch), hash)
	if err := f.Repo.Storer.SetReference(ref); err != nil {
		f.t.Fatalf("set remote ref: %v", err)
	}
}

// Track configures branch.<branch>.remote/merge.
func (f *Fixture) Track(branch, remote string) {
	f.t.Helper()
	f.EditConfig(func(c *config.Config) {
		c.Branches[branch] = &config.Branch{Name: branch, Remote: remote, Merge: plumbing.NewBranchReferenceName(branch)}
	})
}

// EditConfig mutates and saves the local repository config.
func (f *Fixture) EditConfig(edit func(*config.Config)) {
	f.t.Helper()
	c, err := f.Repo.Config()
	if err != nil {
		f.t.Fatalf("config: %v", err)
	}
	edit(c)
	if err := f.Repo.SetConfig(c); err != nil {
		f.t.Fatalf("set config: %v", err)
	}
}

func (f *Fixture) worktree() *git.Worktree {
	f.t.Helper()
	wt, err := f.Repo.Worktree()
	if err != nil {
		f.t.Fatalf("worktree: %v", err)
	}
	return wt
}
