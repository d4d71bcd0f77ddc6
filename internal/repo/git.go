package repo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/emirpasic/gods/trees/binaryheap"
	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/fulmenhq/gitsherpa/pkg/logger"
)

// GitRepo implements Reader, Mutator and Graph. Reads and config writes go
// through go-git; index and ref mutations shell out to the git CLI so hooks,
// reflogs and index extensions behave exactly as git itself would.
type GitRepo struct {
	repo *git.Repository
	root string
}

var (
	_ Reader  = (*GitRepo)(nil)
	_ Mutator = (*GitRepo)(nil)
	_ Graph   = (*GitRepo)(nil)
)

// Open finds the repository enclosing path.
func Open(path string) (*GitRepo, error) {
	r, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, &Error{Op: "open", Err: fmt.Errorf("%w: %s", ErrNotRepository, path)}
		}
		return nil, &Error{Op: "open", Err: err}
	}
	wt, err := r.Worktree()
	if err != nil {
		return nil, &Error{Op: "open", Err: err}
	}
	return &GitRepo{repo: r, root: wt.Filesystem.Root()}, nil
}

// Root returns the worktree root directory.
func (g *GitRepo) Root() string { return g.root }

// CurrentBranch handles unborn branches by reading the symbolic HEAD.
func (g *GitRepo) CurrentBranch(_ context.Context) (string, bool, error) {
	head, err := g.repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", false, &Error{Op: "read HEAD", Err: err}
	}
	if head.Type() == plumbing.SymbolicReference {
		return head.Target().Short(), false, nil
	}
	return "", true, nil
}

func (g *GitRepo) HeadID(_ context.Context) (string, error) {
	head, err := g.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", nil
	}
	if err != nil {
		return "", &Error{Op: "read HEAD", Err: err}
	}
	return head.Hash().String(), nil
}

func (g *GitRepo) Upstream(_ context.Context, branch string) (string, error) {
	remote, merge, err := g.tracking(branch)
	if err != nil || remote == "" {
		return "", err
	}
	return remote + "/" + merge.Short(), nil
}

func (g *GitRepo) tracking(branch string) (string, plumbing.ReferenceName, error) {
	cfg, err := g.repo.Config()
	if err != nil {
		return "", "", &Error{Op: "read config", Err: err}
	}
	b, ok := cfg.Branches[branch]
	if !ok || b.Remote == "" || b.Merge == "" {
		return "", "", nil
	}
	return b.Remote, b.Merge, nil
}

// ReviewRange is empty when there is no upstream or its tracking ref has not been fetched.
func (g *GitRepo) ReviewRange(ctx context.Context, limit int) ([]Commit, error) {
	branch, detached, err := g.CurrentBranch(ctx)
	if err != nil || detached {
		return nil, err
	}
	head, err := g.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Op: "read HEAD", Err: err}
	}
	remote, merge, err := g.tracking(branch)
	if err != nil || remote == "" {
		return nil, err
	}
	trackingRef, err := g.repo.Reference(plumbing.NewRemoteReferenceName(remote, merge.Short()), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		logger.Debug("Upstream tracking ref not present locally", logger.String("remote", remote), logger.String("branch", merge.Short()))
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Op: "read upstream", Err: err}
	}

	headCommit, err := g.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, &Error{Op: "read commit", Err: err}
	}
	upstreamCommit, err := g.repo.CommitObject(trackingRef.Hash())
	if err != nil {
		return nil, &Error{Op: "read commit", Err: err}
	}
	newestFirst, err := unpushed(ctx, headCommit, upstreamCommit, limit)
	if err != nil {
		return nil, &Error{Op: "walk history", Err: err}
	}
	out := make([]Commit, len(newestFirst))
	for i, c := range newestFirst {
		out[len(newestFirst)-1-i] = toCommit(c)
	}
	return out, nil
}

const (
	fromHead uint8 = 1 << iota
	fromUpstream
)

type walkEntry struct {
	flags  uint8
	queued bool
	done   bool
}

// unpushed returns the commits reachable from head but not from upstream,
// newest first, at most limit of them when limit > 0. Both sides are walked
// together in committer time order, so the walk stops near the fork point
// instead of descending into shared history.
func unpushed(ctx context.Context, head, upstream *object.Commit, limit int) ([]*object.Commit, error) {
	queue := binaryheap.NewWith(func(a, b interface{}) int {
		if a.(*object.Commit).Committer.When.Before(b.(*object.Commit).Committer.When) {
			return 1
		}
		return -1
	})
	state := make(map[plumbing.Hash]*walkEntry)
	pending := 0 // queued commits upstream has not reached yet

	mark := func(c *object.Commit, flags uint8) {
		e, ok := state[c.Hash]
		if !ok {
			e = &walkEntry{}
			state[c.Hash] = e
		}
		if e.flags|flags == e.flags {
			return
		}
		reached := e.flags&fromUpstream != 0
		e.flags |= flags
		nowReached := e.flags&fromUpstream != 0
		switch {
		case e.queued:
			if nowReached && !reached {
				pending--
			}
		case !e.done || (nowReached && !reached):
			// a visited commit reached late still has to paint its parents
			e.queued, e.done = true, false
			queue.Push(c)
			if !nowReached {
				pending++
			}
		}
	}

	mark(head, fromHead)
	mark(upstream, fromUpstream)

	var candidates []*object.Commit
	full := false
	for !queue.Empty() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if pending == 0 || full {
			// only upstream commits at least as new as a candidate can still reach it
			top, _ := queue.Peek()
			if len(candidates) == 0 || top.(*object.Commit).Committer.When.Before(candidates[len(candidates)-1].Committer.When) {
				break
			}
		}

		v, _ := queue.Pop()
		c := v.(*object.Commit)
		e := state[c.Hash]
		e.queued, e.done = false, true
		if e.flags&fromUpstream == 0 {
			pending--
			if !full {
				candidates = append(candidates, c)
				full = limit > 0 && len(candidates) >= limit
			}
		}

		flags := e.flags
		err := c.Parents().ForEach(func(p *object.Commit) error {
			mark(p, flags)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	out := candidates[:0]
	for _, c := range candidates {
		if state[c.Hash].flags&fromUpstream == 0 {
			out = append(out, c)
		}
	}
	return out, nil
}

func toCommit(c *object.Commit) Commit {
	subject, body, _ := strings.Cut(c.Message, "\n")
	parents := make([]string, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}
	return Commit{
		ID:      c.Hash.String(),
		Subject: strings.TrimRight(subject, "\r"),
		Body:    strings.TrimSpace(body),
		Parents: parents,
	}
}

func (g *GitRepo) Status(_ context.Context) (WorktreeStatus, error) {
	wt, err := g.repo.Worktree()
	if err != nil {
		return WorktreeStatus{}, &Error{Op: "status", Err: err}
	}
	st, err := wt.Status()
	if err != nil {
		return WorktreeStatus{}, &Error{Op: "status", Err: err}
	}
	var ws WorktreeStatus
	for path, s := range st {
		path = filepath.ToSlash(path)
		if s.Staging == git.Untracked && s.Worktree == git.Untracked {
			ws.Untracked = append(ws.Untracked, path)
			continue
		}
		switch s.Staging {
		case git.Unmodified, git.Deleted:
		case git.Added:
			ws.Staged = append(ws.Staged, path)
			ws.Added = append(ws.Added, path)
		default:
			ws.Staged = append(ws.Staged, path)
		}
		if s.Staging != git.Unmodified || s.Worktree != git.Unmodified {
			ws.Dirty = true
		}
	}
	return ws, nil
}

func (g *GitRepo) TrackedFiles(_ context.Context) ([]string, error) {
	idx, err := g.repo.Storer.Index()
	if err != nil {
		return nil, &Error{Op: "read index", Err: err}
	}
	files := make([]string, 0, len(idx.Entries))
	for _, e := range idx.Entries {
		files = append(files, filepath.ToSlash(e.Name))
	}
	return files, nil
}

// HooksDir honours core.hooksPath, resolved against the worktree root.
func (g *GitRepo) HooksDir(_ context.Context) (string, error) {
	cfg, err := g.repo.Config()
	if err != nil {
		return "", &Error{Op: "read config", Err: err}
	}
	if p := cfg.Raw.Section("core").Option("hooksPath"); p != "" {
		if !filepath.IsAbs(p) {
			p = filepath.Join(g.root, p)
		}
		return p, nil
	}
	if fs, ok := g.repo.Storer.(*filesystem.Storage); ok {
		return filepath.Join(fs.Filesystem().Root(), "hooks"), nil
	}
	return filepath.Join(g.root, ".git", "hooks"), nil
}

// SetUpstream records branch.<b>.remote and branch.<b>.merge in the local
// config. It never contacts the remote and is idempotent.
func (g *GitRepo) SetUpstream(_ context.Context, branch, remote string) error {
	cfg, err := g.repo.Config()
	if err != nil {
		return &Error{Op: "read config", Err: err}
	}
	merge := plumbing.NewBranchReferenceName(branch)
	if b, ok := cfg.Branches[branch]; ok && b.Remote == remote && b.Merge == merge {
		return nil
	}
	cfg.Branches[branch] = &gitconfig.Branch{Name: branch, Remote: remote, Merge: merge}
	if err := g.repo.SetConfig(cfg); err != nil {
		return &Error{Op: "set upstream", Err: err}
	}
	logger.Info("Upstream configured", logger.String("branch", branch), logger.String("remote", remote))
	return nil
}

// UnstageArgs are the git arguments Unstage runs. Without a revision git
// resets against HEAD, or against the empty tree on an unborn branch.
func UnstageArgs(path string) []string {
	return []string{"reset", "-q", "--", path}
}

func (g *GitRepo) Unstage(ctx context.Context, path string) error {
	return g.runGit(ctx, "unstage", UnstageArgs(path)...)
}

func (g *GitRepo) RenameBranch(ctx context.Context, from, to string) error {
	return g.runGit(ctx, "rename branch", "branch", "-m", from, to)
}

func (g *GitRepo) AmendCommitMessage(ctx context.Context, message string) error {
	return g.runGit(ctx, "amend commit", "commit", "--amend", "--no-verify", "-m", message)
}

// IsAncestor errors when either object is missing locally.
func (g *GitRepo) IsAncestor(_ context.Context, ancestor, descendant string) (bool, error) {
	a, err := g.repo.CommitObject(plumbing.NewHash(ancestor))
	if err != nil {
		return false, &Error{Op: "read commit " + ancestor, Err: err}
	}
	d, err := g.repo.CommitObject(plumbing.NewHash(descendant))
	if err != nil {
		return false, &Error{Op: "read commit " + descendant, Err: err}
	}
	if a.Hash == d.Hash {
		return true, nil
	}
	ok, err := a.IsAncestor(d)
	if err != nil {
		return false, &Error{Op: "ancestry", Err: err}
	}
	return ok, nil
}

func (g *GitRepo) runGit(ctx context.Context, op string, args ...string) error {
	if _, err := exec.LookPath("git"); err != nil {
		return &Error{Op: op, Err: fmt.Errorf("git executable not found: %w", err)}
	}
	cmd := exec.CommandContext(ctx, "git", args...) // #nosec G204 -- fixed git subcommands
	cmd.Dir = g.root
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	logger.Debug("Running git", logger.Strings("args", args))
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return &Error{Op: op, Err: fmt.Errorf("%w: %s", err, msg)}
		}
		return &Error{Op: op, Err: err}
	}
	return nil
}
