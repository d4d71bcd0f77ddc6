// Package repo is the repository facade: read-only snapshot queries, the few
// mutations the fix executor may perform, and commit ancestry for the push guard.
package repo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/fulmenhq/gitsherpa/pkg/logger"
)

// ErrNotRepository is returned when no git repository encloses the target path.
var ErrNotRepository = errors.New("not a git repository")

// Error reports a failed repository query or mutation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("repository %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Commit is one commit of the review range.
type Commit struct {
	ID      string   `json:"id" yaml:"id"`
	Subject string   `json:"subject" yaml:"subject"`
	Body    string   `json:"body,omitempty" yaml:"body,omitempty"`
	Parents []string `json:"parents,omitempty" yaml:"parents,omitempty"`
}

// IsMerge reports whether the commit has more than one parent.
func (c Commit) IsMerge() bool { return len(c.Parents) > 1 }

// WorktreeStatus splits working tree changes the way the checks consume them.
type WorktreeStatus struct {
	// Dirty is true when any tracked path has staged or unstaged modifications.
	Dirty     bool
	Staged    []string
	// Added are staged paths HEAD does not contain yet.
	Added     []string
	Untracked []string
}

// Reader answers the read-only queries a snapshot needs.
type Reader interface {
	// CurrentBranch returns the checked-out branch, or detached=true.
	CurrentBranch(ctx context.Context) (branch string, detached bool, err error)
	// Upstream returns "remote/branch", or "" when none is configured.
	Upstream(ctx context.Context, branch string) (string, error)
	// ReviewRange returns at most limit commits not yet on the upstream, oldest first.
	ReviewRange(ctx context.Context, limit int) ([]Commit, error)
	Status(ctx context.Context) (WorktreeStatus, error)
	TrackedFiles(ctx context.Context) ([]string, error)
	HeadID(ctx context.Context) (string, error)
	HooksDir(ctx context.Context) (string, error)
}

// Mutator performs the repository writes available to auto-applied fixes.
type Mutator interface {
	RenameBranch(ctx context.Context, from, to string) error
	SetUpstream(ctx context.Context, branch, remote string) error
	AmendCommitMessage(ctx context.Context, message string) error
	Unstage(ctx context.Context, path string) error
}

// Graph answers commit ancestry questions.
type Graph interface {
	// IsAncestor reports whether ancestor is reachable from descendant.
	IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error)
}

// State is an immutable snapshot of the repository taken once per run.
type State struct {
	Branch    string
	Detached  bool
	Upstream  string
	Commits   []Commit
	Dirty     bool
	Staged    []string
	Added     []string
	Tracked   []string
	Untracked []string
	HeadID    string
}

// HasUpstream reports whether an upstream is configured.
func (s State) HasUpstream() bool { return s.Upstream != "" }

// IsStaged reports whether path is part of the index changes.
func (s State) IsStaged(path string) bool { return containsSorted(s.Staged, path) }

// IsAdded reports whether path is staged but not yet committed.
func (s State) IsAdded(path string) bool { return containsSorted(s.Added, path) }

func containsSorted(list []string, v string) bool {
	i := sort.SearchStrings(list, v)
	return i < len(list) && list[i] == v
}

// Snapshot reads everything the rule engine needs in one pass.
func Snapshot(ctx context.Context, r Reader, commitLimit int) (State, error) {
	var st State
	var err error

	if st.Branch, st.Detached, err = r.CurrentBranch(ctx); err != nil {
		return State{}, err
	}
	if st.HeadID, err = r.HeadID(ctx); err != nil {
		return State{}, err
	}
	if !st.Detached {
		if st.Upstream, err = r.Upstream(ctx, st.Branch); err != nil {
			return State{}, err
		}
	}
	if st.Commits, err = r.ReviewRange(ctx, commitLimit); err != nil {
		return State{}, err
	}

	ws, err := r.Status(ctx)
	if err != nil {
		return State{}, err
	}
	st.Dirty = ws.Dirty
	st.Staged = sortedCopy(ws.Staged)
	st.Added = sortedCopy(ws.Added)
	st.Untracked = sortedCopy(ws.Untracked)

	tracked, err := r.TrackedFiles(ctx)
	if err != nil {
		return State{}, err
	}
	st.Tracked = sortedCopy(tracked)
	logger.Debug("Repository snapshot",
		logger.String("branch", st.Branch),
		logger.Bool("detached", st.Detached),
		logger.Bool("dirty", st.Dirty),
		logger.Int("commits", len(st.Commits)))
	return st, nil
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}
