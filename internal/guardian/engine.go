package guardian

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fulmenhq/gitsherpa/pkg/config"
	"github.com/fulmenhq/gitsherpa/pkg/logger"
)

// ErrPushBlocked indicates the push guard refused a ref update.
var ErrPushBlocked = errors.New("push blocked")

// PushBlockedError carries the ref and the reason a push was refused.
type PushBlockedError struct {
	Ref    string
	Reason Reason
	Detail string
}

// Error implements the error interface.
func (e *PushBlockedError) Error() string {
	return fmt.Sprintf("push to %s blocked (%s): %s", e.Ref, e.Reason, e.Detail)
}

// Unwrap allows errors.Is comparisons with ErrPushBlocked sentinel.
func (e *PushBlockedError) Unwrap() error {
	return ErrPushBlocked
}

// Ancestry answers whether one commit is reachable from another.
type Ancestry interface {
	IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error)
}

// Evaluate decides a single ref update. Tags and exempt branches always pass;
// protected branches are never updated or deleted; other branches accept
// fast-forwards only.
func Evaluate(ctx context.Context, p Policy, u RefUpdate, g Ancestry) error {
	branch := u.Branch()
	if u.IsTag() || branch == "" {
		return nil
	}
	if config.MatchBranch(p.Exempt, branch) {
		logger.Debug("Push guard exemption", logger.String("branch", branch))
		return nil
	}
	if config.MatchBranch(p.Protected, branch) {
		detail := "direct pushes to protected branches are not allowed"
		if u.IsDelete() {
			detail = "protected branches cannot be deleted"
		}
		return &PushBlockedError{Ref: u.RemoteRef, Reason: ReasonProtectedBranch, Detail: detail}
	}
	if u.IsDelete() || u.IsCreate() {
		return nil
	}

	ok, err := g.IsAncestor(ctx, u.RemoteOID, u.LocalOID)
	if err != nil {
		logger.Debug("Push guard ancestry lookup failed", logger.String("ref", u.RemoteRef), logger.Err(err))
		return &PushBlockedError{
			Ref:    u.RemoteRef,
			Reason: ReasonUnverifiable,
			Detail: fmt.Sprintf("remote commit %s is not available locally; fetch and retry", u.RemoteOID),
		}
	}
	if !ok {
		return &PushBlockedError{Ref: u.RemoteRef, Reason: ReasonForcePush, Detail: "update is not a fast-forward"}
	}
	return nil
}

// Check evaluates every update and joins the refusals.
func Check(ctx context.Context, p Policy, updates []RefUpdate, g Ancestry) error {
	var errs []error
	for _, u := range updates {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := Evaluate(ctx, p, u, g); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// IsPushBlocked reports whether err (or any joined error) is a push refusal.
func IsPushBlocked(err error) bool {
	return errors.Is(err, ErrPushBlocked)
}

// ParseRefUpdates reads pre-push input. Blank lines are ignored.
func ParseRefUpdates(r io.Reader) ([]RefUpdate, error) {
	var out []RefUpdate
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		f := strings.Fields(text)
		if len(f) != 4 {
			return nil, fmt.Errorf("line %d: expected 4 fields, got %d", line, len(f))
		}
		out = append(out, RefUpdate{LocalRef: f[0], LocalOID: f[1], RemoteRef: f[2], RemoteOID: f[3]})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read ref updates: %w", err)
	}
	return out, nil
}
