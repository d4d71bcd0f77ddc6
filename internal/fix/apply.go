package fix

import (
	"context"
	"fmt"

	"github.com/fulmenhq/gitsherpa/internal/repo"
	"github.com/fulmenhq/gitsherpa/pkg/logger"
)

// Result of applying one fix.
type Result string

const (
	ResultApplied Result = "applied"
	ResultSkipped Result = "skipped"
	ResultFailed  Result = "failed"
)

// Skip reasons.
const (
	ReasonNotSafe   = "not safe for auto-apply"
	ReasonCancelled = "cancelled"
)

// Outcome records what happened to fixes[FixRef].
type Outcome struct {
	FixRef int    `json:"fix_ref" yaml:"fix_ref"`
	Result Result `json:"result" yaml:"result"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether any outcome failed.
func Failed(outcomes []Outcome) bool {
	for _, o := range outcomes {
		if o.Result == ResultFailed {
			return true
		}
	}
	return false
}

// Apply executes safe fixes in order through m. Unsafe fixes are skipped, a
// failure does not stop later fixes, and nothing is rolled back. Cancellation
// is observed between fixes only.
func Apply(ctx context.Context, fixes []Fix, m repo.Mutator) []Outcome {
	out := make([]Outcome, 0, len(fixes))
	for i, f := range fixes {
		if ctx.Err() != nil {
			out = append(out, Outcome{FixRef: i, Result: ResultSkipped, Reason: ReasonCancelled})
			continue
		}
		if !f.Safe || f.Params == nil || !IsSafe(f.Params.Kind()) {
			out = append(out, Outcome{FixRef: i, Result: ResultSkipped, Reason: ReasonNotSafe})
			continue
		}
		if err := execute(ctx, f.Params, m); err != nil {
			logger.Error("Fix failed", logger.String("action", string(f.Action)), logger.Err(err))
			out = append(out, Outcome{FixRef: i, Result: ResultFailed, Error: err.Error()})
			continue
		}
		logger.Info("Fix applied", logger.String("action", string(f.Action)), logger.String("command", f.CommandTemplate))
		out = append(out, Outcome{FixRef: i, Result: ResultApplied})
	}
	return out
}

func execute(ctx context.Context, a Action, m repo.Mutator) error {
	switch p := a.(type) {
	case SetUpstream:
		return m.SetUpstream(ctx, p.Branch, p.Remote)
	case UnstagePath:
		return m.Unstage(ctx, p.Path)
	case RenameBranch:
		return m.RenameBranch(ctx, p.From, p.To)
	case AmendCommitMessage:
		return m.AmendCommitMessage(ctx, p.Message)
	default:
		return fmt.Errorf("action %s cannot be executed", a.Kind())
	}
}
