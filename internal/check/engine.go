// Package check is the rule engine: a pure evaluation of configuration and a
// repository snapshot into an ordered list of diagnostics.
package check

import (
	"fmt"
	"slices"

	"github.com/fulmenhq/gitsherpa/internal/repo"
	"github.com/fulmenhq/gitsherpa/pkg/config"
	"github.com/fulmenhq/gitsherpa/pkg/logger"
)

// Options narrow a single evaluation.
type Options struct {
	// Only restricts evaluation to these check ids. Empty means every enabled check.
	Only []string
}

type rule struct {
	id  string
	run func(*config.Config, repo.State) ([]Diagnostic, error)
}

// rules run in this order; output order depends on it.
var rules = []rule{
	{config.CheckBranchNaming, checkBranchNaming},
	{config.CheckCommitConvention, checkCommitConvention},
	{config.CheckWorktreeClean, checkWorktreeClean},
	{config.CheckUpstream, checkUpstream},
	{config.CheckSensitiveFiles, checkSensitiveFiles},
}

// Evaluate runs every enabled check against state. A check that errors or
// panics is logged and skipped; the others still run.
func Evaluate(cfg *config.Config, state repo.State, opts Options) []Diagnostic {
	var out []Diagnostic
	for _, r := range rules {
		if !cfg.CheckEnabled(r.id) {
			logger.Debug("Check disabled by config", logger.String("check", r.id))
			continue
		}
		if len(opts.Only) > 0 && !slices.Contains(opts.Only, r.id) {
			continue
		}
		diags, err := runRule(r, cfg, state)
		if err != nil {
			logger.Warn("Check could not be applied", logger.String("check", r.id), logger.Err(err))
			continue
		}
		logger.Trace("Check finished", logger.String("check", r.id), logger.Int("diagnostics", len(diags)))
		out = append(out, diags...)
	}
	return out
}

func runRule(r rule, cfg *config.Config, state repo.State) (diags []Diagnostic, err error) {
	defer func() {
		if p := recover(); p != nil {
			diags = nil
			err = fmt.Errorf("check %s panicked: %v", r.id, p)
		}
	}()
	return r.run(cfg, state)
}

// ValidateOnly rejects unknown ids passed to --only.
func ValidateOnly(ids []string) error {
	for _, id := range ids {
		if !slices.Contains(config.AllChecks, id) {
			return fmt.Errorf("unknown check %q (known: %v)", id, config.AllChecks)
		}
	}
	return nil
}
