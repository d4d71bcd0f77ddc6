package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/gitsherpa/internal/check"
	"github.com/fulmenhq/gitsherpa/internal/repo"
	"github.com/fulmenhq/gitsherpa/internal/report"
	"github.com/fulmenhq/gitsherpa/pkg/exitcode"
	"github.com/fulmenhq/gitsherpa/pkg/logger"
)

// defaultCommitLimit bounds the commits reviewed per run.
const defaultCommitLimit = 50

type checkOptions struct {
	format      report.Format
	only        []string
	commitLimit int
}

func newCheckCmd(g *globalOptions) *cobra.Command {
	opts := &checkOptions{format: report.FormatHuman}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the repository against the hygiene policy",
		Long: `Check evaluates the current branch, the commits not yet pushed, the worktree,
upstream tracking and staged or tracked sensitive files.

Exits 3 when any error-severity problem is found; warnings never fail the run.

Examples:
   git-sherpa check
   git-sherpa check --only branch-naming,commit-convention
   git-sherpa check --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, g, opts)
		},
	}
	cmd.Flags().Var(&opts.format, "format", "Output format (human|json|yaml)")
	cmd.Flags().StringSliceVar(&opts.only, "only", nil, "Run only these checks (comma-separated)")
	cmd.Flags().IntVar(&opts.commitLimit, "commit-limit", defaultCommitLimit, "Maximum number of unpushed commits to review")
	return cmd
}

func runCheck(cmd *cobra.Command, g *globalOptions, opts *checkOptions) error {
	if err := check.ValidateOnly(opts.only); err != nil {
		return withCode(exitcode.GeneralError, err)
	}
	if opts.commitLimit < 0 {
		return withCode(exitcode.GeneralError, errors.New("--commit-limit must not be negative"))
	}

	s, err := openSession(g)
	if err != nil {
		return err
	}
	state, err := repo.Snapshot(cmd.Context(), s.repo, opts.commitLimit)
	if err != nil {
		return err
	}

	diags := check.Evaluate(s.cfg, state, check.Options{Only: opts.only})
	errs, warns := check.Count(diags)
	logger.Debug("Check finished", logger.Int("errors", errs), logger.Int("warnings", warns))

	if err := report.Diagnostics(cmd.OutOrStdout(), diags, g.reportOptions(cmd.OutOrStdout(), opts.format)); err != nil {
		return err
	}
	if check.HasErrors(diags) {
		return reported(exitcode.ValidationError, errViolations)
	}
	return nil
}
