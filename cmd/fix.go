package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fulmenhq/gitsherpa/internal/check"
	"github.com/fulmenhq/gitsherpa/internal/fix"
	"github.com/fulmenhq/gitsherpa/internal/repo"
	"github.com/fulmenhq/gitsherpa/internal/report"
	"github.com/fulmenhq/gitsherpa/pkg/exitcode"
	"github.com/fulmenhq/gitsherpa/pkg/logger"
)

type fixOptions struct {
	format      report.Format
	apply       bool
	commitLimit int
}

func newFixCmd(g *globalOptions) *cobra.Command {
	opts := &fixOptions{format: report.FormatHuman}
	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Suggest fixes and optionally apply the safe ones",
		Long: `Fix runs every check and proposes a remedy per problem. Without --apply
nothing is changed. With --apply only safe fixes run (setting the upstream,
unstaging a sensitive file); branch renames and commit amends are always
left for you to run.

Exits 6 when any applied fix fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFix(cmd, g, opts)
		},
	}
	cmd.Flags().Var(&opts.format, "format", "Output format (human|json|yaml)")
	cmd.Flags().BoolVar(&opts.apply, "apply", false, "Apply safe fixes")
	cmd.Flags().IntVar(&opts.commitLimit, "commit-limit", defaultCommitLimit, "Maximum number of unpushed commits to review")
	return cmd
}

func runFix(cmd *cobra.Command, g *globalOptions, opts *fixOptions) error {
	s, err := openSession(g)
	if err != nil {
		return err
	}
	state, err := repo.Snapshot(cmd.Context(), s.repo, opts.commitLimit)
	if err != nil {
		return err
	}

	rep := report.FixReport{Diagnostics: check.Evaluate(s.cfg, state, check.Options{})}
	rep.Fixes = fix.Suggest(rep.Diagnostics)
	logger.Debug("Suggested fixes", logger.Int("count", len(rep.Fixes)))

	if opts.apply {
		rep.Outcomes = fix.Apply(cmd.Context(), rep.Fixes, s.repo)
	}

	if err := report.Fixes(cmd.OutOrStdout(), rep, g.reportOptions(cmd.OutOrStdout(), opts.format)); err != nil {
		return err
	}
	if opts.apply && fix.Failed(rep.Outcomes) {
		return reported(exitcode.ApplyError, errApplyFailed)
	}
	return nil
}
