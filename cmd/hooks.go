/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/gitsherpa/internal/guardian"
	"github.com/fulmenhq/gitsherpa/internal/hooks"
	"github.com/fulmenhq/gitsherpa/internal/report"
	"github.com/fulmenhq/gitsherpa/pkg/buildinfo"
	"github.com/fulmenhq/gitsherpa/pkg/config"
	"github.com/fulmenhq/gitsherpa/pkg/exitcode"
	"github.com/fulmenhq/gitsherpa/pkg/logger"
)

// hookSelectAll selects every supported hook.
const hookSelectAll = "all"

type hooksOptions struct {
	format     report.Format
	hook       string
	invocation string
}

func newHooksCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hooks",
		Short: "Manage git-sherpa git hooks",
		Long: `Install, remove and inspect the generated pre-commit and pre-push hooks.

Hooks already present and not written by git-sherpa are moved to
<hook>.gitsherpa-backup on install and restored on uninstall.`,
	}

	install := &cobra.Command{
		Use:   "install",
		Short: "Install generated hooks",
		Args:  cobra.NoArgs,
	}
	installOpts := bindHookFlags(install, true)
	install.RunE = func(cmd *cobra.Command, _ []string) error {
		return runHooks(cmd, g, installOpts, (*hooks.Manager).InstallAll, func(cfg *config.Config) []string {
			return cfg.Hooks.Enabled
		})
	}

	uninstall := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove generated hooks and restore backups",
		Args:  cobra.NoArgs,
	}
	uninstallOpts := bindHookFlags(uninstall, false)
	uninstall.RunE = func(cmd *cobra.Command, _ []string) error {
		return runHooks(cmd, g, uninstallOpts, (*hooks.Manager).UninstallAll, allHooks)
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the state of each hook slot",
		Args:  cobra.NoArgs,
	}
	statusOpts := bindHookFlags(status, false)
	status.RunE = func(cmd *cobra.Command, _ []string) error {
		return runHooks(cmd, g, statusOpts, (*hooks.Manager).StatusAll, allHooks)
	}

	guard := &cobra.Command{
		Use:    "guard-push [remote] [url]",
		Short:  "Evaluate pre-push ref updates read from stdin",
		Hidden: true,
		Args:   cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGuardPush(cmd, g, args)
		},
	}

	cmd.AddCommand(install, uninstall, status, guard)
	return cmd
}

func bindHookFlags(cmd *cobra.Command, withInvoke bool) *hooksOptions {
	opts := &hooksOptions{format: report.FormatHuman}
	cmd.Flags().Var(&opts.format, "format", "Output format (human|json|yaml)")
	cmd.Flags().StringVar(&opts.hook, "hook", "", "Hook to operate on (pre-commit|pre-push|all)")
	if withInvoke {
		cmd.Flags().StringVar(&opts.invocation, "invoke", hooks.DefaultInvocation, "Command the hooks run to re-invoke git-sherpa")
	}
	return opts
}

func allHooks(*config.Config) []string { return config.AllHooks }

// selectHooks resolves --hook. Empty selects the command's default set.
func selectHooks(flag string, defaults []string) ([]string, error) {
	switch flag {
	case "":
		return defaults, nil
	case hookSelectAll:
		return config.AllHooks, nil
	}
	if !slices.Contains(config.AllHooks, flag) {
		return nil, fmt.Errorf("%w: %q (want pre-commit, pre-push or all)", hooks.ErrUnknownHook, flag)
	}
	return []string{flag}, nil
}

type hookBatch func(m *hooks.Manager, names []string) ([]hooks.Descriptor, error)

func runHooks(cmd *cobra.Command, g *globalOptions, opts *hooksOptions, op hookBatch, defaults func(*config.Config) []string) error {
	s, err := openSession(g)
	if err != nil {
		return err
	}
	names, err := selectHooks(opts.hook, defaults(s.cfg))
	if err != nil {
		return withCode(exitcode.GeneralError, err)
	}

	dir, err := s.repo.HooksDir(cmd.Context())
	if err != nil {
		return err
	}
	m, err := hooks.NewManager(dir, hooks.DataFromConfig(s.cfg, opts.invocation, buildinfo.Version()))
	if err != nil {
		return withCode(exitcode.FileSystemError, err)
	}

	ds, batchErr := op(m, names)
	for _, d := range ds {
		logger.Debug("Hook", logger.String("name", d.Name), logger.String("state", string(d.State)), logger.String("action", string(d.Action)))
	}
	if err := report.Hooks(cmd.OutOrStdout(), ds, g.reportOptions(cmd.OutOrStdout(), opts.format)); err != nil {
		return err
	}
	if batchErr != nil {
		code, _ := classify(batchErr)
		return reported(code, batchErr)
	}
	return nil
}

func runGuardPush(cmd *cobra.Command, g *globalOptions, args []string) error {
	s, err := openSession(g)
	if err != nil {
		return err
	}
	updates, err := guardian.ParseRefUpdates(cmd.InOrStdin())
	if err != nil {
		return withCode(exitcode.GeneralError, err)
	}

	remote := ""
	if len(args) > 0 {
		remote = args[0]
	}
	logger.Debug("Evaluating push", logger.String("remote", remote), logger.Int("updates", len(updates)))

	if err := guardian.Check(cmd.Context(), guardian.PolicyFromConfig(s.cfg), updates, s.repo); err != nil {
		return withCode(exitcode.GeneralError, err)
	}
	return nil
}
