/*
Copyright © 2025 3 Leaps <info@3leaps.com>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/gitsherpa/internal/ops"
	"github.com/fulmenhq/gitsherpa/pkg/buildinfo"
	"github.com/fulmenhq/gitsherpa/pkg/exitcode"
	"github.com/fulmenhq/gitsherpa/pkg/logger"
)

// globalOptions are bound to the persistent flags of one command tree.
type globalOptions struct {
	configPath string
	repoDir    string
	noColor    bool
}

// newRootCommand creates a fresh command tree. Commands are registered with
// reg so help output can group them; tests pass a private registry.
func newRootCommand(reg *ops.Registry) *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:   "git-sherpa",
		Short: "Git hygiene checks, fixes and hooks",
		Long: `git-sherpa checks a repository against a hygiene policy: branch names,
commit subjects, worktree state, upstream tracking and sensitive files.

Examples:
   git-sherpa init                 # Scaffold .gitsherpa.toml
   git-sherpa check                # Report problems
   git-sherpa fix --apply          # Apply the safe fixes
   git-sherpa hooks install        # Install pre-commit and pre-push hooks`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initializeLogger(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default: .gitsherpa.toml at the repository root)")
	cmd.PersistentFlags().StringVarP(&opts.repoDir, "repo", "C", ".", "Run as if started in this directory")
	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	cmd.Version = buildinfo.Version()
	cmd.SetVersionTemplate("git-sherpa {{.Version}}\n")

	registerSubcommands(cmd, reg, opts)
	reg.ApplyGroups(cmd)
	return cmd
}

// registerSubcommands attaches every subcommand to root and records it in reg.
func registerSubcommands(root *cobra.Command, reg *ops.Registry, opts *globalOptions) {
	subcommands := []struct {
		group ops.CommandGroup
		cmd   *cobra.Command
	}{
		{ops.GroupHygiene, newCheckCmd(opts)},
		{ops.GroupHygiene, newFixCmd(opts)},
		{ops.GroupHooks, newHooksCmd(opts)},
		{ops.GroupSupport, newInitCmd(opts)},
		{ops.GroupSupport, newVersionCmd()},
	}
	for _, s := range subcommands {
		root.AddCommand(s.cmd)
		if err := reg.Register(s.cmd.Name(), s.group, s.cmd, s.cmd.Short); err != nil {
			panic(fmt.Sprintf("Failed to register %s command: %v", s.cmd.Name(), err))
		}
	}
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand(ops.GetRegistry())

// Execute runs the root command and exits with the code mapped from its error.
// This is called by main.main().
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, rootCmd, os.Args[1:])
	cancel()
	os.Exit(code)
}

func execute(ctx context.Context, root *cobra.Command, args []string) int {
	root.SetArgs(args)
	c, err := root.ExecuteContextC(ctx)
	if err == nil {
		return exitcode.Success
	}
	return reportError(c, err)
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) error {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	// fix without --apply never mutates the repository
	dryRun := false
	if f := cmd.Flags().Lookup("apply"); f != nil {
		dryRun = f.Value.String() == "false"
	}

	config := logger.Config{
		Level:     logger.ParseLevel(logLevelStr),
		UseColor:  colorEnabled(cmd.ErrOrStderr(), noColor),
		JSON:      jsonLogs,
		Component: "git-sherpa",
		DryRun:    dryRun,
		Output:    cmd.ErrOrStderr(),
	}

	if err := logger.Initialize(config); err != nil {
		return withCode(exitcode.ConfigError, fmt.Errorf("failed to initialize logger: %w", err))
	}
	return nil
}
