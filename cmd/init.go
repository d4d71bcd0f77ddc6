package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/gitsherpa/internal/repo"
	"github.com/fulmenhq/gitsherpa/pkg/config"
	"github.com/fulmenhq/gitsherpa/pkg/exitcode"
	"github.com/fulmenhq/gitsherpa/pkg/logger"
	"github.com/fulmenhq/gitsherpa/pkg/safeio"
)

const scriptsReadme = `# .gitsherpa

Repository-local support files for git-sherpa.

The policy itself lives in .gitsherpa.toml at the repository root. Run
'git-sherpa hooks install' to generate the pre-commit and pre-push hooks;
they call back into 'git-sherpa check' and are safe to regenerate.
`

func newInitCmd(g *globalOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold .gitsherpa.toml and the .gitsherpa directory",
		Long: `Init writes a commented default configuration to the repository root and
creates the .gitsherpa support directory. Existing files are left alone
unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, g, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	return cmd
}

func runInit(cmd *cobra.Command, g *globalOptions, force bool) error {
	r, err := repo.Open(g.repoDir)
	if err != nil {
		return err
	}
	body, err := config.RenderDefault()
	if err != nil {
		return err
	}

	cfgPath := g.configPathFor(r.Root())
	readmePath := filepath.Join(r.Root(), config.ScriptsDir, "README.md")
	files := []struct {
		path string
		data []byte
	}{
		{cfgPath, body},
		{readmePath, []byte(scriptsReadme)},
	}

	if !force {
		for _, f := range files {
			exists, err := safeio.Exists(f.path)
			if err != nil {
				return withCode(exitcode.FileSystemError, err)
			}
			if exists {
				return withCode(exitcode.FileSystemError, fmt.Errorf("%s already exists (use --force to overwrite)", f.path))
			}
		}
	}

	for _, f := range files {
		if err := safeio.WriteFileAtomic(f.path, f.data); err != nil {
			return withCode(exitcode.FileSystemError, err)
		}
		logger.Info("Wrote file", logger.String("path", f.path))
		fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", f.path)
	}
	return nil
}
