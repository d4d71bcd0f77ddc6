package cmd

import (
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"github.com/fulmenhq/gitsherpa/internal/repo"
	"github.com/fulmenhq/gitsherpa/internal/report"
	"github.com/fulmenhq/gitsherpa/pkg/config"
	"github.com/fulmenhq/gitsherpa/pkg/logger"
)

// session is the repository and policy a command operates on.
type session struct {
	repo *repo.GitRepo
	cfg  *config.Config
}

// configPathFor resolves --config. Relative paths are taken from the
// working directory, as git does for -C.
func (o *globalOptions) configPathFor(root string) string {
	if o.configPath == "" {
		return filepath.Join(root, config.DefaultPath)
	}
	return o.configPath
}

func openSession(opts *globalOptions) (*session, error) {
	r, err := repo.Open(opts.repoDir)
	if err != nil {
		return nil, err
	}
	path := opts.configPathFor(r.Root())
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("Loaded configuration", logger.String("path", path), logger.String("root", r.Root()))
	return &session{repo: r, cfg: cfg}, nil
}

func (o *globalOptions) reportOptions(w io.Writer, format report.Format) report.Options {
	return report.Options{Format: format, Color: colorEnabled(w, o.noColor)}
}

// colorEnabled is true only for terminals, and never with --no-color or NO_COLOR.
func colorEnabled(w io.Writer, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
