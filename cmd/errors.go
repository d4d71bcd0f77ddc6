package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/gitsherpa/internal/guardian"
	"github.com/fulmenhq/gitsherpa/internal/hooks"
	"github.com/fulmenhq/gitsherpa/internal/repo"
	"github.com/fulmenhq/gitsherpa/internal/report"
	"github.com/fulmenhq/gitsherpa/pkg/config"
	"github.com/fulmenhq/gitsherpa/pkg/exitcode"
	"github.com/fulmenhq/gitsherpa/pkg/logger"
)

// Error types used in the JSON error envelope.
const (
	errTypeConfig       = "ConfigError"
	errTypeRepository   = "RepositoryError"
	errTypeHookConflict = "HookConflictError"
	errTypeApply        = "ApplyError"
	errTypeValidation   = "ValidationError"
	errTypePushBlocked  = "PushBlocked"
	errTypeGeneral      = "GeneralError"
)

var (
	errViolations  = errors.New("hygiene check failed")
	errApplyFailed = errors.New("one or more fixes failed to apply")
)

// exitError pins an exit code to an error. reported marks errors whose
// details already went to stdout, so no envelope follows a machine report.
type exitError struct {
	code     int
	err      error
	reported bool
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

func reported(code int, err error) error {
	return &exitError{code: code, err: err, reported: true}
}

// classify maps an error to its exit code and envelope type.
func classify(err error) (int, string) {
	var cerr *config.Error
	var rerr *repo.Error
	var herr *hooks.ConflictError
	switch {
	case errors.As(err, &herr):
		return exitcode.HookConflict, errTypeHookConflict
	case errors.Is(err, errApplyFailed):
		return exitcode.ApplyError, errTypeApply
	case errors.Is(err, errViolations):
		return exitcode.ValidationError, errTypeValidation
	case errors.As(err, &cerr):
		return exitcode.ConfigError, errTypeConfig
	case errors.As(err, &rerr):
		return exitcode.RepositoryError, errTypeRepository
	case guardian.IsPushBlocked(err):
		return exitcode.GeneralError, errTypePushBlocked
	}
	var xerr *exitError
	if errors.As(err, &xerr) {
		return xerr.code, typeForCode(xerr.code)
	}
	return exitcode.GeneralError, errTypeGeneral
}

func typeForCode(code int) string {
	switch code {
	case exitcode.ConfigError:
		return errTypeConfig
	case exitcode.RepositoryError:
		return errTypeRepository
	case exitcode.HookConflict:
		return errTypeHookConflict
	case exitcode.ApplyError:
		return errTypeApply
	case exitcode.ValidationError:
		return errTypeValidation
	}
	return errTypeGeneral
}

// reportError prints err for the command that produced it and returns the
// process exit code. Commands with --format json|yaml get the error envelope
// on stdout; everything else goes to stderr.
func reportError(c *cobra.Command, err error) int {
	code, errType := classify(err)
	var xerr *exitError
	if errors.As(err, &xerr) {
		code = xerr.code
	}

	format := commandFormat(c)
	logger.Debug("Command failed", logger.String("type", errType), logger.Int("exit_code", code), logger.Err(err))

	switch {
	case format.IsMachine() && xerr != nil && xerr.reported:
		// the report on stdout already carries the failure
	case format.IsMachine():
		_ = report.Error(c.OutOrStdout(), errType, err, report.Options{Format: format})
	default:
		noColor, _ := c.Flags().GetBool("no-color")
		_ = report.Error(c.ErrOrStderr(), errType, err, report.Options{Color: colorEnabled(c.ErrOrStderr(), noColor)})
	}
	return code
}

func commandFormat(c *cobra.Command) report.Format {
	if c == nil {
		return report.FormatHuman
	}
	f := c.Flags().Lookup("format")
	if f == nil {
		return report.FormatHuman
	}
	format, err := report.ParseFormat(f.Value.String())
	if err != nil {
		return report.FormatHuman
	}
	return format
}
