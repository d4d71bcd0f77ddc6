// Package exitcode provides standardized exit codes for git-sherpa
package exitcode

// Exit codes for git-sherpa CLI
const (
	Success         = 0
	GeneralError    = 1
	ConfigError     = 2
	ValidationError = 3 // check found error-severity diagnostics
	FileSystemError = 4
	RepositoryError = 5
	ApplyError      = 6 // fix --apply recorded at least one failed outcome
	HookConflict    = 7
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case ValidationError:
		return "Hygiene violations found"
	case FileSystemError:
		return "File system error"
	case RepositoryError:
		return "Repository error"
	case ApplyError:
		return "Fix application failed"
	case HookConflict:
		return "Hook conflict"
	default:
		return "Unknown error"
	}
}
