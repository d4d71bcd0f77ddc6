package check

// Kind classifies a diagnostic.
type Kind string

const (
	KindInvalidBranchName    Kind = "InvalidBranchName"
	KindInvalidCommitMessage Kind = "InvalidCommitMessage"
	KindDirtyWorktree        Kind = "DirtyWorktree"
	KindMissingUpstream      Kind = "MissingUpstream"
	KindSensitiveFile        Kind = "SensitiveFile"
)

// Severity of a diagnostic. Only errors affect the exit status.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Rule ids as reported in Diagnostic.RuleID. The qualified forms carry the
// context the fix engine needs without access to repository state.
const (
	RuleBranchNaming     = "branch-naming"
	RuleCommitConvention = "commit-convention"
	RuleCommitHead       = "commit-convention/head"
	RuleWorktreeClean    = "worktree-clean"
	RuleUpstream         = "upstream"
	RuleSensitiveStaged  = "sensitive-files/staged"
	RuleSensitiveTracked = "sensitive-files/tracked"
)

// WorktreeSubject is the subject of the single DirtyWorktree diagnostic.
const WorktreeSubject = "worktree"

// Diagnostic is a single reported hygiene violation.
type Diagnostic struct {
	Kind     Kind     `json:"kind" yaml:"kind"`
	Severity Severity `json:"severity" yaml:"severity"`
	Subject  string   `json:"subject" yaml:"subject"`
	Message  string   `json:"message" yaml:"message"`
	RuleID   string   `json:"rule_id" yaml:"rule_id"`

	// Detail is the offending value behind the message: the commit subject
	// or the matched sensitive pattern. Not part of the output.
	Detail string `json:"-" yaml:"-"`
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Count returns the number of error and warning diagnostics.
func Count(diags []Diagnostic) (errors, warnings int) {
	for _, d := range diags {
		switch d.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		}
	}
	return errors, warnings
}
