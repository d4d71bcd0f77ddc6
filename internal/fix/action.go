// Package fix maps diagnostics to corrective actions and applies the ones
// classified as safe.
package fix

// ActionKind names a corrective action.
type ActionKind string

const (
	ActionRenameBranch       ActionKind = "RenameBranch"
	ActionSetUpstream        ActionKind = "SetUpstream"
	ActionAmendCommitMessage ActionKind = "AmendCommitMessage"
	ActionUnstagePath        ActionKind = "UnstagePath"
	ActionManualInstruction  ActionKind = "ManualInstruction"
)

// safeActions is the auto-apply whitelist. Renames and history rewrites are
// deliberately absent.
var safeActions = map[ActionKind]bool{
	ActionSetUpstream: true,
	ActionUnstagePath: true,
}

// IsSafe reports whether an action kind may be auto-applied.
func IsSafe(k ActionKind) bool { return safeActions[k] }

// Action carries the typed parameters of a fix. The set of variants is closed.
type Action interface {
	Kind() ActionKind
	isAction()
}

// RenameBranch renames the current branch.
type RenameBranch struct {
	From string
	To   string
}

// SetUpstream records <Remote>/<Branch> as the branch upstream.
type SetUpstream struct {
	Branch string
	Remote string
}

// AmendCommitMessage rewrites the HEAD commit subject.
type AmendCommitMessage struct {
	CommitID string
	Message  string
}

// UnstagePath removes a newly added path from the index, keeping the file.
type UnstagePath struct {
	Path string
}

// ManualInstruction is guidance only; it is never executed.
type ManualInstruction struct {
	Text string
}

func (RenameBranch) Kind() ActionKind       { return ActionRenameBranch }
func (SetUpstream) Kind() ActionKind        { return ActionSetUpstream }
func (AmendCommitMessage) Kind() ActionKind { return ActionAmendCommitMessage }
func (UnstagePath) Kind() ActionKind        { return ActionUnstagePath }
func (ManualInstruction) Kind() ActionKind  { return ActionManualInstruction }

func (RenameBranch) isAction()       {}
func (SetUpstream) isAction()        {}
func (AmendCommitMessage) isAction() {}
func (UnstagePath) isAction()        {}
func (ManualInstruction) isAction()  {}

// Fix is a suggested correction for one diagnostic. For ManualInstruction
// fixes CommandTemplate holds the guidance text, not a command.
type Fix struct {
	DiagnosticRef   int        `json:"diagnostic_ref" yaml:"diagnostic_ref"`
	Action          ActionKind `json:"action" yaml:"action"`
	CommandTemplate string     `json:"command_template" yaml:"command_template"`
	Safe            bool       `json:"safe" yaml:"safe"`

	Params Action `json:"-" yaml:"-"`
}

func newFix(ref int, a Action, command string) Fix {
	return Fix{
		DiagnosticRef:   ref,
		Action:          a.Kind(),
		CommandTemplate: command,
		Safe:            IsSafe(a.Kind()),
		Params:          a,
	}
}

func manualFix(ref int, text string) Fix {
	return newFix(ref, ManualInstruction{Text: text}, text)
}
