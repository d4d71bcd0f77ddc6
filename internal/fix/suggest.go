package fix

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fulmenhq/gitsherpa/internal/check"
	"github.com/fulmenhq/gitsherpa/internal/repo"
)

// DefaultRemote is the remote SetUpstream fixes point at.
const DefaultRemote = "origin"

// Suggest returns one fix per diagnostic with a known corrective action,
// in diagnostic order.
func Suggest(diags []check.Diagnostic) []Fix {
	var out []Fix
	for i, d := range diags {
		if f, ok := suggestOne(i, d); ok {
			out = append(out, f)
		}
	}
	return out
}

func suggestOne(ref int, d check.Diagnostic) (Fix, bool) {
	switch d.Kind {
	case check.KindInvalidBranchName:
		to := NormalizeBranchName(d.Subject)
		return newFix(ref, RenameBranch{From: d.Subject, To: to},
			fmt.Sprintf("git branch -m %s %s", shellQuote(d.Subject), shellQuote(to))), true

	case check.KindInvalidCommitMessage:
		msg := SuggestSubject(d.Detail)
		if d.RuleID == check.RuleCommitHead {
			return newFix(ref, AmendCommitMessage{CommitID: d.Subject, Message: msg},
				fmt.Sprintf("git commit --amend -m %s", shellQuote(msg))), true
		}
		text := fmt.Sprintf("reword commit %s with an interactive rebase onto its parent, using a subject such as %q",
			short(d.Subject), msg)
		return manualFix(ref, text), true

	case check.KindDirtyWorktree:
		return manualFix(ref, "commit or stash your changes before pushing"), true

	case check.KindMissingUpstream:
		branch := d.Subject
		cmd := fmt.Sprintf("git config branch.%s.remote %s && git config branch.%s.merge refs/heads/%s",
			branch, DefaultRemote, branch, branch)
		return newFix(ref, SetUpstream{Branch: branch, Remote: DefaultRemote}, cmd), true

	case check.KindSensitiveFile:
		path := d.Subject
		if d.RuleID == check.RuleSensitiveStaged {
			return newFix(ref, UnstagePath{Path: path}, gitCommand(repo.UnstageArgs(path)...)), true
		}
		text := fmt.Sprintf("%s is already committed: remove it from the index while keeping the file, "+
			"add it to .gitignore, rewrite history if it was pushed, and rotate any exposed secret", path)
		return manualFix(ref, text), true
	}
	return Fix{}, false
}

// SuggestSubject proposes a conventional subject for a free-form one,
// e.g. "Fixed bug." becomes "fix: fixed bug".
func SuggestSubject(subject string) string {
	desc := strings.TrimSpace(subject)
	typ := ""
	if head, rest, ok := strings.Cut(desc, ":"); ok && head != "" && !strings.ContainsAny(head, " \t") {
		if i := strings.IndexByte(head, '('); i >= 0 {
			head = head[:i]
		}
		typ = typeWords[strings.ToLower(strings.TrimRight(head, "!"))]
		if d := strings.TrimSpace(rest); d != "" {
			desc = d
		}
	}
	desc = strings.TrimRight(desc, ".")
	if desc == "" {
		desc = "describe the change"
	}
	if typ == "" {
		typ = inferType(strings.ToLower(desc))
	}
	return typ + ": " + lowerFirst(desc)
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

func short(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}

// gitCommand renders git with args as a copy-pasteable shell command.
func gitCommand(args ...string) string {
	quoted := make([]string, 0, len(args)+1)
	quoted = append(quoted, "git")
	for _, a := range args {
		quoted = append(quoted, shellQuote(a))
	}
	return strings.Join(quoted, " ")
}

// shellQuote single-quotes s unless it is made of shell-safe characters.
func shellQuote(s string) string {
	if s != "" && strings.Trim(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_./=:@+,") == "" {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
