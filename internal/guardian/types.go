package guardian

import (
	"strings"

	"github.com/fulmenhq/gitsherpa/pkg/config"
)

// Reason classifies why a push was blocked.
type Reason string

const (
	// ReasonProtectedBranch blocks any update or deletion of a protected branch.
	ReasonProtectedBranch Reason = "protected-branch"
	// ReasonForcePush blocks updates that are not fast-forwards.
	ReasonForcePush Reason = "force-push"
	// ReasonUnverifiable blocks updates whose ancestry cannot be checked locally.
	ReasonUnverifiable Reason = "unverifiable"
)

// RefUpdate is one line of pre-push input:
// <local ref> <local oid> <remote ref> <remote oid>.
type RefUpdate struct {
	LocalRef  string
	LocalOID  string
	RemoteRef string
	RemoteOID string
}

// Branch returns the remote branch name, or "" when the ref is not a branch.
func (u RefUpdate) Branch() string {
	b, ok := strings.CutPrefix(u.RemoteRef, "refs/heads/")
	if !ok {
		return ""
	}
	return b
}

// IsTag reports whether the update targets a tag.
func (u RefUpdate) IsTag() bool { return strings.HasPrefix(u.RemoteRef, "refs/tags/") }

// IsDelete reports whether the push deletes the remote ref.
func (u RefUpdate) IsDelete() bool { return isZeroOID(u.LocalOID) }

// IsCreate reports whether the remote ref does not exist yet.
func (u RefUpdate) IsCreate() bool { return isZeroOID(u.RemoteOID) }

func isZeroOID(oid string) bool { return oid == "" || strings.Trim(oid, "0") == "" }

// Policy lists protected and exempt branch names or globs.
type Policy struct {
	Protected []string
	Exempt    []string
}

// PolicyFromConfig reads the push policy from [hooks].
func PolicyFromConfig(cfg *config.Config) Policy {
	return Policy{Protected: cfg.Hooks.ProtectedBranches, Exempt: cfg.Hooks.PushExempt}
}
