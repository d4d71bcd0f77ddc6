package check

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fulmenhq/gitsherpa/internal/repo"
	"github.com/fulmenhq/gitsherpa/pkg/config"
)

func checkBranchNaming(cfg *config.Config, st repo.State) ([]Diagnostic, error) {
	if st.Detached || st.Branch == "" || cfg.IsProtected(st.Branch) {
		return nil, nil
	}
	re := cfg.BranchPattern()
	if re == nil {
		return nil, fmt.Errorf("branch pattern not compiled")
	}
	if re.MatchString(st.Branch) {
		return nil, nil
	}
	return []Diagnostic{{
		Kind:     KindInvalidBranchName,
		Severity: SeverityError,
		Subject:  st.Branch,
		Message:  fmt.Sprintf("branch %q does not match pattern %s", st.Branch, cfg.Branches.Pattern),
		RuleID:   RuleBranchNaming,
	}}, nil
}

func checkCommitConvention(cfg *config.Config, st repo.State) ([]Diagnostic, error) {
	if len(st.Commits) == 0 {
		return nil, nil
	}
	conv, ok := LookupConvention(cfg.Commits.Convention)
	if !ok {
		return nil, fmt.Errorf("unknown commit convention %q (registered: %s)", cfg.Commits.Convention, strings.Join(Conventions(), ", "))
	}
	var out []Diagnostic
	for _, c := range st.Commits {
		if cfg.Commits.IgnoreMerges && c.IsMerge() {
			continue
		}
		err := conv.ValidateSubject(c.Subject)
		if err == nil {
			continue
		}
		ruleID := RuleCommitConvention
		if st.HeadID != "" && c.ID == st.HeadID {
			ruleID = RuleCommitHead
		}
		out = append(out, Diagnostic{
			Kind:     KindInvalidCommitMessage,
			Severity: SeverityError,
			Subject:  c.ID,
			Message:  fmt.Sprintf("commit %s subject %q: %v", shortID(c.ID), c.Subject, err),
			RuleID:   ruleID,
			Detail:   c.Subject,
		})
	}
	return out, nil
}

func checkWorktreeClean(cfg *config.Config, st repo.State) ([]Diagnostic, error) {
	if !cfg.Checks.RequireCleanWorktree {
		return nil, nil
	}
	dirty := st.Dirty || (cfg.Checks.IncludeUntracked && len(st.Untracked) > 0)
	if !dirty {
		return nil, nil
	}
	msg := "worktree has uncommitted changes"
	if cfg.Checks.IncludeUntracked && len(st.Untracked) > 0 && !st.Dirty {
		msg = fmt.Sprintf("worktree has %d untracked file(s)", len(st.Untracked))
	}
	return []Diagnostic{{
		Kind:     KindDirtyWorktree,
		Severity: SeverityWarning,
		Subject:  WorktreeSubject,
		Message:  msg,
		RuleID:   RuleWorktreeClean,
	}}, nil
}

func checkUpstream(cfg *config.Config, st repo.State) ([]Diagnostic, error) {
	if !cfg.Checks.RequireUpstream || st.Detached || st.Branch == "" || st.HasUpstream() {
		return nil, nil
	}
	return []Diagnostic{{
		Kind:     KindMissingUpstream,
		Severity: SeverityError,
		Subject:  st.Branch,
		Message:  fmt.Sprintf("branch %q has no upstream configured", st.Branch),
		RuleID:   RuleUpstream,
	}}, nil
}

func checkSensitiveFiles(cfg *config.Config, st repo.State) ([]Diagnostic, error) {
	patterns := cfg.SensitivePatterns()
	if len(patterns) == 0 {
		return nil, nil
	}
	paths := unionSorted(st.Tracked, st.Staged)
	var out []Diagnostic
	for _, p := range paths {
		for _, pat := range patterns {
			if !pat.Match(p) {
				continue
			}
			d := Diagnostic{
				Kind:     KindSensitiveFile,
				Severity: SeverityError,
				Subject:  p,
				RuleID:   RuleSensitiveTracked,
				Message:  fmt.Sprintf("%s matches sensitive pattern %q and is tracked", p, pat.String()),
				Detail:   pat.String(),
			}
			if st.IsAdded(p) {
				d.RuleID = RuleSensitiveStaged
				d.Message = fmt.Sprintf("%s matches sensitive pattern %q and is staged", p, pat.String())
			}
			out = append(out, d)
			break
		}
	}
	return out, nil
}

func unionSorted(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		set[s] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func shortID(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}
