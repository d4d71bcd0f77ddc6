package check

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulmenhq/gitsherpa/internal/repo"
	"github.com/fulmenhq/gitsherpa/pkg/config"
)

const (
	idA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	idB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	idC = "cccccccccccccccccccccccccccccccccccccccc"
)

func cleanState(branch string) repo.State {
	return repo.State{Branch: branch, Upstream: "origin/" + branch, HeadID: idC}
}

func kinds(diags []Diagnostic) []Kind {
	out := make([]Kind, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Kind)
	}
	return out
}

func TestBranchNamingScenario(t *testing.T) {
	diags := Evaluate(config.Default(), cleanState("wip-stuff"), Options{})

	require.Len(t, diags, 1)
	assert.Equal(t, KindInvalidBranchName, diags[0].Kind)
	assert.Equal(t, SeverityError, diags[0].Severity)
	assert.Equal(t, "wip-stuff", diags[0].Subject)
	assert.Equal(t, RuleBranchNaming, diags[0].RuleID)
}

func TestBranchNamingFullMatch(t *testing.T) {
	cfg := config.Default()

	assert.Empty(t, Evaluate(cfg, cleanState("feat/login-form"), Options{}))
	// an unanchored regex still requires the whole name to match
	cfg.Branches.Pattern = "feat/[a-z]+"
	require.NoError(t, cfg.Compile())
	assert.Len(t, Evaluate(cfg, cleanState("xfeat/login"), Options{}), 1)
}

func TestProtectedBranchExempt(t *testing.T) {
	cfg := config.Default()
	assert.Empty(t, Evaluate(cfg, cleanState("main"), Options{}))

	cfg.Hooks.ProtectedBranches = []string{"release/*"}
	assert.Empty(t, Evaluate(cfg, cleanState("release/1.0"), Options{}))
}

func TestDetachedHeadSkipsBranchAndUpstream(t *testing.T) {
	st := repo.State{Detached: true, HeadID: idC}
	assert.Empty(t, Evaluate(config.Default(), st, Options{}))
}

func TestCommitConventionScenario(t *testing.T) {
	st := cleanState("feat/x")
	st.Commits = []repo.Commit{
		{ID: idA, Subject: "fixed bug"},
		{ID: idB, Subject: "fix: resolve null pointer"},
	}
	st.HeadID = idB

	diags := Evaluate(config.Default(), st, Options{})
	require.Len(t, diags, 1)
	assert.Equal(t, KindInvalidCommitMessage, diags[0].Kind)
	assert.Equal(t, idA, diags[0].Subject)
	assert.Equal(t, RuleCommitConvention, diags[0].RuleID)
	assert.Contains(t, diags[0].Message, "aaaaaaa")
}

func TestCommitConventionMarksHead(t *testing.T) {
	st := cleanState("feat/x")
	st.Commits = []repo.Commit{{ID: idA, Subject: "bad one"}, {ID: idB, Subject: "also bad"}}
	st.HeadID = idB

	diags := Evaluate(config.Default(), st, Options{})
	require.Len(t, diags, 2)
	assert.Equal(t, []string{idA, idB}, []string{diags[0].Subject, diags[1].Subject})
	assert.Equal(t, RuleCommitConvention, diags[0].RuleID)
	assert.Equal(t, RuleCommitHead, diags[1].RuleID)
}

func TestCommitConventionMerges(t *testing.T) {
	st := cleanState("feat/x")
	st.Commits = []repo.Commit{{ID: idA, Subject: "Merge branch 'main'", Parents: []string{idB, idC}}}

	cfg := config.Default()
	assert.Empty(t, Evaluate(cfg, st, Options{}))

	cfg.Commits.IgnoreMerges = false
	assert.Len(t, Evaluate(cfg, st, Options{}), 1)
}

func TestConventionalSubjects(t *testing.T) {
	tests := []struct {
		subject string
		valid   bool
	}{
		{"feat: add login", true},
		{"fix(api): handle nil", true},
		{"refactor(core/db)!: drop v1", true},
		{"ci!: switch runners", true},
		{"fixed bug", false},
		{"Feat: add login", false},
		{"feat:missing space", false},
		{"feat():  empty scope", false},
		{"feat: ", false},
		{"feat:  ", false},
		{"wip: later", false},
		{"", false},
	}
	conv, ok := LookupConvention(config.ConventionConventional)
	require.True(t, ok)

	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			err := conv.ValidateSubject(tt.subject)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestWorktreeWarning(t *testing.T) {
	st := cleanState("feat/x")
	st.Dirty = true

	diags := Evaluate(config.Default(), st, Options{})
	require.Len(t, diags, 1)
	assert.Equal(t, KindDirtyWorktree, diags[0].Kind)
	assert.Equal(t, SeverityWarning, diags[0].Severity)
	assert.False(t, HasErrors(diags))
}

func TestWorktreeUntracked(t *testing.T) {
	st := cleanState("feat/x")
	st.Untracked = []string{"scratch.txt"}
	cfg := config.Default()

	assert.Empty(t, Evaluate(cfg, st, Options{}))

	cfg.Checks.IncludeUntracked = true
	diags := Evaluate(cfg, st, Options{})
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "untracked")
}

func TestMissingUpstream(t *testing.T) {
	st := cleanState("feat/x")
	st.Upstream = ""

	diags := Evaluate(config.Default(), st, Options{})
	require.Len(t, diags, 1)
	assert.Equal(t, KindMissingUpstream, diags[0].Kind)
	assert.Equal(t, "feat/x", diags[0].Subject)

	cfg := config.Default()
	cfg.Checks.RequireUpstream = false
	assert.Empty(t, Evaluate(cfg, st, Options{}))
}

func TestSensitiveStagedScenario(t *testing.T) {
	st := cleanState("feat/x")
	st.Staged = []string{"secrets.pem"}
	st.Added = []string{"secrets.pem"}
	st.Tracked = []string{"README.md", "secrets.pem"}

	diags := Evaluate(config.Default(), st, Options{})
	require.Len(t, diags, 1)
	assert.Equal(t, KindSensitiveFile, diags[0].Kind)
	assert.Equal(t, "secrets.pem", diags[0].Subject)
	assert.Equal(t, RuleSensitiveStaged, diags[0].RuleID)
	assert.Contains(t, diags[0].Message, `"*.pem"`)
}

func TestSensitiveDedupUsesFirstPattern(t *testing.T) {
	cfg := config.Default()
	cfg.Sensitive.Patterns = []string{"secrets/**", "*.key"}
	require.NoError(t, cfg.Compile())

	st := cleanState("feat/x")
	st.Tracked = []string{"secrets/deploy.key", "z.key"}

	diags := Evaluate(cfg, st, Options{})
	require.Len(t, diags, 2)
	assert.Equal(t, "secrets/deploy.key", diags[0].Subject)
	assert.Contains(t, diags[0].Message, `"secrets/**"`)
	assert.Equal(t, RuleSensitiveTracked, diags[0].RuleID)
	assert.Equal(t, "z.key", diags[1].Subject)
}

func TestRuleOrderIsStable(t *testing.T) {
	st := repo.State{
		Branch:  "wip-stuff",
		HeadID:  idB,
		Commits: []repo.Commit{{ID: idA, Subject: "oops"}, {ID: idB, Subject: "fix: ok"}},
		Dirty:   true,
		Staged:  []string{"b.pem"},
		Added:   []string{"b.pem"},
		Tracked: []string{"a.pem", "b.pem", "main.go"},
	}
	cfg := config.Default()

	first := Evaluate(cfg, st, Options{})
	assert.Equal(t, []Kind{
		KindInvalidBranchName,
		KindInvalidCommitMessage,
		KindDirtyWorktree,
		KindMissingUpstream,
		KindSensitiveFile,
		KindSensitiveFile,
	}, kinds(first))
	assert.Equal(t, "a.pem", first[4].Subject)
	assert.Equal(t, "b.pem", first[5].Subject)

	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Evaluate(cfg, st, Options{}))
	}
}

func TestDisabledAndOnly(t *testing.T) {
	st := cleanState("wip-stuff")
	st.Upstream = ""

	cfg := config.Default()
	cfg.Checks.Disabled = []string{config.CheckBranchNaming}
	assert.Equal(t, []Kind{KindMissingUpstream}, kinds(Evaluate(cfg, st, Options{})))

	assert.Equal(t, []Kind{KindInvalidBranchName},
		kinds(Evaluate(config.Default(), st, Options{Only: []string{config.CheckBranchNaming}})))
}

func TestUnknownConventionNamesRegistered(t *testing.T) {
	cfg := config.Default()
	cfg.Commits.Convention = "gitmoji"
	st := cleanState("feat/x")
	st.Commits = []repo.Commit{{ID: idA, Subject: "fixed bug"}}

	_, err := checkCommitConvention(cfg, st)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown commit convention "gitmoji"`)
	assert.Contains(t, err.Error(), "registered: "+config.ConventionConventional)
}

func TestFailingCheckDoesNotStopOthers(t *testing.T) {
	saved := rules
	t.Cleanup(func() { rules = saved })
	rules = []rule{
		{"boom", func(*config.Config, repo.State) ([]Diagnostic, error) { panic("kaboom") }},
		{"broken", func(*config.Config, repo.State) ([]Diagnostic, error) { return nil, errors.New("nope") }},
		{config.CheckUpstream, checkUpstream},
	}
	st := cleanState("feat/x")
	st.Upstream = ""

	diags := Evaluate(config.Default(), st, Options{})
	assert.Equal(t, []Kind{KindMissingUpstream}, kinds(diags))
}

func TestValidateOnly(t *testing.T) {
	assert.NoError(t, ValidateOnly([]string{"branch-naming", "sensitive-files"}))
	assert.Error(t, ValidateOnly([]string{"spelling"}))
}

func TestCount(t *testing.T) {
	e, w := Count([]Diagnostic{{Severity: SeverityError}, {Severity: SeverityWarning}, {Severity: SeverityError}})
	assert.Equal(t, 2, e)
	assert.Equal(t, 1, w)
}
