package config

import (
	"regexp"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPath is the config file name looked up at the repository root.
const DefaultPath = ".gitsherpa.toml"

// ScriptsDir is scaffolded next to the config by `init`.
const ScriptsDir = ".gitsherpa"

// Check identifiers. They double as the values accepted by [checks].disabled
// and the `check --only` flag.
const (
	CheckBranchNaming     = "branch-naming"
	CheckCommitConvention = "commit-convention"
	CheckWorktreeClean    = "worktree-clean"
	CheckUpstream         = "upstream"
	CheckSensitiveFiles   = "sensitive-files"
)

// AllChecks lists every check in evaluation order.
var AllChecks = []string{
	CheckBranchNaming,
	CheckCommitConvention,
	CheckWorktreeClean,
	CheckUpstream,
	CheckSensitiveFiles,
}

// Hook names git-sherpa knows how to generate.
const (
	HookPreCommit = "pre-commit"
	HookPrePush   = "pre-push"
)

// AllHooks lists the supported hooks in install order.
var AllHooks = []string{HookPreCommit, HookPrePush}

// ConventionConventional selects the Conventional Commits subject grammar.
const ConventionConventional = "conventional"

// Config holds the repository hygiene policy. It is immutable once Load returns.
type Config struct {
	Branches  BranchesConfig  `mapstructure:"branches" toml:"branches" comment:"Branch naming policy"`
	Commits   CommitsConfig   `mapstructure:"commits" toml:"commits" comment:"Commit message policy"`
	Checks    ChecksConfig    `mapstructure:"checks" toml:"checks" comment:"Repository state checks"`
	Sensitive SensitiveConfig `mapstructure:"sensitive" toml:"sensitive" comment:"Files that must never be committed"`
	Hooks     HooksConfig     `mapstructure:"hooks" toml:"hooks" comment:"Git hook integration"`

	branchRE  *regexp.Regexp
	sensitive []SensitivePattern
}

// BranchesConfig holds branch naming options
type BranchesConfig struct {
	Pattern string `mapstructure:"pattern" toml:"pattern" comment:"Regular expression every non-protected branch must fully match"`
}

// CommitsConfig holds commit message options
type CommitsConfig struct {
	Convention   string `mapstructure:"convention" toml:"convention" comment:"Subject grammar: conventional"`
	IgnoreMerges bool   `mapstructure:"ignore_merges" toml:"ignore_merges" comment:"Skip merge commits when validating subjects"`
}

// ChecksConfig toggles repository state checks
type ChecksConfig struct {
	RequireCleanWorktree bool     `mapstructure:"require_clean_worktree" toml:"require_clean_worktree"`
	RequireUpstream      bool     `mapstructure:"require_upstream" toml:"require_upstream"`
	IncludeUntracked     bool     `mapstructure:"include_untracked" toml:"include_untracked" comment:"Count untracked files as worktree changes"`
	Disabled             []string `mapstructure:"disabled" toml:"disabled" comment:"Checks to skip: branch-naming, commit-convention, worktree-clean, upstream, sensitive-files"`
}

// SensitiveConfig lists sensitive path patterns
type SensitiveConfig struct {
	Patterns []string `mapstructure:"patterns" toml:"patterns" comment:"Globs (doublestar syntax) or regular expressions prefixed with re:"`
}

// HooksConfig controls generated git hooks and push protection
type HooksConfig struct {
	Enabled           []string `mapstructure:"enabled" toml:"enabled" comment:"Hooks installed by 'git-sherpa hooks install'"`
	ProtectedBranches []string `mapstructure:"protected_branches" toml:"protected_branches" comment:"Branches (or globs) exempt from naming rules and guarded against direct and force pushes"`
	PushExempt        []string `mapstructure:"push_exempt" toml:"push_exempt" comment:"Branches (or globs) the pre-push guard never blocks"`
}

// DefaultSensitivePatterns is the built-in sensitive file list.
var DefaultSensitivePatterns = []string{
	".env",
	".env.*",
	"*.pem",
	"*.key",
	"**/id_rsa",
	"**/id_rsa.pub",
	"**/credentials.json",
	"**/*.p12",
	"**/*.pfx",
}

// Default returns the built-in configuration, already compiled.
func Default() *Config {
	cfg := defaultConfig()
	if err := cfg.compile(""); err != nil {
		// the built-in defaults are covered by tests; a failure here is a programming error
		panic(err)
	}
	return cfg
}

func defaultConfig() *Config {
	return &Config{
		Branches: BranchesConfig{
			Pattern: "^(feat|fix|chore|docs|refactor)/[a-z0-9-]+$",
		},
		Commits: CommitsConfig{
			Convention:   ConventionConventional,
			IgnoreMerges: true,
		},
		Checks: ChecksConfig{
			RequireCleanWorktree: true,
			RequireUpstream:      true,
			IncludeUntracked:     false,
			Disabled:             []string{},
		},
		Sensitive: SensitiveConfig{
			Patterns: slices.Clone(DefaultSensitivePatterns),
		},
		Hooks: HooksConfig{
			Enabled:           slices.Clone(AllHooks),
			ProtectedBranches: []string{"main", "master"},
			PushExempt:        []string{},
		},
	}
}

// BranchPattern returns the branch regular expression anchored to the full name.
func (c *Config) BranchPattern() *regexp.Regexp { return c.branchRE }

// SensitivePatterns returns the compiled sensitive patterns in configured order.
func (c *Config) SensitivePatterns() []SensitivePattern { return c.sensitive }

// CheckEnabled reports whether a check id is not listed in [checks].disabled.
func (c *Config) CheckEnabled(id string) bool {
	return !slices.Contains(c.Checks.Disabled, id)
}

// HookEnabled reports whether the hook is part of [hooks].enabled.
func (c *Config) HookEnabled(name string) bool {
	return slices.Contains(c.Hooks.Enabled, name)
}

// IsProtected reports whether branch matches any protected branch name or glob.
func (c *Config) IsProtected(branch string) bool {
	return MatchBranch(c.Hooks.ProtectedBranches, branch)
}

// IsPushExempt reports whether branch matches any push_exempt name or glob.
func (c *Config) IsPushExempt(branch string) bool {
	return MatchBranch(c.Hooks.PushExempt, branch)
}

// MatchBranch matches a branch against names or doublestar globs.
func MatchBranch(patterns []string, branch string) bool {
	if branch == "" {
		return false
	}
	for _, p := range patterns {
		if p == branch {
			return true
		}
		if ok, err := doublestar.Match(p, branch); err == nil && ok {
			return true
		}
	}
	return false
}
