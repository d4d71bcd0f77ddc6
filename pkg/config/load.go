package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/fulmenhq/gitsherpa/pkg/logger"
)

// EnvPrefix namespaces environment overrides, e.g. GITSHERPA_CHECKS_REQUIRE_UPSTREAM.
const EnvPrefix = "GITSHERPA"

// ErrInvalid is wrapped by every configuration validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Error is a fatal configuration problem: unreadable file, malformed TOML,
// unknown keys or a value that does not compile.
type Error struct {
	Path string
	Key  string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("config")
	if e.Path != "" {
		fmt.Fprintf(&b, " %s", e.Path)
	}
	if e.Key != "" {
		fmt.Fprintf(&b, " [%s]", e.Key)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Load reads, validates and compiles the config at path. A missing file yields
// the defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- path is the repository config location
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Debug("No config file found, using defaults", logger.String("path", path))
		raw = nil
	case err != nil:
		return nil, &Error{Path: path, Err: err}
	}
	cfg, err := Parse(raw)
	if err != nil {
		var cerr *Error
		if errors.As(err, &cerr) && cerr.Path == "" {
			cerr.Path = path
		}
		return nil, err
	}
	return cfg, nil
}

// Parse validates and compiles a TOML document. Empty input yields the defaults.
func Parse(raw []byte) (*Config, error) {
	var doc map[string]interface{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := toml.Unmarshal(raw, &doc); err != nil {
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				row, col := derr.Position()
				return nil, &Error{Err: fmt.Errorf("%w: line %d column %d: %s", ErrInvalid, row, col, derr.Error())}
			}
			return nil, &Error{Err: fmt.Errorf("%w: %v", ErrInvalid, err)}
		}
		if err := ValidateDocument(doc); err != nil {
			return nil, err
		}
	}

	v := newViper()
	if doc != nil {
		if err := v.MergeConfigMap(doc); err != nil {
			return nil, &Error{Err: fmt.Errorf("failed to merge config: %w", err)}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &Error{Err: fmt.Errorf("%w: %v", ErrInvalid, err)}
	}
	if err := cfg.compile(""); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// newViper seeds defaults for every key so environment overrides resolve
// even when the file omits the section.
func newViper() *viper.Viper {
	d := defaultConfig()
	v := viper.New()

	v.SetDefault("branches.pattern", d.Branches.Pattern)
	v.SetDefault("commits.convention", d.Commits.Convention)
	v.SetDefault("commits.ignore_merges", d.Commits.IgnoreMerges)
	v.SetDefault("checks.require_clean_worktree", d.Checks.RequireCleanWorktree)
	v.SetDefault("checks.require_upstream", d.Checks.RequireUpstream)
	v.SetDefault("checks.include_untracked", d.Checks.IncludeUntracked)
	v.SetDefault("checks.disabled", d.Checks.Disabled)
	v.SetDefault("sensitive.patterns", d.Sensitive.Patterns)
	v.SetDefault("hooks.enabled", d.Hooks.Enabled)
	v.SetDefault("hooks.protected_branches", d.Hooks.ProtectedBranches)
	v.SetDefault("hooks.push_exempt", d.Hooks.PushExempt)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

var branchGlobRE = regexp.MustCompile(`^[A-Za-z0-9._/*-]+$`)

// Compile revalidates the config after its fields were edited in place.
func (c *Config) Compile() error { return c.compile("") }

// compile validates values the schema cannot express (and env overrides the
// schema never saw) and caches compiled patterns.
func (c *Config) compile(path string) error {
	fail := func(key string, err error) error {
		return &Error{Path: path, Key: key, Err: fmt.Errorf("%w: %v", ErrInvalid, err)}
	}

	if strings.TrimSpace(c.Branches.Pattern) == "" {
		return fail("branches.pattern", errors.New("pattern must not be empty"))
	}
	if _, err := regexp.Compile(c.Branches.Pattern); err != nil {
		return fail("branches.pattern", err)
	}
	c.branchRE = regexp.MustCompile(`^(?:` + c.Branches.Pattern + `)$`)

	if c.Commits.Convention != ConventionConventional {
		return fail("commits.convention", fmt.Errorf("unsupported commit convention %q", c.Commits.Convention))
	}

	for _, id := range c.Checks.Disabled {
		if !slices.Contains(AllChecks, id) {
			return fail("checks.disabled", fmt.Errorf("unknown check %q", id))
		}
	}

	c.sensitive = make([]SensitivePattern, 0, len(c.Sensitive.Patterns))
	seen := make(map[string]bool, len(c.Sensitive.Patterns))
	for _, raw := range c.Sensitive.Patterns {
		if seen[raw] {
			continue
		}
		seen[raw] = true
		p, err := CompileSensitivePattern(raw)
		if err != nil {
			return fail("sensitive.patterns", err)
		}
		c.sensitive = append(c.sensitive, p)
	}

	for _, name := range c.Hooks.Enabled {
		if !slices.Contains(AllHooks, name) {
			return fail("hooks.enabled", fmt.Errorf("unknown hook %q", name))
		}
	}
	for key, globs := range map[string][]string{
		"hooks.protected_branches": c.Hooks.ProtectedBranches,
		"hooks.push_exempt":        c.Hooks.PushExempt,
	} {
		for _, g := range globs {
			if !branchGlobRE.MatchString(g) {
				return fail(key, fmt.Errorf("branch glob %q may only contain letters, digits and . _ / * -", g))
			}
		}
	}
	return nil
}

const renderHeader = `# git-sherpa configuration
# Missing sections fall back to built-in defaults; unknown keys are rejected.
# Environment overrides use GITSHERPA_<SECTION>_<KEY>, e.g. GITSHERPA_CHECKS_REQUIRE_UPSTREAM=false.

`

// RenderDefault returns the commented default config written by `init`.
func RenderDefault() ([]byte, error) {
	body, err := toml.Marshal(defaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to render default config: %w", err)
	}
	return append([]byte(renderHeader), body...), nil
}
