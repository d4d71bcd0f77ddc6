package check

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Convention validates commit messages. Only the subject line is checked
// today; body and footer grammar would be added through this interface.
type Convention interface {
	Name() string
	ValidateSubject(subject string) error
}

var (
	conventionsMu sync.RWMutex
	conventions   = map[string]Convention{}
)

// RegisterConvention makes a convention selectable via [commits].convention.
func RegisterConvention(c Convention) {
	conventionsMu.Lock()
	defer conventionsMu.Unlock()
	conventions[c.Name()] = c
}

// LookupConvention returns the registered convention by name.
func LookupConvention(name string) (Convention, bool) {
	conventionsMu.RLock()
	defer conventionsMu.RUnlock()
	c, ok := conventions[name]
	return c, ok
}

// Conventions lists registered convention names, sorted.
func Conventions() []string {
	conventionsMu.RLock()
	defer conventionsMu.RUnlock()
	names := make([]string, 0, len(conventions))
	for n := range conventions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func init() {
	RegisterConvention(Conventional{})
}

// ConventionalTypes is the fixed set of accepted commit types.
var ConventionalTypes = []string{"feat", "fix", "chore", "docs", "refactor", "test", "style", "perf", "build", "ci"}

var conventionalSubjectRE = regexp.MustCompile(`^(` + strings.Join(ConventionalTypes, "|") + `)(\([A-Za-z0-9._/-]+\))?!?: (.+)$`)

// Conventional implements the Conventional Commits subject grammar:
// type(scope)?!?: description.
type Conventional struct{}

func (Conventional) Name() string { return "conventional" }

func (Conventional) ValidateSubject(subject string) error {
	m := conventionalSubjectRE.FindStringSubmatch(subject)
	if m == nil {
		return fmt.Errorf("expected \"type(scope)?: description\" with type one of %s", strings.Join(ConventionalTypes, ", "))
	}
	if strings.TrimSpace(m[3]) == "" {
		return fmt.Errorf("description must not be empty")
	}
	return nil
}
