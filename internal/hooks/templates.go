package hooks

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/aymerick/raymond"

	"github.com/fulmenhq/gitsherpa/pkg/config"
)

//go:embed templates/*.sh.hbs
var templateFS embed.FS

// Marker identifies scripts written by git-sherpa.
const Marker = "# git-sherpa:managed"

// DefaultInvocation is the command hooks use to re-invoke the tool.
const DefaultInvocation = "git-sherpa"

// PreCommitChecks run from the pre-commit hook.
var PreCommitChecks = []string{config.CheckBranchNaming, config.CheckCommitConvention, config.CheckSensitiveFiles}

var (
	parseOnce sync.Once
	parsed    map[string]*raymond.Template
	parseErr  error
)

func templates() (map[string]*raymond.Template, error) {
	parseOnce.Do(func() {
		parsed = make(map[string]*raymond.Template, len(config.AllHooks))
		for _, name := range config.AllHooks {
			src, err := templateFS.ReadFile("templates/" + name + ".sh.hbs")
			if err != nil {
				parseErr = fmt.Errorf("hook template %s: %w", name, err)
				return
			}
			tpl, err := raymond.Parse(string(src))
			if err != nil {
				parseErr = fmt.Errorf("parse hook template %s: %w", name, err)
				return
			}
			parsed[name] = tpl
		}
	})
	return parsed, parseErr
}

// TemplateData holds the substitution points of the hook scripts.
type TemplateData struct {
	Invocation string
	Version    string
	Protected  []string
	Exempt     []string
}

func (d TemplateData) context() map[string]interface{} {
	inv := strings.TrimSpace(d.Invocation)
	if inv == "" {
		inv = DefaultInvocation
	}
	binary := strings.Fields(inv)[0]
	return map[string]interface{}{
		"marker":     Marker,
		"invocation": inv,
		"binary":     binary,
		"version":    d.Version,
		"only":       strings.Join(PreCommitChecks, ","),
		"protected":  strings.Join(d.Protected, "|"),
		"exempt":     strings.Join(d.Exempt, "|"),
	}
}

// Render produces the script body for a hook.
func Render(name string, data TemplateData) ([]byte, error) {
	tpls, err := templates()
	if err != nil {
		return nil, err
	}
	tpl, ok := tpls[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHook, name)
	}
	out, err := tpl.Exec(data.context())
	if err != nil {
		return nil, fmt.Errorf("render hook %s: %w", name, err)
	}
	return []byte(out), nil
}
