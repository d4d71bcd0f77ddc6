// Package report renders command results as human text, JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/fulmenhq/gitsherpa/internal/check"
	"github.com/fulmenhq/gitsherpa/internal/fix"
	"github.com/fulmenhq/gitsherpa/internal/hooks"
)

// Format selects the output encoding.
type Format string

const (
	FormatHuman Format = "human"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

var _ pflag.Value = (*Format)(nil)

// Formats lists the accepted --format values.
var Formats = []Format{FormatHuman, FormatJSON, FormatYAML}

// String implements pflag.Value.
func (f *Format) String() string { return string(*f) }

// Set implements pflag.Value.
func (f *Format) Set(v string) error {
	p, err := ParseFormat(v)
	if err != nil {
		return err
	}
	*f = p
	return nil
}

// Type implements pflag.Value.
func (f *Format) Type() string { return "format" }

// ParseFormat validates a format name.
func ParseFormat(v string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(v))) {
	case FormatHuman, "text", "":
		return FormatHuman, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	}
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return "", fmt.Errorf("unknown format %q (want %s)", v, strings.Join(names, ", "))
}

// Options control rendering.
type Options struct {
	Format Format
	Color  bool
}

// FixReport is the result of the fix command.
type FixReport struct {
	Diagnostics []check.Diagnostic `json:"diagnostics" yaml:"diagnostics"`
	Fixes       []fix.Fix          `json:"fixes" yaml:"fixes"`
	Outcomes    []fix.Outcome      `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
}

// Diagnostics writes the check result.
func Diagnostics(w io.Writer, diags []check.Diagnostic, opts Options) error {
	if diags == nil {
		diags = []check.Diagnostic{}
	}
	switch opts.Format {
	case FormatJSON:
		return writeJSON(w, diags)
	case FormatYAML:
		return writeYAML(w, diags)
	}
	return renderHuman(w, diagnosticsView(diags, opts.Color))
}

// Fixes writes diagnostics, suggested fixes and, when present, apply outcomes.
func Fixes(w io.Writer, rep FixReport, opts Options) error {
	if rep.Diagnostics == nil {
		rep.Diagnostics = []check.Diagnostic{}
	}
	if rep.Fixes == nil {
		rep.Fixes = []fix.Fix{}
	}
	switch opts.Format {
	case FormatJSON:
		return writeJSON(w, rep)
	case FormatYAML:
		return writeYAML(w, rep)
	}
	return renderHuman(w, fixesView(rep, opts.Color))
}

// Hooks writes hook descriptors.
func Hooks(w io.Writer, ds []hooks.Descriptor, opts Options) error {
	if ds == nil {
		ds = []hooks.Descriptor{}
	}
	switch opts.Format {
	case FormatJSON:
		return writeJSON(w, ds)
	case FormatYAML:
		return writeYAML(w, ds)
	}
	return renderHuman(w, hooksView(ds, opts.Color))
}

type errorEnvelope struct {
	Error errorBody `json:"error" yaml:"error"`
}

type errorBody struct {
	Type    string `json:"type" yaml:"type"`
	Message string `json:"message" yaml:"message"`
}

// Error writes a fatal error. JSON and YAML use the {"error":{type,message}} envelope.
func Error(w io.Writer, errType string, err error, opts Options) error {
	env := errorEnvelope{Error: errorBody{Type: errType, Message: err.Error()}}
	switch opts.Format {
	case FormatJSON:
		return writeJSON(w, env)
	case FormatYAML:
		return writeYAML(w, env)
	}
	_, werr := fmt.Fprintf(w, "%s %v\n", paint(opts.Color, colorRed, "error:"), err)
	return werr
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// IsMachine reports whether f is a structured format.
func (f Format) IsMachine() bool { return f == FormatJSON || f == FormatYAML }

// Data writes v as JSON or YAML. Human output is the caller's job.
func Data(w io.Writer, v interface{}, f Format) error {
	switch f {
	case FormatJSON:
		return writeJSON(w, v)
	case FormatYAML:
		return writeYAML(w, v)
	}
	return fmt.Errorf("format %q is not a data format", f)
}
