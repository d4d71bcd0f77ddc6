package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/aymerick/raymond"
	"github.com/mattn/go-runewidth"

	"github.com/fulmenhq/gitsherpa/internal/check"
	"github.com/fulmenhq/gitsherpa/internal/fix"
	"github.com/fulmenhq/gitsherpa/internal/hooks"
)

const (
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
	colorDim    = "\033[2m"
	colorReset  = "\033[0m"
)

const humanTemplate = `{{#each sections}}{{#if title}}{{{title}}}
{{/if}}{{#each rows}}  {{{this}}}
{{/each}}{{#each notes}}{{{this}}}
{{/each}}{{/each}}{{{summary}}}
`

var (
	humanOnce sync.Once
	humanTpl  *raymond.Template
)

type section struct {
	Title string
	Rows  []string
	Notes []string
}

type view struct {
	Sections []section
	Summary  string
}

func renderHuman(w io.Writer, v view) error {
	humanOnce.Do(func() { humanTpl = raymond.MustParse(humanTemplate) })
	sections := make([]map[string]interface{}, 0, len(v.Sections))
	for _, s := range v.Sections {
		sections = append(sections, map[string]interface{}{"title": s.Title, "rows": s.Rows, "notes": s.Notes})
	}
	out, err := humanTpl.Exec(map[string]interface{}{"sections": sections, "summary": v.Summary})
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

func paint(enabled bool, color, s string) string {
	if !enabled {
		return s
	}
	return color + s + colorReset
}

// table pads every column but the last to its widest cell.
func table(rows [][]string) []string {
	var widths []int
	for _, r := range rows {
		for i, c := range r {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if w := runewidth.StringWidth(c); w > widths[i] {
				widths[i] = w
			}
		}
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		line := ""
		for i, c := range r {
			if i == len(r)-1 {
				line += c
				continue
			}
			line += runewidth.FillRight(c, widths[i]) + "  "
		}
		out = append(out, line)
	}
	return out
}

// colorColumn applies a colour after padding so escape codes do not skew widths.
func colorColumn(lines []string, width int, color func(int) string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		head := runewidth.Truncate(l, width, "")
		tail := l[len(head):]
		if c := color(i); c != "" {
			head = c + head + colorReset
		}
		out[i] = head + tail
	}
	return out
}

func severityColor(s check.Severity) string {
	if s == check.SeverityError {
		return colorRed
	}
	return colorYellow
}

func displaySubject(d check.Diagnostic) string {
	if d.Kind == check.KindInvalidCommitMessage && len(d.Subject) > 7 {
		return d.Subject[:7]
	}
	return d.Subject
}

func diagnosticRows(diags []check.Diagnostic, color bool) []string {
	rows := make([][]string, 0, len(diags))
	for _, d := range diags {
		rows = append(rows, []string{string(d.Severity), d.RuleID, displaySubject(d), d.Message})
	}
	lines := table(rows)
	if !color {
		return lines
	}
	return colorColumn(lines, len(check.SeverityWarning), func(i int) string { return severityColor(diags[i].Severity) })
}

func summary(diags []check.Diagnostic, color bool) string {
	errs, warns := check.Count(diags)
	if errs == 0 && warns == 0 {
		return paint(color, colorGreen, "✓ no problems found")
	}
	s := fmt.Sprintf("%d error(s), %d warning(s)", errs, warns)
	if errs > 0 {
		return paint(color, colorRed, "✗ "+s)
	}
	return paint(color, colorYellow, "! "+s)
}

func diagnosticsView(diags []check.Diagnostic, color bool) view {
	v := view{Summary: summary(diags, color)}
	if len(diags) > 0 {
		v.Sections = []section{{Rows: diagnosticRows(diags, color)}}
	}
	return v
}

func fixesView(rep FixReport, color bool) view {
	v := view{Summary: summary(rep.Diagnostics, color)}
	if len(rep.Diagnostics) > 0 {
		v.Sections = append(v.Sections, section{Title: "Diagnostics:", Rows: diagnosticRows(rep.Diagnostics, color)})
	}
	if len(rep.Fixes) == 0 {
		return v
	}

	rows := make([][]string, 0, len(rep.Fixes))
	for i, f := range rep.Fixes {
		tag := "manual"
		if f.Safe {
			tag = "safe"
		}
		rows = append(rows, []string{fmt.Sprintf("#%d", i), tag, string(f.Action), f.CommandTemplate})
	}
	v.Sections = append(v.Sections, section{Title: "Suggested fixes:", Rows: table(rows)})

	if len(rep.Outcomes) > 0 {
		orows := make([][]string, 0, len(rep.Outcomes))
		for _, o := range rep.Outcomes {
			detail := o.Reason
			if o.Error != "" {
				detail = o.Error
			}
			orows = append(orows, []string{fmt.Sprintf("#%d", o.FixRef), string(o.Result), detail})
		}
		v.Sections = append(v.Sections, section{Title: "Applied:", Rows: table(orows)})
		v.Summary += fmt.Sprintf("; %s", outcomeSummary(rep.Outcomes, color))
	}
	return v
}

func outcomeSummary(outcomes []fix.Outcome, color bool) string {
	counts := map[fix.Result]int{}
	for _, o := range outcomes {
		counts[o.Result]++
	}
	s := fmt.Sprintf("%d applied, %d skipped, %d failed", counts[fix.ResultApplied], counts[fix.ResultSkipped], counts[fix.ResultFailed])
	if counts[fix.ResultFailed] > 0 {
		return paint(color, colorRed, s)
	}
	return s
}

func hooksView(ds []hooks.Descriptor, color bool) view {
	rows := make([][]string, 0, len(ds))
	var notes []string
	for _, d := range ds {
		action := string(d.Action)
		if action == "" {
			action = "-"
		}
		rows = append(rows, []string{d.Name, string(d.State), action, d.TargetPath})
		if d.BackupPath != "" {
			notes = append(notes, fmt.Sprintf("    %s backup: %s", d.Name, d.BackupPath))
		}
		if d.Error != "" {
			notes = append(notes, paint(color, colorRed, fmt.Sprintf("    %s: %s", d.Name, d.Error)))
		}
	}
	return view{
		Sections: []section{{Rows: table(rows), Notes: notes}},
		Summary:  paint(color, colorDim, fmt.Sprintf("%d hook(s)", len(ds))),
	}
}
