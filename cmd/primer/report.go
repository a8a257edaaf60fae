package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jackzampolin/primer/internal/catalog"
	"github.com/jackzampolin/primer/internal/mindmap"
	"github.com/jackzampolin/primer/internal/pagestore"
	"github.com/jackzampolin/primer/internal/pipeline"
	"github.com/jackzampolin/primer/internal/pipeline/stages"
	"github.com/jackzampolin/primer/internal/search"
	"github.com/jackzampolin/primer/internal/segment"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Width(16).
			Foreground(lipgloss.Color("245"))
)

func field(label string, value any) string {
	return labelStyle.Render(label) + fmt.Sprint(value)
}

func statsLines(s catalog.Stats) []string {
	resolved := fmt.Sprintf("%d/%d", s.ResolvedLeaves, s.Leaves)
	if s.ResolvedLeaves == s.Leaves {
		resolved = successStyle.Render(resolved)
	} else {
		resolved = warnStyle.Render(resolved)
	}
	errs := fmt.Sprint(s.Errors)
	if s.Errors > 0 {
		errs = errorStyle.Render(errs)
	}
	warns := fmt.Sprint(s.Warnings)
	if s.Warnings > 0 {
		warns = warnStyle.Render(warns)
	}
	return []string{
		field("Nodes", s.Nodes),
		field("Leaves resolved", resolved),
		field("Errors", errs),
		field("Warnings", warns),
	}
}

// renderDiagnostics lists every diagnostic, errors first in tree order.
func renderDiagnostics(w io.Writer, diags []catalog.Diagnostic) {
	if len(diags) == 0 {
		fmt.Fprintln(w, successStyle.Render("No diagnostics"))
		return
	}
	var errs, warns []catalog.Diagnostic
	for _, d := range diags {
		if d.Kind.IsWarning() {
			warns = append(warns, d)
		} else {
			errs = append(errs, d)
		}
	}
	for _, d := range errs {
		fmt.Fprintf(w, "%s %s %s\n", errorStyle.Render("✗ "+string(d.Kind)), nodeLabel(d.NodePath), d.Message)
	}
	for _, d := range warns {
		fmt.Fprintf(w, "%s %s %s\n", warnStyle.Render("! "+string(d.Kind)), nodeLabel(d.NodePath), d.Message)
	}
}

func nodeLabel(path string) string {
	if path == "" {
		return dimStyle.Render("[root]")
	}
	return dimStyle.Render("[" + path + "]")
}

// renderCatalogReport prints the summary box and diagnostics for a
// reconciled catalog.
func renderCatalogReport(w io.Writer, heading string, root *catalog.Node, extra ...string) {
	lines := []string{titleStyle.Render(heading)}
	lines = append(lines, extra...)
	lines = append(lines, statsLines(catalog.Summarize(root))...)
	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
	renderDiagnostics(w, root.Errors)
}

func renderStageResult(w io.Writer, res *pipeline.Result) {
	if res.Skipped {
		fmt.Fprintf(w, "%s %s already complete\n", dimStyle.Render("-"), res.Stage)
		return
	}
	extra := []string{
		field("Output", res.OutputPath),
		field("Duration", res.Duration.Round(time.Millisecond)),
	}
	switch d := res.Details.(type) {
	case map[string]any:
		if offset, ok := d["offset"]; ok {
			extra = append(extra, field("Page offset", offset))
		}
	case segment.Report:
		extra = append(extra,
			field("Extracted", fmt.Sprintf("%d/%d", d.Extracted, d.Leaves)),
			field("Knowledge pts", d.Points),
		)
		if len(d.Failed) > 0 {
			extra = append(extra, field("Failed", errorStyle.Render(fmt.Sprint(len(d.Failed)))))
		}
	case mindmap.Report:
		extra = append(extra, field("Mind maps", fmt.Sprintf("%d/%d", d.Generated, d.Leaves)))
		if len(d.Failed) > 0 {
			extra = append(extra, field("Failed", errorStyle.Render(fmt.Sprint(len(d.Failed)))))
		}
	case stages.IndexReport:
		extra = append(extra,
			field("Provider", d.Provider),
			field("Model", d.Model),
			field("Entries", d.Entries),
		)
	}
	if res.Root == nil {
		lines := append([]string{titleStyle.Render(res.Stage + ": " + res.Book)}, extra...)
		fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
		if r, ok := res.Details.(mindmap.Report); ok {
			for _, f := range r.Failed {
				fmt.Fprintf(w, "%s %s %s: %s\n", errorStyle.Render("✗ mindmap"), nodeLabel(f.Path), f.Title, f.Error)
			}
		}
		return
	}
	renderCatalogReport(w, res.Stage+": "+res.Book, res.Root, extra...)
	if r, ok := res.Details.(segment.Report); ok {
		for _, f := range r.Failed {
			fmt.Fprintf(w, "%s %s %s: %s\n", errorStyle.Render("✗ segment"), nodeLabel(f.Path), f.Title, f.Error)
		}
	}
}

func renderSearchHits(w io.Writer, book, query string, hits []search.Hit) {
	lines := []string{titleStyle.Render("search: " + book), field("Query", query)}
	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
	if len(hits) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No matches"))
		return
	}
	for i, h := range hits {
		fmt.Fprintf(w, "%2d. %s %s %s\n    %s\n", i+1, successStyle.Render(fmt.Sprintf("%.3f", h.Score)), nodeLabel(h.Path), h.Title, h.Text)
	}
}

func renderStageReports(w io.Writer, book string, reports []pipeline.StageReport) {
	lines := []string{titleStyle.Render(book)}
	for _, r := range reports {
		state := warnStyle.Render("pending")
		if r.Complete {
			state = successStyle.Render("complete")
		}
		lines = append(lines, field(r.Name, state))
	}
	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
}

func renderCheck(w io.Writer, book string, c pagestore.CheckResult) {
	status := successStyle.Render("OK")
	if !c.OK() {
		status = errorStyle.Render("MISMATCH")
	}
	lines := []string{
		titleStyle.Render("pages: " + book),
		field("PDF pages", c.PDFPages),
		field("Text pages", c.TextPages),
		field("Max page", c.MaxPage),
		field("Status", status),
	}
	if len(c.MissingPages) > 0 {
		lines = append(lines, field("Missing", errorStyle.Render(fmt.Sprint(c.MissingPages))))
	}
	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
}
