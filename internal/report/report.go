// Package report renders lint results and maps them onto the process exit
// status: 0 clean, 1 conflicts found, 2 one or more documents failed.
package report

import (
	"fmt"
	"io"

	"github.com/agentrules/rule-lint/internal/conflict"
)

// Exit status values for a lint run
const (
	ExitClean     = 0
	ExitConflicts = 1
	ExitFailures  = 2
)

// Failure is a document-level problem surfaced at the end of the run
type Failure struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Report aggregates everything the pipeline produced for one run
type Report struct {
	Root      string             `json:"root"`
	Documents int                `json:"documents"`
	Sections  int                `json:"sections"`
	Rules     int                `json:"rules"`
	Skipped   int                `json:"skipped"`
	Findings  []conflict.Finding `json:"findings"`
	Warnings  []Failure          `json:"warnings"` // non-fatal, e.g. bad frontmatter
	Failures  []Failure          `json:"failures"` // unterminated fences, unreadable files
}

// ExitCode maps the report onto the CLI contract. Parse failures dominate
// conflicts so a truncated corpus is never mistaken for a clean one.
func (r *Report) ExitCode() int {
	if len(r.Failures) > 0 {
		return ExitFailures
	}
	if len(r.Findings) > 0 {
		return ExitConflicts
	}
	return ExitClean
}

// Render writes the human-readable summary to out and per-document errors
// to errOut. Output depends only on report content, so unchanged inputs
// produce byte-identical reports.
func (r *Report) Render(out, errOut io.Writer) {
	fmt.Fprintf(out, "rule-lint: %d document(s), %d section(s), %d rule(s), %d skipped\n",
		r.Documents, r.Sections, r.Rules, r.Skipped)

	if r.Rules == 0 {
		fmt.Fprintln(out, "no rules found")
	} else if len(r.Findings) == 0 {
		fmt.Fprintln(out, "OK: no conflicts found")
	} else {
		fmt.Fprintf(out, "\nConflicts: %d finding(s)\n", len(r.Findings))
		lastTopic := ""
		for _, f := range r.Findings {
			if f.Topic != lastTopic {
				fmt.Fprintf(out, "\n[%s]\n", f.Topic)
				lastTopic = f.Topic
			}
			fmt.Fprintf(out, "  %-10s %s (%s:%d): %q\n", f.A.Strength, f.A.DocPath, f.A.Heading, f.A.Line, f.A.Statement)
			fmt.Fprintf(out, "  %-10s %s (%s:%d): %q\n", f.B.Strength, f.B.DocPath, f.B.Heading, f.B.Line, f.B.Statement)
			fmt.Fprintf(out, "  → %s\n", f.Explanation)
		}
	}

	for _, w := range r.Warnings {
		fmt.Fprintf(errOut, "warning: %s: %s\n", w.Path, w.Message)
	}
	for _, f := range r.Failures {
		fmt.Fprintf(errOut, "error: %s: %s\n", f.Path, f.Message)
	}
	if len(r.Failures) > 0 {
		fmt.Fprintf(errOut, "%d document(s) excluded from analysis\n", len(r.Failures))
	}
}
