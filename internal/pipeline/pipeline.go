// Package pipeline runs the lint stages in order: load the corpus, parse
// each document into sections, extract rule records, detect conflicts.
// Each stage consumes the complete output of the previous one; documents
// that fail to parse are excluded from extraction but never abort the run.
package pipeline

import (
	"errors"
	"log"
	"time"

	"github.com/agentrules/rule-lint/internal/conflict"
	"github.com/agentrules/rule-lint/internal/document"
	"github.com/agentrules/rule-lint/internal/report"
	"github.com/agentrules/rule-lint/internal/rules"
	"github.com/agentrules/rule-lint/internal/section"
)

// Result carries the report plus the intermediate records, which the search
// index and the MCP tools consume directly
type Result struct {
	Report  *report.Report
	Records []rules.RuleRecord
}

// Run lints the rule documents under root. The returned error is non-nil
// only for a missing or unreadable root; every per-document problem lands
// in the report instead.
func Run(root string) (*Result, error) {
	startTime := time.Now()

	docs, warnings, failures, err := document.Load(root)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d document(s) from %s (%d unreadable)", len(docs), root, len(failures))

	rep := &report.Report{
		Root:      root,
		Documents: len(docs),
	}
	for _, w := range warnings {
		rep.Warnings = append(rep.Warnings, report.Failure{Path: w.Path, Message: w.Message})
	}
	for _, f := range failures {
		rep.Failures = append(rep.Failures, report.Failure{Path: f.Path, Message: f.Message})
	}

	var records []rules.RuleRecord
	for _, doc := range docs {
		sections, err := section.Parse(doc.Path, doc.Body, doc.BodyLine)
		if err != nil {
			var fenceErr *section.FenceError
			if errors.As(err, &fenceErr) {
				rep.Failures = append(rep.Failures, report.Failure{
					Path:    doc.Path,
					Message: fenceErr.Error(),
				})
				continue
			}
			return nil, err
		}

		rep.Sections += len(sections)
		for _, sec := range sections {
			recs, stats := rules.Extract(doc.Path, doc.Order, sec)
			records = append(records, recs...)
			rep.Rules += stats.Rules
			rep.Skipped += stats.Skipped
			for _, sk := range stats.SkippedCandidates {
				log.Printf("Skipped (no directive marker) %s:%d: %q", doc.Path, sk.Line, sk.Text)
			}
		}
	}
	log.Printf("Extracted %d rule(s) from %d section(s), %d candidate(s) skipped",
		rep.Rules, rep.Sections, rep.Skipped)

	rep.Findings = conflict.Detect(records)
	if len(rep.Findings) > 0 {
		log.Printf("Detected %d conflict(s)", len(rep.Findings))
	}

	log.Printf("✓ Lint completed in %v", time.Since(startTime).Round(time.Millisecond))

	return &Result{Report: rep, Records: records}, nil
}
