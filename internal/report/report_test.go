package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/agentrules/rule-lint/internal/conflict"
	"github.com/agentrules/rule-lint/internal/rules"
)

func conflictReport() *Report {
	a := rules.RuleRecord{
		DocPath: "security.md", Heading: "Rules", Line: 5, Topic: "secrets",
		Strength: rules.Forbid, Statement: "Never hardcode API keys.",
	}
	b := rules.RuleRecord{
		DocPath: "speed.md", DocOrder: 1, Heading: "Shortcuts", Line: 3, Topic: "secrets",
		Strength: rules.Require, Statement: "Always hardcode API keys for speed.",
	}
	return &Report{
		Root: "rules", Documents: 2, Sections: 2, Rules: 2,
		Findings: []conflict.Finding{{
			Topic: "secrets", A: a, B: b,
			Explanation: "security.md (Rules) states FORBID on \"secrets\" while speed.md (Shortcuts) states REQUIRE",
		}},
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name   string
		report Report
		want   int
	}{
		{"clean run", Report{Rules: 3}, ExitClean},
		{"empty corpus", Report{}, ExitClean},
		{"conflicts", Report{Rules: 2, Findings: make([]conflict.Finding, 1)}, ExitConflicts},
		{"failures", Report{Failures: []Failure{{Path: "a.md"}}}, ExitFailures},
		{"failures dominate conflicts", Report{
			Findings: make([]conflict.Finding, 1),
			Failures: []Failure{{Path: "a.md"}},
		}, ExitFailures},
		{"warnings alone stay clean", Report{Rules: 1, Warnings: []Failure{{Path: "b.md"}}}, ExitClean},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.report.ExitCode(); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRenderEmptyCorpus(t *testing.T) {
	var out, errOut bytes.Buffer
	rep := &Report{Root: "rules"}
	rep.Render(&out, &errOut)

	if !strings.Contains(out.String(), "no rules found") {
		t.Errorf("Expected 'no rules found', got:\n%s", out.String())
	}
	if errOut.Len() != 0 {
		t.Errorf("Expected empty stderr, got:\n%s", errOut.String())
	}
}

func TestRenderClean(t *testing.T) {
	var out, errOut bytes.Buffer
	rep := &Report{Documents: 1, Sections: 2, Rules: 3}
	rep.Render(&out, &errOut)

	if !strings.Contains(out.String(), "OK: no conflicts found") {
		t.Errorf("Expected OK line, got:\n%s", out.String())
	}
}

func TestRenderConflicts(t *testing.T) {
	var out, errOut bytes.Buffer
	rep := conflictReport()
	rep.Render(&out, &errOut)

	text := out.String()
	for _, want := range []string{
		"[secrets]",
		"FORBID",
		"REQUIRE",
		"security.md (Rules:5)",
		"speed.md (Shortcuts:3)",
		`"Never hardcode API keys."`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Report missing %q:\n%s", want, text)
		}
	}
}

func TestRenderErrorsToStderr(t *testing.T) {
	var out, errOut bytes.Buffer
	rep := &Report{
		Documents: 2, Rules: 1,
		Warnings: []Failure{{Path: "odd.md", Message: "invalid frontmatter: yaml: line 2: did not find expected key"}},
		Failures: []Failure{{Path: "broken.md", Message: "broken.md:7: unterminated fenced code block"}},
	}
	rep.Render(&out, &errOut)

	errText := errOut.String()
	if !strings.Contains(errText, "warning: odd.md") {
		t.Errorf("Missing warning line:\n%s", errText)
	}
	if !strings.Contains(errText, "error: broken.md") {
		t.Errorf("Missing error line:\n%s", errText)
	}
	if !strings.Contains(errText, "1 document(s) excluded from analysis") {
		t.Errorf("Missing exclusion count:\n%s", errText)
	}
	if strings.Contains(out.String(), "broken.md") {
		t.Error("Failures must not leak into stdout")
	}
}

func TestRenderIdempotent(t *testing.T) {
	rep := conflictReport()

	var first, second bytes.Buffer
	rep.Render(&first, &first)
	rep.Render(&second, &second)

	if first.String() != second.String() {
		t.Error("Rendering the same report twice must produce identical output")
	}
}
