package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentrules/rule-lint/internal/section"
)

func secWith(lines ...string) section.Section {
	sec := section.Section{Heading: "Rules", Depth: 2, StartLine: 10}
	for i, text := range lines {
		sec.Lines = append(sec.Lines, section.Line{No: 11 + i, Text: text})
	}
	return sec
}

func TestExtractStrengths(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		strength Strength
		topic    string
	}{
		{"never is FORBID", "- Never hardcode API keys in source files.", Forbid, "secrets"},
		{"must not is FORBID", "- You must not commit secrets to the repository.", Forbid, "secrets"},
		{"do not is FORBID", "- Do not use wildcard CORS origins.", Forbid, "cors"},
		{"don't is FORBID", "- Don't use console.log in production code.", Forbid, "logging"},
		{"always is REQUIRE", "- Always store secrets in environment variables.", Require, "secrets"},
		{"must is REQUIRE", "- You must write unit tests for new code.", Require, "testing"},
		{"should is RECOMMEND", "- You should write unit tests for new code.", Recommend, "testing"},
		{"avoid is DISCOURAGE", "- Avoid deeply nested error handling.", Discourage, "errors"},
		{"should not is DISCOURAGE", "- You should not disable strict mode.", Discourage, "typing"},
		{"always avoid combines to FORBID", "- Always avoid wildcard CORS origins.", Forbid, "cors"},
		{"should never combines to FORBID", "- You should never commit the .env file.", Forbid, "secrets"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, stats := Extract("rules.md", 0, secWith(tt.line))
			require.Len(t, records, 1)
			assert.Equal(t, tt.strength, records[0].Strength)
			assert.Equal(t, tt.topic, records[0].Topic)
			assert.Equal(t, 1, stats.Rules)
			assert.Equal(t, 0, stats.Skipped)
		})
	}
}

func TestExtractRecordFields(t *testing.T) {
	records, _ := Extract("guides/style.md", 3, secWith("- Never use tabs for indentation."))
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "guides/style.md", rec.DocPath)
	assert.Equal(t, 3, rec.DocOrder)
	assert.Equal(t, "Rules", rec.Heading)
	assert.Equal(t, 11, rec.Line)
	assert.Equal(t, "Never use tabs for indentation.", rec.Statement)
}

func TestExtractTopicResolution(t *testing.T) {
	t.Run("noun phrase after the marker", func(t *testing.T) {
		records, _ := Extract("a.md", 0, secWith("- Never hardcode API keys."))
		require.Len(t, records, 1)
		// leading verb stripped, alias resolves to the canonical key
		assert.Equal(t, "secrets", records[0].Topic)
	})

	t.Run("positive and negative phrasing share a topic", func(t *testing.T) {
		forbid, _ := Extract("a.md", 0, secWith("- Never hardcode API keys in source files."))
		require.Len(t, forbid, 1)

		required, _ := Extract("b.md", 1, secWith("- Always hardcode API keys for speed."))
		require.Len(t, required, 1)

		assert.Equal(t, forbid[0].Topic, required[0].Topic)
	})

	t.Run("unknown subject still groups", func(t *testing.T) {
		a, _ := Extract("a.md", 0, secWith("- Never use flurbnitz widgets."))
		b, _ := Extract("b.md", 1, secWith("- Always use flurbnitz widgets."))
		require.Len(t, a, 1)
		require.Len(t, b, 1)
		assert.Equal(t, a[0].Topic, b[0].Topic)
	})
}

func TestExtractSkipping(t *testing.T) {
	t.Run("imperative without marker is skipped", func(t *testing.T) {
		records, stats := Extract("a.md", 0, secWith("- Use your best judgement here."))
		assert.Empty(t, records)
		assert.Equal(t, 1, stats.Skipped)
	})

	t.Run("skipped sentences are kept for diagnostics", func(t *testing.T) {
		_, stats := Extract("a.md", 0, secWith(
			"- Use your best judgement here.",
			"- Never force-push to main.",
			"- Run the formatter first.",
		))
		assert.Equal(t, 1, stats.Rules)
		require.Len(t, stats.SkippedCandidates, 2)
		assert.Equal(t, stats.Skipped, len(stats.SkippedCandidates))
		assert.Equal(t, 11, stats.SkippedCandidates[0].Line)
		assert.Equal(t, "Use your best judgement here.", stats.SkippedCandidates[0].Text)
		assert.Equal(t, 13, stats.SkippedCandidates[1].Line)
		assert.Equal(t, "Run the formatter first.", stats.SkippedCandidates[1].Text)
	})

	t.Run("plain prose is neither extracted nor skipped", func(t *testing.T) {
		records, stats := Extract("a.md", 0, secWith("This project is a web service."))
		assert.Empty(t, records)
		assert.Equal(t, 0, stats.Skipped)
		assert.Equal(t, 0, stats.Rules)
	})

	t.Run("blank lines are ignored", func(t *testing.T) {
		records, stats := Extract("a.md", 0, secWith("", "   ", "- Never force-push to main."))
		assert.Len(t, records, 1)
		assert.Equal(t, 1, stats.Rules)
	})
}

func TestExtractProseSentences(t *testing.T) {
	// A prose line with two directive sentences yields two records
	line := "Always write tests for new endpoints. Never skip code review."
	records, stats := Extract("a.md", 0, secWith(line))
	require.Len(t, records, 2)
	assert.Equal(t, 2, stats.Rules)
	assert.Equal(t, Require, records[0].Strength)
	assert.Equal(t, Forbid, records[1].Strength)
}

func TestStrengthOpposes(t *testing.T) {
	assert.True(t, Require.Opposes(Forbid))
	assert.True(t, Forbid.Opposes(Require))
	assert.True(t, Recommend.Opposes(Discourage))
	assert.True(t, Discourage.Opposes(Recommend))

	// Hard versus soft is not a conflict
	assert.False(t, Require.Opposes(Discourage))
	assert.False(t, Forbid.Opposes(Recommend))
	assert.False(t, Require.Opposes(Require))
	assert.False(t, Require.Opposes(Recommend))
}
