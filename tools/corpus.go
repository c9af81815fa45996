package tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/agentrules/rule-lint/internal/pipeline"
	"github.com/agentrules/rule-lint/internal/topics"
)

// TopicStats summarizes the rules recorded under one topic key
type TopicStats struct {
	Topic      string         `json:"topic"`
	Rules      int            `json:"rules"`
	ByStrength map[string]int `json:"by_strength"`
	Documents  []string       `json:"documents"`
}

// InspectRuleCorpusInput defines input for inspect_rule_corpus tool
type InspectRuleCorpusInput struct {
	Root string `json:"root,omitempty" jsonschema:"Rule corpus directory to inspect (optional, defaults to the configured corpus)"`
}

// InspectRuleCorpusOutput defines output for inspect_rule_corpus tool
type InspectRuleCorpusOutput struct {
	Root          string       `json:"root"`
	Documents     int          `json:"documents"`
	Sections      int          `json:"sections"`
	Rules         int          `json:"rules"`
	Skipped       int          `json:"skipped"`
	Conflicts     int          `json:"conflicts"`
	Topics        []TopicStats `json:"topics"`
	KnownTopics   []string     `json:"known_topics"`
	UnknownTopics []string     `json:"unknown_topics"`
}

// InspectRuleCorpus reports per-topic statistics for a rule corpus without
// rendering the full conflict report
func InspectRuleCorpus(ctx context.Context, req *mcp.CallToolRequest, input InspectRuleCorpusInput) (*mcp.CallToolResult, InspectRuleCorpusOutput, error) {
	root := input.Root
	if root == "" {
		root = CorpusRoot()
	}
	if root == "" {
		return nil, InspectRuleCorpusOutput{}, fmt.Errorf("no rule corpus configured: pass a root or start the server with one")
	}

	result, err := pipeline.Run(root)
	if err != nil {
		return nil, InspectRuleCorpusOutput{}, fmt.Errorf("corpus inspection failed: %w", err)
	}

	byTopic := make(map[string]*TopicStats)
	docSeen := make(map[string]map[string]bool)
	for _, rec := range result.Records {
		stats, ok := byTopic[rec.Topic]
		if !ok {
			stats = &TopicStats{Topic: rec.Topic, ByStrength: make(map[string]int)}
			byTopic[rec.Topic] = stats
			docSeen[rec.Topic] = make(map[string]bool)
		}
		stats.Rules++
		stats.ByStrength[string(rec.Strength)]++
		if !docSeen[rec.Topic][rec.DocPath] {
			docSeen[rec.Topic][rec.DocPath] = true
			stats.Documents = append(stats.Documents, rec.DocPath)
		}
	}

	catalog := make(map[string]bool)
	for _, key := range topics.Keys() {
		catalog[key] = true
	}

	output := InspectRuleCorpusOutput{
		Root:      result.Report.Root,
		Documents: result.Report.Documents,
		Sections:  result.Report.Sections,
		Rules:     result.Report.Rules,
		Skipped:   result.Report.Skipped,
		Conflicts: len(result.Report.Findings),
	}

	for _, stats := range byTopic {
		sort.Strings(stats.Documents)
		output.Topics = append(output.Topics, *stats)
		if catalog[stats.Topic] {
			output.KnownTopics = append(output.KnownTopics, stats.Topic)
		} else {
			output.UnknownTopics = append(output.UnknownTopics, stats.Topic)
		}
	}

	// Busiest topics first, ties broken alphabetically for stable output
	sort.Slice(output.Topics, func(i, j int) bool {
		if output.Topics[i].Rules != output.Topics[j].Rules {
			return output.Topics[i].Rules > output.Topics[j].Rules
		}
		return output.Topics[i].Topic < output.Topics[j].Topic
	})
	sort.Strings(output.KnownTopics)
	sort.Strings(output.UnknownTopics)

	return nil, output, nil
}

// RegisterCorpusTools registers the corpus inspection tool
func RegisterCorpusTools(server *mcp.Server) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "inspect_rule_corpus",
			Description: "Summarize a rule corpus: rule counts per topic and strength, which documents contribute to each topic, and which topic keys fall outside the known catalog.",
		},
		InspectRuleCorpus,
	)
}
