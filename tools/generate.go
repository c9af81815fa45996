package tools

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/agentrules/rule-lint/internal/topics"
)

const ruleDocTemplateFile = "data/templates/rule-doc.md"

// GenerateRuleDocInput defines input for generate_rule_doc tool
type GenerateRuleDocInput struct {
	Topic       string   `json:"topic" jsonschema:"Topic key for the document (e.g. secrets, testing)"`
	Scope       string   `json:"scope,omitempty" jsonschema:"Where the rules apply: repo, directory, language or framework (optional, defaults to repo)"`
	Description string   `json:"description,omitempty" jsonschema:"One-line description for the frontmatter (optional)"`
	Directives  []string `json:"directives,omitempty" jsonschema:"Rule statements to seed the document with (optional)"`
}

// GenerateRuleDocOutput defines output for generate_rule_doc tool
type GenerateRuleDocOutput struct {
	Document string   `json:"document"`
	Topic    string   `json:"topic"`
	Warnings []string `json:"warnings,omitempty"`
}

// ruleDocData is the template context for the rule document skeleton
type ruleDocData struct {
	Topic       string
	Scope       string
	Description string
	Title       string
	Directives  []string
}

// GenerateRuleDoc renders a rule document skeleton with valid frontmatter
// and any seed directives, ready to be linted
func GenerateRuleDoc(ctx context.Context, req *mcp.CallToolRequest, input GenerateRuleDocInput) (*mcp.CallToolResult, GenerateRuleDocOutput, error) {
	if strings.TrimSpace(input.Topic) == "" {
		return nil, GenerateRuleDocOutput{}, fmt.Errorf("topic is required")
	}

	topic := topics.Canonical(input.Topic)

	var warnings []string
	if _, known := topics.Find(topic); !known {
		warnings = append(warnings, fmt.Sprintf("topic %q is not in the known catalog; conflict detection still works, but consider an alias", topic))
	}

	scope := input.Scope
	if scope == "" {
		scope = "repo"
	}
	switch scope {
	case "repo", "directory", "language", "framework":
	default:
		return nil, GenerateRuleDocOutput{}, fmt.Errorf("invalid scope %q: must be repo, directory, language or framework", scope)
	}

	description := input.Description
	if description == "" {
		description = fmt.Sprintf("Rules about %s", topic)
	}

	directives := input.Directives
	if len(directives) == 0 {
		directives = []string{
			fmt.Sprintf("Always document the %s conventions this project follows.", topic),
		}
	}

	tmplContent, err := defaultDataProvider.ReadFile(ruleDocTemplateFile)
	if err != nil {
		return nil, GenerateRuleDocOutput{}, fmt.Errorf("failed to read embedded template: %w", err)
	}

	tmpl, err := template.New("rule-doc").Parse(string(tmplContent))
	if err != nil {
		return nil, GenerateRuleDocOutput{}, fmt.Errorf("failed to parse template: %w", err)
	}

	data := ruleDocData{
		Topic:       topic,
		Scope:       scope,
		Description: description,
		Title:       titleFromTopic(topic),
		Directives:  directives,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, GenerateRuleDocOutput{}, fmt.Errorf("failed to render template: %w", err)
	}

	return nil, GenerateRuleDocOutput{
		Document: buf.String(),
		Topic:    topic,
		Warnings: warnings,
	}, nil
}

// titleFromTopic turns a topic key into a heading ("api-keys" -> "Api Keys")
func titleFromTopic(topic string) string {
	words := strings.Split(strings.ReplaceAll(topic, "-", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// RegisterGenerationTools registers the document generation tool
func RegisterGenerationTools(server *mcp.Server) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "generate_rule_doc",
			Description: "Generate a rule document skeleton with valid frontmatter and seed directives for a topic",
		},
		GenerateRuleDoc,
	)
}
