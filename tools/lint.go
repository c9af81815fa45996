package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/agentrules/rule-lint/internal/conflict"
	"github.com/agentrules/rule-lint/internal/document"
	"github.com/agentrules/rule-lint/internal/pipeline"
	"github.com/agentrules/rule-lint/internal/report"
)

const frontmatterSchemaFile = "data/schema/frontmatter.json"

// LintRulesInput defines input for lint_rules tool
type LintRulesInput struct {
	Root string `json:"root,omitempty" jsonschema:"Rule corpus directory to lint (optional, defaults to the configured corpus)"`
}

// LintRulesOutput defines output for lint_rules tool
type LintRulesOutput struct {
	Root      string             `json:"root"`
	Documents int                `json:"documents"`
	Sections  int                `json:"sections"`
	Rules     int                `json:"rules"`
	Skipped   int                `json:"skipped"`
	Findings  []conflict.Finding `json:"findings"`
	Warnings  []report.Failure   `json:"warnings,omitempty"`
	Failures  []report.Failure   `json:"failures,omitempty"`
	ExitCode  int                `json:"exit_code"`
	Summary   string             `json:"summary"`
}

// LintRules runs the full lint pipeline over a rule corpus and reports
// conflicting directives
func LintRules(ctx context.Context, req *mcp.CallToolRequest, input LintRulesInput) (*mcp.CallToolResult, LintRulesOutput, error) {
	root := input.Root
	if root == "" {
		root = CorpusRoot()
	}
	if root == "" {
		return nil, LintRulesOutput{}, fmt.Errorf("no rule corpus configured: pass a root or start the server with one")
	}

	startTime := time.Now()
	result, err := pipeline.Run(root)
	if err != nil {
		return nil, LintRulesOutput{}, fmt.Errorf("lint failed: %w", err)
	}
	log.Printf("lint_rules completed in %v", time.Since(startTime).Round(time.Millisecond))

	rep := result.Report

	var rendered bytes.Buffer
	rep.Render(&rendered, &rendered)

	output := LintRulesOutput{
		Root:      rep.Root,
		Documents: rep.Documents,
		Sections:  rep.Sections,
		Rules:     rep.Rules,
		Skipped:   rep.Skipped,
		Findings:  rep.Findings,
		Warnings:  rep.Warnings,
		Failures:  rep.Failures,
		ExitCode:  rep.ExitCode(),
		Summary:   rendered.String(),
	}

	return nil, output, nil
}

// MetadataError describes one schema violation in rule document frontmatter
type MetadataError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidateRuleMetadataInput defines input for validate_rule_metadata tool
type ValidateRuleMetadataInput struct {
	Document string `json:"document" jsonschema:"Rule document as Markdown content or a file path"`
}

// ValidateRuleMetadataOutput defines output for validate_rule_metadata tool
type ValidateRuleMetadataOutput struct {
	Valid          bool            `json:"valid"`
	HasFrontmatter bool            `json:"has_frontmatter"`
	Topic          string          `json:"topic,omitempty"`
	Scope          string          `json:"scope,omitempty"`
	Errors         []MetadataError `json:"errors,omitempty"`
	Summary        string          `json:"summary"`
}

// isFilePath determines if a string is a file path rather than Markdown content
// Returns true if it looks like a path, false if it looks like document text
func isFilePath(s string) bool {
	if s == "" {
		return false
	}

	// Frontmatter or Markdown content, not a path
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "---") || strings.HasPrefix(trimmed, "#") {
		return false
	}

	// Multi-line input is document content
	if strings.Contains(s, "\n") {
		return false
	}

	// Unix absolute path
	if strings.HasPrefix(s, "/") {
		return true
	}

	// Relative path
	if strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../") {
		return true
	}

	// Windows absolute path (C:\, D:\, etc.)
	if len(s) >= 3 && s[1] == ':' && (s[2] == '\\' || s[2] == '/') {
		return true
	}

	// Bare filename with a recognized extension
	for _, ext := range []string{".md", ".markdown", ".mdx", ".txt"} {
		if strings.HasSuffix(s, ext) {
			return true
		}
	}

	return false
}

// compileFrontmatterSchema compiles the embedded frontmatter schema
func compileFrontmatterSchema() (*jsonschema.Schema, error) {
	schemaContent, err := defaultDataProvider.ReadFile(frontmatterSchemaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded schema: %w", err)
	}

	var schemaDoc interface{}
	if err := json.Unmarshal(schemaContent, &schemaDoc); err != nil {
		return nil, fmt.Errorf("embedded schema is invalid JSON: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	// Compiler auto-detects the draft from the $schema field
	if err := compiler.AddResource("frontmatter.json", schemaDoc); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	schema, err := compiler.Compile("frontmatter.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return schema, nil
}

// collectSchemaErrors flattens jsonschema validation errors into our format
func collectSchemaErrors(validationErr *jsonschema.ValidationError) []MetadataError {
	var errs []MetadataError

	path := "$"
	if len(validationErr.InstanceLocation) > 0 {
		path = "$." + strings.Join(validationErr.InstanceLocation, ".")
	}

	if msg := validationErr.Error(); msg != "" {
		errs = append(errs, MetadataError{Path: path, Message: msg})
	}

	for _, cause := range validationErr.Causes {
		errs = append(errs, collectSchemaErrors(cause)...)
	}

	return errs
}

// ValidateRuleMetadata checks a rule document's YAML frontmatter against the
// embedded metadata schema
func ValidateRuleMetadata(ctx context.Context, req *mcp.CallToolRequest, input ValidateRuleMetadataInput) (*mcp.CallToolResult, ValidateRuleMetadataOutput, error) {
	content := input.Document

	if isFilePath(content) {
		data, err := os.ReadFile(content)
		if err != nil {
			return nil, ValidateRuleMetadataOutput{}, fmt.Errorf("failed to read document %s: %w", content, err)
		}
		content = string(data)
	}

	output := ValidateRuleMetadataOutput{}

	meta, _, _, has := document.SplitFrontmatter(content)
	if !has {
		output.Valid = true
		output.Summary = "Document has no frontmatter block (metadata is optional)"
		return nil, output, nil
	}
	output.HasFrontmatter = true

	var fields map[string]interface{}
	if err := yaml.Unmarshal([]byte(meta), &fields); err != nil {
		output.Errors = append(output.Errors, MetadataError{
			Path:    "$",
			Message: fmt.Sprintf("frontmatter is not valid YAML: %v", err),
		})
		output.Summary = "Frontmatter could not be parsed"
		return nil, output, nil
	}

	schema, err := compileFrontmatterSchema()
	if err != nil {
		return nil, output, err
	}

	if err := schema.Validate(toJSONValue(fields)); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			output.Errors = collectSchemaErrors(validationErr)
		} else {
			output.Errors = append(output.Errors, MetadataError{Path: "$", Message: err.Error()})
		}
		output.Summary = fmt.Sprintf("Frontmatter validation failed with %d error(s)", len(output.Errors))
		return nil, output, nil
	}

	output.Valid = true
	if topic, ok := fields["topic"].(string); ok {
		output.Topic = topic
	}
	if scope, ok := fields["scope"].(string); ok {
		output.Scope = scope
	}
	output.Summary = "Frontmatter is valid"

	return nil, output, nil
}

// toJSONValue converts YAML-decoded values into the types the schema
// validator expects. yaml.v3 produces map[string]interface{} already, but
// nested maps can come back keyed by interface{}.
func toJSONValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = toJSONValue(item)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[fmt.Sprintf("%v", k)] = toJSONValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = toJSONValue(item)
		}
		return out
	default:
		return v
	}
}

// RegisterLintTools registers the lint and metadata validation tools
func RegisterLintTools(server *mcp.Server) error {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "lint_rules",
			Description: "Lint a directory of AI agent rule documents: extract directives, resolve their topics and report contradictory pairs.",
		},
		LintRules,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "validate_rule_metadata",
			Description: "Validate the YAML frontmatter of a rule document against the metadata schema",
		},
		ValidateRuleMetadata,
	)

	return nil
}
