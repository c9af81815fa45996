package document

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontmatterDelimiter = "---"

// SplitFrontmatter separates a leading YAML frontmatter block from the
// document body. The block must start on the very first line and is closed
// by the next line consisting solely of "---". bodyLine is the 1-based line
// number of the first body line in the original file.
func SplitFrontmatter(raw string) (meta string, body string, bodyLine int, has bool) {
	lines := strings.Split(raw, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != frontmatterDelimiter {
		return "", raw, 1, false
	}

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == frontmatterDelimiter {
			meta = strings.Join(lines[1:i], "\n")
			body = strings.Join(lines[i+1:], "\n")
			return meta, body, i + 2, true
		}
	}

	// Opening delimiter with no closing one: treat the whole file as body
	// rather than swallowing the document into a metadata block.
	return "", raw, 1, false
}

// ParseFrontmatter decodes a YAML frontmatter block. The raw mapping is kept
// alongside the typed fields so it can be validated against the metadata
// schema.
func ParseFrontmatter(meta string) (*Frontmatter, error) {
	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(meta), &fm); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}

	var fields map[string]interface{}
	if err := yaml.Unmarshal([]byte(meta), &fields); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	fm.Fields = fields

	return &fm, nil
}
