package section

import (
	"fmt"
	"strings"
)

// FenceError reports a fenced code block that was opened but never closed.
// The document is excluded from extraction but the run continues.
type FenceError struct {
	Path string
	Line int // line of the opening fence
}

func (e *FenceError) Error() string {
	return fmt.Sprintf("%s:%d: unterminated fenced code block", e.Path, e.Line)
}

const fenceMarker = "```"

// Parse splits a document body into ordered, non-overlapping sections.
// A line of 1-6 leading # characters followed by a space opens a new section
// and closes the previous one. Lines inside a triple-backtick fence go into
// the current section's code-block list and are never treated as headings,
// even when they look like one. baseLine is the 1-based line number of the
// first body line in the source file (after any frontmatter).
func Parse(path, body string, baseLine int) ([]Section, error) {
	lines := strings.Split(body, "\n")

	var sections []Section
	var current *Section

	inFence := false
	var fence CodeBlock
	var fenceLines []string

	for i, line := range lines {
		lineNo := baseLine + i
		trimmed := strings.TrimSpace(line)

		if inFence {
			if isClosingFence(trimmed) {
				fence.Content = strings.Join(fenceLines, "\n")
				if current != nil {
					current.CodeBlocks = append(current.CodeBlocks, fence)
				}
				inFence = false
				fenceLines = nil
				continue
			}
			fenceLines = append(fenceLines, line)
			continue
		}

		if strings.HasPrefix(trimmed, fenceMarker) {
			inFence = true
			fence = CodeBlock{
				Language:  strings.TrimSpace(strings.TrimPrefix(trimmed, fenceMarker)),
				StartLine: lineNo,
			}
			fenceLines = nil
			continue
		}

		if depth, heading, ok := parseHeading(trimmed); ok {
			if current != nil {
				sections = append(sections, *current)
			}
			current = &Section{
				Heading:   heading,
				Depth:     depth,
				StartLine: lineNo,
			}
			continue
		}

		// Lines before the first heading belong to no section
		if current != nil {
			current.Lines = append(current.Lines, Line{No: lineNo, Text: line})
		}
	}

	if inFence {
		return nil, &FenceError{Path: path, Line: fence.StartLine}
	}

	if current != nil {
		sections = append(sections, *current)
	}
	return sections, nil
}

// parseHeading matches an ATX heading: 1-6 # characters then a space
func parseHeading(line string) (depth int, heading string, ok bool) {
	if !strings.HasPrefix(line, "#") {
		return 0, "", false
	}
	for depth < len(line) && line[depth] == '#' {
		depth++
	}
	if depth > 6 {
		return 0, "", false
	}
	if depth == len(line) {
		// A bare "#" line carries no heading text
		return 0, "", false
	}
	if line[depth] != ' ' && line[depth] != '\t' {
		return 0, "", false
	}
	return depth, strings.TrimSpace(line[depth:]), true
}

// isClosingFence matches a closing triple-backtick marker. A closing fence
// carries no info string; "```go" opens a fence, it never closes one.
func isClosingFence(trimmed string) bool {
	if !strings.HasPrefix(trimmed, fenceMarker) {
		return false
	}
	return strings.TrimRight(trimmed, "`") == ""
}
