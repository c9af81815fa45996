package indexing

import (
	"regexp"
	"sort"
	"strings"
)

var markdownLinkRegex = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)

// StripMarkdownLinks removes markdown link syntax, keeping only the text
// Example: "[Text](url)" -> "Text"
func StripMarkdownLinks(text string) string {
	return markdownLinkRegex.ReplaceAllString(text, "$1")
}

// EstimateTokens estimates the token count for a text string
func EstimateTokens(text string) int {
	return len(text) / CharsPerToken
}

// ExtractKeywords extracts key terms from a rule's heading and statement
func ExtractKeywords(heading, statement string) []string {
	words := strings.Fields(strings.ToLower(heading))
	words = append(words, strings.Fields(strings.ToLower(statement))...)

	stopWords := map[string]bool{
		"the": true, "a": true, "an": true, "and": true, "or": true,
		"but": true, "in": true, "on": true, "at": true, "to": true,
		"for": true, "of": true, "as": true, "by": true, "is": true,
		"it": true, "be": true, "with": true, "from": true, "that": true,
		"not": true, "never": true, "always": true, "must": true,
		"should": true, "avoid": true, "do": true, "don't": true,
	}

	keywordMap := make(map[string]bool)
	for _, word := range words {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
		})
		if len(word) > 2 && !stopWords[word] {
			keywordMap[word] = true
		}
	}

	keywords := make([]string, 0, len(keywordMap))
	for word := range keywordMap {
		keywords = append(keywords, word)
	}
	// Stable ordering so re-indexing an unchanged corpus is a no-op
	sort.Strings(keywords)

	if len(keywords) > MaxKeywords {
		keywords = keywords[:MaxKeywords]
	}

	return keywords
}

// EnrichMetadata fills the derived fields of a chunk
func EnrichMetadata(chunk *RuleChunk) {
	var parts []string
	if chunk.Document != "" {
		parts = append(parts, chunk.Document)
	}
	if heading := StripMarkdownLinks(chunk.Heading); heading != "" {
		parts = append(parts, heading)
	}
	chunk.Breadcrumb = strings.Join(parts, " > ")

	chunk.Keywords = ExtractKeywords(chunk.Heading, chunk.Statement)
	chunk.TokenCount = EstimateTokens(chunk.Statement)
}
