package indexing

// RuleChunk represents one extracted rule in the search index
type RuleChunk struct {
	ID         string   `json:"id"`
	Document   string   `json:"document"`             // source document path
	Heading    string   `json:"heading"`              // section the rule came from
	Topic      string   `json:"topic"`                // canonical topic key
	Strength   string   `json:"strength"`             // REQUIRE / FORBID / RECOMMEND / DISCOURAGE
	Statement  string   `json:"statement"`            // verbatim rule text
	Line       int      `json:"line"`                 // 1-based line in the source file
	Breadcrumb string   `json:"breadcrumb,omitempty"` // "document > heading"
	Keywords   []string `json:"keywords,omitempty"`   // key terms for query expansion
	TokenCount int      `json:"token_count,omitempty"`
}
