package document

// Document represents one rule document loaded from the corpus tree
type Document struct {
	Path  string       // path relative to the scanned root
	Order int          // position in load order, stable across runs
	Topic string       // frontmatter topic, or a slug derived from the filename
	Body  string       // document text with frontmatter removed
	Meta  *Frontmatter // nil when the document has no frontmatter block

	// BodyLine is the 1-based line number in the source file where Body
	// starts. Needed so findings point at real file locations when a
	// frontmatter block precedes the content.
	BodyLine int
}

// Frontmatter holds the optional YAML metadata block of a rule document
type Frontmatter struct {
	Topic       string   `yaml:"topic"`
	Scope       string   `yaml:"scope"`
	Tags        []string `yaml:"tags"`
	Description string   `yaml:"description"`

	// Fields keeps the raw decoded mapping for schema validation
	Fields map[string]interface{} `yaml:"-"`
}

// Warning records a non-fatal problem found while loading the corpus
type Warning struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}
