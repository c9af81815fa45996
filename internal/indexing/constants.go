package indexing

// Search index constants
const (
	// CharsPerToken is the approximation for token estimation
	CharsPerToken = 4

	// MaxKeywords caps the keyword list stored per chunk
	MaxKeywords = 10

	// IndexSchemaVersion increments when the chunk layout changes
	// v1: one chunk per extracted rule record with topic/strength metadata
	IndexSchemaVersion = 1
)
