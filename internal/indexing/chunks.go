package indexing

import (
	"fmt"

	"github.com/agentrules/rule-lint/internal/rules"
)

// ChunksFromRecords converts extracted rule records into search chunks.
// Chunk IDs follow record order, which the loader keeps stable, so an
// unchanged corpus produces an identical index.
func ChunksFromRecords(records []rules.RuleRecord) []RuleChunk {
	chunks := make([]RuleChunk, 0, len(records))
	for i, rec := range records {
		chunk := RuleChunk{
			ID:        fmt.Sprintf("rule_%d", i),
			Document:  rec.DocPath,
			Heading:   rec.Heading,
			Topic:     rec.Topic,
			Strength:  string(rec.Strength),
			Statement: rec.Statement,
			Line:      rec.Line,
		}
		EnrichMetadata(&chunk)
		chunks = append(chunks, chunk)
	}
	return chunks
}
