package tools

import (
	"embed"
	"io/fs"
)

// Embed static data files into the binary so the server works standalone
// without external data files on the filesystem.
//
// Embedded files:
// - Frontmatter metadata schema (required for validate_rule_metadata)
// - Rule document template (required for generate_rule_doc)

//go:embed data/schema/frontmatter.json
//go:embed data/templates/rule-doc.md
var embeddedFS embed.FS

// embeddedDataProvider implements DataProvider using embed.FS.
// This is the production implementation that uses actual embedded files.
type embeddedDataProvider struct {
	fs embed.FS
}

// NewEmbeddedDataProvider creates a production DataProvider that uses embedded files.
func NewEmbeddedDataProvider() DataProvider {
	return &embeddedDataProvider{fs: embeddedFS}
}

// ReadFile reads the named file from the embedded filesystem.
func (p *embeddedDataProvider) ReadFile(name string) ([]byte, error) {
	return p.fs.ReadFile(name)
}

// ReadDir reads the named directory from the embedded filesystem.
func (p *embeddedDataProvider) ReadDir(name string) ([]fs.DirEntry, error) {
	return p.fs.ReadDir(name)
}

// Default provider used by package-level functions
var defaultDataProvider DataProvider = NewEmbeddedDataProvider()
