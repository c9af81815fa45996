package document

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrRootNotFound indicates the corpus root is missing or not a directory.
// This is the only fatal load error; everything else is reported per file.
var ErrRootNotFound = errors.New("corpus root not found")

// recognizedExtensions are the file types treated as rule documents
var recognizedExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".mdx":      true,
	".txt":      true,
}

// Load walks the tree under root and returns a Document for every file with
// a recognized extension, in lexical walk order. A file that cannot be read
// or decoded as UTF-8 is recorded as a failure and the walk continues;
// lesser problems (malformed frontmatter) come back as warnings. A missing
// or unreadable root fails the whole load with ErrRootNotFound.
func Load(root string) ([]Document, []Warning, []Warning, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %s: %v", ErrRootNotFound, root, err)
	}
	if !info.IsDir() {
		return nil, nil, nil, fmt.Errorf("%w: %s is not a directory", ErrRootNotFound, root)
	}

	var docs []Document
	var warnings []Warning
	var failures []Warning

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return fmt.Errorf("%w: %s: %v", ErrRootNotFound, root, walkErr)
			}
			failures = append(failures, Warning{
				Path:    relPath(root, path),
				Message: fmt.Sprintf("unreadable: %v", walkErr),
			})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			// Hidden directories (.git, .obsidian, ...) hold no rule documents
			if name := d.Name(); path != root && strings.HasPrefix(name, ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !recognizedExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		rel := relPath(root, path)
		raw, err := os.ReadFile(path)
		if err != nil {
			failures = append(failures, Warning{
				Path:    rel,
				Message: fmt.Sprintf("unreadable: %v", err),
			})
			return nil
		}
		if !utf8.Valid(raw) {
			failures = append(failures, Warning{
				Path:    rel,
				Message: "not valid UTF-8 text",
			})
			return nil
		}

		doc, warn := build(rel, string(raw))
		if warn != nil {
			warnings = append(warnings, *warn)
		}
		doc.Order = len(docs)
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}

	return docs, warnings, failures, nil
}

// build assembles a Document from raw file content. A malformed frontmatter
// block degrades to a warning; the body is still linted.
func build(rel, raw string) (Document, *Warning) {
	doc := Document{
		Path:     rel,
		Body:     raw,
		BodyLine: 1,
		Topic:    TopicSlug(rel),
	}

	metaRaw, body, bodyLine, has := SplitFrontmatter(raw)
	if !has {
		return doc, nil
	}

	doc.Body = body
	doc.BodyLine = bodyLine

	meta, err := ParseFrontmatter(metaRaw)
	if err != nil {
		return doc, &Warning{
			Path:    rel,
			Message: fmt.Sprintf("invalid frontmatter: %v", err),
		}
	}

	doc.Meta = meta
	if meta.Topic != "" {
		doc.Topic = meta.Topic
	}
	return doc, nil
}

// TopicSlug derives a topic identifier from a document path
// Example: "nextjs/TypeScript Rules.md" -> "typescript-rules"
func TopicSlug(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	slug := strings.ToLower(strings.TrimSpace(base))
	slug = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, slug)
	slug = strings.Trim(strings.Join(strings.FieldsFunc(slug, func(r rune) bool { return r == '-' }), "-"), "-")
	return slug
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
