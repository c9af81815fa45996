// Package topics maps the noun phrases found near directive markers onto a
// fixed vocabulary of canonical topic keys. The catalog is embedded so the
// mapping is deterministic: the same corpus always yields the same keys.
package topics

import (
	_ "embed"
	"encoding/json"
	"sort"
	"strings"
	"sync"
)

//go:embed catalog.json
var catalogData []byte

// Topic is one canonical subject area directives can address
type Topic struct {
	Key         string   `json:"key"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Aliases     []string `json:"aliases"`
}

// Catalog is the embedded topic vocabulary
type Catalog struct {
	Version     string  `json:"version"`
	LastUpdated string  `json:"last_updated"`
	Topics      []Topic `json:"topics"`
}

var (
	loadOnce sync.Once
	loadErr  error
	catalog  *Catalog

	// aliases sorted longest-first so "api keys" wins over "api"
	orderedAliases []string
	aliasToKey     map[string]string
)

// Load parses the embedded catalog. Safe to call repeatedly; the catalog is
// decoded once.
func Load() (*Catalog, error) {
	loadOnce.Do(func() {
		var c Catalog
		if err := json.Unmarshal(catalogData, &c); err != nil {
			loadErr = err
			return
		}
		catalog = &c

		aliasToKey = make(map[string]string)
		for _, t := range c.Topics {
			aliasToKey[t.Key] = t.Key
			orderedAliases = append(orderedAliases, t.Key)
			for _, a := range t.Aliases {
				norm := Normalize(a)
				aliasToKey[norm] = t.Key
				orderedAliases = append(orderedAliases, norm)
			}
		}
		sort.Slice(orderedAliases, func(i, j int) bool {
			if len(orderedAliases[i]) != len(orderedAliases[j]) {
				return len(orderedAliases[i]) > len(orderedAliases[j])
			}
			return orderedAliases[i] < orderedAliases[j]
		})
	})
	return catalog, loadErr
}

// Canonical resolves a noun phrase to a topic key. Exact alias matches win;
// otherwise the longest alias contained in the phrase decides. Phrases that
// match nothing in the catalog return the normalized phrase itself so
// unknown subjects still group with each other.
func Canonical(phrase string) string {
	if _, err := Load(); err != nil {
		return Normalize(phrase)
	}

	norm := Normalize(phrase)
	if norm == "" {
		return ""
	}
	if key, ok := aliasToKey[norm]; ok {
		return key
	}

	padded := " " + norm + " "
	for _, alias := range orderedAliases {
		if strings.Contains(padded, " "+alias+" ") {
			return aliasToKey[alias]
		}
	}

	return strings.ReplaceAll(norm, " ", "-")
}

// Keys returns all canonical topic keys in catalog order
func Keys() []string {
	c, err := Load()
	if err != nil {
		return nil
	}
	keys := make([]string, 0, len(c.Topics))
	for _, t := range c.Topics {
		keys = append(keys, t.Key)
	}
	return keys
}

// Find returns the catalog entry for a canonical key
func Find(key string) (Topic, bool) {
	c, err := Load()
	if err != nil {
		return Topic{}, false
	}
	for _, t := range c.Topics {
		if t.Key == key {
			return t, true
		}
	}
	return Topic{}, false
}

// Normalize lowercases a phrase and strips everything but letters, digits
// and single inner spaces. Dots and hyphens count as word joins so ".env"
// and "cross-origin" survive as "env" and "cross origin".
func Normalize(phrase string) string {
	lower := strings.ToLower(strings.TrimSpace(phrase))
	var b strings.Builder
	lastSpace := true
	for _, r := range lower {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastSpace = false
		case r == '-':
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		default:
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}
