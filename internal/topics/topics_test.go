package topics

import "testing"

func TestLoadCatalog(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Failed to load embedded catalog: %v", err)
	}
	if len(c.Topics) == 0 {
		t.Fatal("Catalog has no topics")
	}
	for _, topic := range c.Topics {
		if topic.Key == "" {
			t.Error("Topic with empty key")
		}
		if len(topic.Aliases) == 0 {
			t.Errorf("Topic %s has no aliases", topic.Key)
		}
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		phrase string
		want   string
	}{
		// Exact alias matches
		{"api keys", "secrets"},
		{"API Keys", "secrets"},
		{"cross-origin", "cors"},
		{".env", "secrets"},
		{"console.log", "logging"},
		{"strict mode", "typing"},

		// Alias contained in a longer phrase
		{"api keys source files", "secrets"},
		{"wildcard cors origins", "cors"},
		{"deeply nested error handling", "errors"},
		{"unit tests new code", "testing"},

		// The key itself is always canonical
		{"secrets", "secrets"},
		{"testing", "testing"},

		// Unknown phrases fall back to a hyphenated slug
		{"flurbnitz widgets", "flurbnitz-widgets"},
		{"Code Review", "code-review"},

		// Degenerate input
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := Canonical(tt.phrase); got != tt.want {
			t.Errorf("Canonical(%q) = %q, want %q", tt.phrase, got, tt.want)
		}
	}
}

func TestCanonicalWordBoundaries(t *testing.T) {
	// "ci" must not match inside other words
	if got := Canonical("circular dependencies"); got != "dependencies" {
		t.Errorf("Canonical(\"circular dependencies\") = %q, want dependencies", got)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"API Keys!", "api keys"},
		{"cross-origin", "cross origin"},
		{".env", "env"},
		{"  spaced   out  ", "spaced out"},
		{"console.log()", "console log"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKeysAndFind(t *testing.T) {
	keys := Keys()
	if len(keys) == 0 {
		t.Fatal("Keys returned nothing")
	}

	topic, ok := Find("secrets")
	if !ok {
		t.Fatal("Find(secrets) should succeed")
	}
	if topic.Category != "security" {
		t.Errorf("Expected security category, got %q", topic.Category)
	}

	if _, ok := Find("no-such-topic"); ok {
		t.Error("Find should fail for unknown keys")
	}
}
