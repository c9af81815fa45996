package rules

import (
	"regexp"
	"strings"

	"github.com/agentrules/rule-lint/internal/section"
	"github.com/agentrules/rule-lint/internal/topics"
)

// marker is one entry of the fixed directive vocabulary. hard separates
// binding markers (must, never) from advisory ones (should, avoid).
type marker struct {
	phrase   string
	negative bool
	hard     bool
}

// Longer phrases first so "must not" matches before "must"
var markers = []marker{
	{"must not", true, true},
	{"do not", true, true},
	{"don't", true, true},
	{"never", true, true},
	{"should not", true, false},
	{"shouldn't", true, false},
	{"avoid", true, false},
	{"always", false, true},
	{"must", false, true},
	{"should", false, false},
}

// directiveVerbs open imperative sentences. A candidate starting with one of
// these but carrying no marker is counted as skipped, not extracted.
var directiveVerbs = map[string]bool{
	"use": true, "prefer": true, "keep": true, "run": true, "write": true,
	"add": true, "check": true, "ensure": true, "verify": true, "follow": true,
	"update": true, "create": true, "remove": true, "delete": true, "ask": true,
}

// leadingVerbs are stripped from the front of a topic phrase so
// "hardcode API keys" resolves to the noun phrase "API keys"
var leadingVerbs = map[string]bool{
	"hardcode": true, "use": true, "write": true, "commit": true, "push": true,
	"add": true, "put": true, "store": true, "create": true, "expose": true,
	"enable": true, "disable": true, "return": true, "import": true,
	"install": true, "run": true, "deploy": true, "edit": true, "modify": true,
	"skip": true, "ignore": true, "leave": true, "log": true, "catch": true,
	"mix": true, "be": true, "have": true, "using": true, "writing": true,
	"include": true, "keep": true, "make": true, "set": true, "hardcoding": true,
	"committing": true, "rely": true, "trust": true,
}

var phraseStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"as": true, "by": true, "is": true, "it": true, "with": true, "from": true,
	"that": true, "this": true, "your": true, "any": true, "all": true,
	"every": true, "into": true, "when": true, "unless": true, "directly": true,
	"them": true, "they": true, "you": true, "we": true, "onto": true,
	"inside": true, "within": true, "speed": true, "convenience": true,
}

var bulletPrefix = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+`)
var sentenceSplit = regexp.MustCompile(`[.!?]\s+|[.!?]$`)

const maxTopicWords = 4

// Extract scans a parsed section and returns the directives it states.
// Extraction is best-effort: candidates without a marker or a resolvable
// topic bump the skip count and are otherwise ignored. Fenced code blocks
// are never scanned.
func Extract(docPath string, docOrder int, sec section.Section) ([]RuleRecord, Stats) {
	var records []RuleRecord
	var stats Stats

	for _, line := range sec.Lines {
		trimmed := strings.TrimSpace(line.Text)
		if trimmed == "" {
			continue
		}

		for _, candidate := range candidates(trimmed) {
			rec, ok := classify(candidate)
			if !ok {
				if looksImperative(candidate) {
					stats.Skipped++
					stats.SkippedCandidates = append(stats.SkippedCandidates, SkippedCandidate{
						Line: line.No,
						Text: candidate,
					})
				}
				continue
			}
			rec.DocPath = docPath
			rec.DocOrder = docOrder
			rec.Heading = sec.Heading
			rec.Line = line.No
			records = append(records, rec)
			stats.Rules++
		}
	}

	return records, stats
}

// candidates splits a body line into directive candidates: a bullet line is
// one candidate, a prose line is split into sentences.
func candidates(line string) []string {
	if m := bulletPrefix.FindString(line); m != "" {
		return []string{strings.TrimSpace(line[len(m):])}
	}

	var out []string
	for _, s := range sentenceSplit.Split(line, -1) {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// classify turns one candidate sentence into a RuleRecord. The statement is
// kept verbatim; strength combines the polarity and hardness of every
// marker present, so "always avoid X" classifies as FORBID rather than
// whichever marker happened to come first.
func classify(candidate string) (RuleRecord, bool) {
	words := tokenize(candidate)
	if len(words) == 0 {
		return RuleRecord{}, false
	}

	matched, firstIdx, width := matchMarkers(words)
	if len(matched) == 0 {
		return RuleRecord{}, false
	}

	negative := false
	hard := false
	for _, m := range matched {
		negative = negative || m.negative
		hard = hard || m.hard
	}

	var strength Strength
	switch {
	case negative && hard:
		strength = Forbid
	case negative:
		strength = Discourage
	case hard:
		strength = Require
	default:
		strength = Recommend
	}

	topic := topicPhrase(words, firstIdx, width)
	if topic == "" {
		return RuleRecord{}, false
	}

	return RuleRecord{
		Topic:     topics.Canonical(topic),
		Strength:  strength,
		Statement: candidate,
	}, true
}

// matchMarkers finds every directive marker in a token list, returning the
// index and width of the earliest match for topic-phrase anchoring
func matchMarkers(words []string) (found []marker, firstIdx, firstWidth int) {
	firstIdx = -1
	for i := 0; i < len(words); i++ {
		for _, m := range markers {
			parts := strings.Fields(m.phrase)
			if i+len(parts) > len(words) {
				continue
			}
			ok := true
			for j, p := range parts {
				if words[i+j] != p {
					ok = false
					break
				}
			}
			if ok {
				found = append(found, m)
				if firstIdx < 0 {
					firstIdx = i
					firstWidth = len(parts)
				}
				i += len(parts) - 1
				break
			}
		}
	}
	return found, firstIdx, firstWidth
}

// topicPhrase picks the noun phrase nearest the first marker: content words
// after it, falling back to content words before it.
func topicPhrase(words []string, markerIdx, markerWidth int) string {
	after := contentWords(words[markerIdx+markerWidth:])
	if len(after) > 0 {
		return strings.Join(capWords(after), " ")
	}

	before := contentWords(words[:markerIdx])
	if len(before) > 0 {
		if len(before) > maxTopicWords {
			before = before[len(before)-maxTopicWords:]
		}
		return strings.Join(before, " ")
	}

	return ""
}

func capWords(words []string) []string {
	if len(words) > maxTopicWords {
		return words[:maxTopicWords]
	}
	return words
}

// contentWords filters stopwords, other markers, and leading verbs from a
// token span
func contentWords(words []string) []string {
	markerWords := map[string]bool{}
	for _, m := range markers {
		for _, p := range strings.Fields(m.phrase) {
			markerWords[p] = true
		}
	}
	markerWords["not"] = true

	var out []string
	for _, w := range words {
		if phraseStopWords[w] || markerWords[w] {
			continue
		}
		if len(out) == 0 && leadingVerbs[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}

// looksImperative reports whether a marker-less candidate reads like an
// instruction, for skip accounting
func looksImperative(candidate string) bool {
	words := tokenize(candidate)
	return len(words) > 1 && directiveVerbs[words[0]]
}

func tokenize(candidate string) []string {
	lower := strings.ToLower(candidate)
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '\'' || r == '-' || r == '.')
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".-")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
