package rules

// Strength classifies how binding a directive is
type Strength string

const (
	Require    Strength = "REQUIRE"    // always, must
	Forbid     Strength = "FORBID"     // never, do not, must not
	Recommend  Strength = "RECOMMEND"  // should
	Discourage Strength = "DISCOURAGE" // should not, avoid
)

// Negative reports whether the directive forbids rather than prescribes
func (s Strength) Negative() bool {
	return s == Forbid || s == Discourage
}

// Opposes reports whether two strengths on the same topic conflict.
// REQUIRE vs FORBID and RECOMMEND vs DISCOURAGE are conflicts; a hard
// directive against a soft one (REQUIRE vs DISCOURAGE) is not.
func (s Strength) Opposes(other Strength) bool {
	switch {
	case s == Require && other == Forbid, s == Forbid && other == Require:
		return true
	case s == Recommend && other == Discourage, s == Discourage && other == Recommend:
		return true
	}
	return false
}

// RuleRecord is one extracted directive. Records are ephemeral: recomputed
// on every run, never persisted.
type RuleRecord struct {
	DocPath   string   `json:"document"`
	DocOrder  int      `json:"-"`
	Heading   string   `json:"heading"`
	Line      int      `json:"line"`
	Topic     string   `json:"topic"`
	Strength  Strength `json:"strength"`
	Statement string   `json:"statement"`
}

// SkippedCandidate is an imperative sentence that carried no directive
// marker. Kept so verbose output can list what extraction passed over.
type SkippedCandidate struct {
	Line int    `json:"line"`
	Text string `json:"text"`
}

// Stats summarizes one extraction pass
type Stats struct {
	Rules             int                `json:"rules"`
	Skipped           int                `json:"skipped"` // candidate sentences with no usable marker or topic
	SkippedCandidates []SkippedCandidate `json:"skipped_candidates,omitempty"`
}
