// Package conflict finds pairs of rule records that pull an agent in
// opposite directions on the same topic.
package conflict

import (
	"fmt"
	"sort"

	"github.com/agentrules/rule-lint/internal/rules"
)

// Finding is one conflicting pair. A and B are ordered by document load
// order, then line, so a pair is reported exactly once.
type Finding struct {
	Topic       string           `json:"topic"`
	A           rules.RuleRecord `json:"first"`
	B           rules.RuleRecord `json:"second"`
	Explanation string           `json:"explanation"`
}

// Detect compares all rule records pairwise within each topic group and
// returns the conflicting pairs. Output order is deterministic: topic key,
// then the first record's load position, then the second's.
func Detect(records []rules.RuleRecord) []Finding {
	byTopic := make(map[string][]rules.RuleRecord)
	for _, r := range records {
		byTopic[r.Topic] = append(byTopic[r.Topic], r)
	}

	var findings []Finding
	for topic, group := range byTopic {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return earlier(group[i], group[j]) })

		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if !a.Strength.Opposes(b.Strength) {
					continue
				}
				findings = append(findings, Finding{
					Topic:       topic,
					A:           a,
					B:           b,
					Explanation: explain(topic, a, b),
				})
			}
		}
	}

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Topic != findings[j].Topic {
			return findings[i].Topic < findings[j].Topic
		}
		if !sameRecord(findings[i].A, findings[j].A) {
			return earlier(findings[i].A, findings[j].A)
		}
		return earlier(findings[i].B, findings[j].B)
	})

	return findings
}

func explain(topic string, a, b rules.RuleRecord) string {
	return fmt.Sprintf("%s (%s) states %s on %q while %s (%s) states %s",
		a.DocPath, a.Heading, a.Strength, topic, b.DocPath, b.Heading, b.Strength)
}

func earlier(a, b rules.RuleRecord) bool {
	if a.DocOrder != b.DocOrder {
		return a.DocOrder < b.DocOrder
	}
	return a.Line < b.Line
}

func sameRecord(a, b rules.RuleRecord) bool {
	return a.DocOrder == b.DocOrder && a.Line == b.Line && a.Statement == b.Statement
}
