package reasoning

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nidhogg/cogito/internal/text"
)

const (
	ruleMatchThreshold = 0.15
	maxRulesPerChain   = 5
	ruleApplyMinimum   = 0.5
)

// ruleMatchScore blends direct keyword overlap with concept-level matches.
// Keyword overlap dominates; the semantic term keeps loosely worded rules
// reachable.
func ruleMatchScore(problemText string, problemKeys map[string]bool, rule *SymbolicRule) float64 {
	ruleText := rule.Condition + " " + rule.Conclusion
	ruleKeys := text.Keywords(ruleText)

	keywordScore := text.OverlapRatio(ruleKeys, problemKeys)
	semanticScore := float64(semanticMatches(ruleConcepts, problemText, strings.ToLower(ruleText))) /
		float64(len(ruleConcepts))

	return 0.7*keywordScore + 0.3*semanticScore
}

// reasonSymbolically runs forward chaining over the matching rules. Rules are
// ranked by confidence weighted with accumulated evidence, and only the
// strongest few contribute to the chain.
func (r *Router) reasonSymbolically(problemText string) branchResult {
	problemKeys := text.Set(text.Keywords(problemText))

	type scored struct {
		rule  *SymbolicRule
		score float64
	}
	var matched []scored
	for _, rule := range r.rules {
		if s := ruleMatchScore(problemText, problemKeys, rule); s > ruleMatchThreshold {
			matched = append(matched, scored{rule, s})
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		wi := matched[i].rule.Confidence * float64(matched[i].rule.EvidenceCount)
		wj := matched[j].rule.Confidence * float64(matched[j].rule.EvidenceCount)
		if wi != wj {
			return wi > wj
		}
		return matched[i].rule.ID < matched[j].rule.ID
	})
	if len(matched) > maxRulesPerChain {
		matched = matched[:maxRulesPerChain]
	}

	var (
		chain   []string
		applied []string
		total   float64
	)
	for _, m := range matched {
		if m.rule.Confidence <= ruleApplyMinimum {
			chain = append(chain, fmt.Sprintf("considered but skipped low-confidence rule: %s", m.rule.Condition))
			continue
		}
		chain = append(chain, fmt.Sprintf("applied rule: %s -> %s (confidence %.2f)",
			m.rule.Condition, m.rule.Conclusion, m.rule.Confidence))
		applied = append(applied, m.rule.ID)
		total += m.rule.Confidence
	}

	if len(applied) == 0 {
		return branchResult{
			chain:   append(chain, "no applicable rules found"),
			success: false,
		}
	}

	confidence := total / float64(len(applied))
	return branchResult{
		chain:        chain,
		rulesApplied: applied,
		confidence:   confidence,
		success:      confidence > 0.5,
	}
}
