package reasoning

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nidhogg/cogito/internal/text"
)

const (
	patternActivationThreshold = 0.3
	maxPatternsPerChain        = 3
)

// patternActivation scores how strongly a stored pattern fires for the given
// problem features. Direct feature overlap carries most of the weight, with
// concept-level similarity, track record, and usage familiarity adding the
// rest. Capped at 1.0.
func patternActivation(problemText string, features map[string]bool, p *NeuralPattern) float64 {
	direct := 0
	for _, f := range p.InputFeatures {
		if features[f] {
			direct++
		}
	}
	directScore := 0.0
	if len(p.InputFeatures) > 0 {
		directScore = float64(direct) / float64(len(p.InputFeatures))
	}

	patternText := strings.ToLower(strings.Join(p.InputFeatures, " ") + " " + p.OutputPrediction)
	semanticScore := float64(semanticMatches(patternConcepts, problemText, patternText)) /
		float64(len(patternConcepts))

	usage := float64(p.UsageCount) / 10.0
	if usage > 0.1 {
		usage = 0.1
	}

	score := directScore*0.6 + semanticScore*0.4 + p.SuccessRate*0.2 + usage
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// reasonNeurally activates the patterns most similar to the problem and
// predicts from the strongest ones. Activation leaves a usage footprint on
// each pattern it fires.
func (r *Router) reasonNeurally(problemText string) branchResult {
	features := text.Set(text.Keywords(problemText))

	type activation struct {
		pattern *NeuralPattern
		score   float64
	}
	var fired []activation
	for _, p := range r.patterns {
		if s := patternActivation(problemText, features, p); s > patternActivationThreshold {
			fired = append(fired, activation{p, s})
		}
	}

	sort.Slice(fired, func(i, j int) bool {
		wi := fired[i].score * fired[i].pattern.SuccessRate
		wj := fired[j].score * fired[j].pattern.SuccessRate
		if wi != wj {
			return wi > wj
		}
		return fired[i].pattern.ID < fired[j].pattern.ID
	})
	if len(fired) > maxPatternsPerChain {
		fired = fired[:maxPatternsPerChain]
	}

	if len(fired) == 0 {
		return branchResult{
			chain:   []string{"no patterns activated above threshold"},
			success: false,
		}
	}

	var (
		chain []string
		used  []string
		total float64
	)
	now := time.Now()
	for _, a := range fired {
		chain = append(chain, fmt.Sprintf("pattern %s predicts: %s (activation %.2f, success rate %.2f)",
			a.pattern.ID, a.pattern.OutputPrediction, a.score, a.pattern.SuccessRate))
		used = append(used, a.pattern.ID)
		total += a.pattern.Confidence * a.score * a.pattern.SuccessRate
		a.pattern.UsageCount++
		a.pattern.LastUsed = now
	}

	confidence := total / float64(len(fired))
	return branchResult{
		chain:        chain,
		patternsUsed: used,
		confidence:   confidence,
		success:      confidence > 0.4,
	}
}
