package reasoning

import "fmt"

// categoryWeights gives the base symbolic/neural split per problem category.
// Formal domains lean symbolic, open-ended ones lean neural.
var categoryWeights = map[Category][2]float64{
	CategoryLogical:      {0.8, 0.2},
	CategoryCreative:     {0.2, 0.8},
	CategoryMoral:        {0.6, 0.4},
	CategoryPhysical:     {0.7, 0.3},
	CategorySocial:       {0.4, 0.6},
	CategoryMathematical: {0.9, 0.1},
	CategoryPlanning:     {0.7, 0.3},
	CategoryUnknown:      {0.5, 0.5},
}

// reasonHybrid runs both branches and blends them. Each branch's base weight
// grows with the confidence it reports, then the pair is renormalized so the
// weights stay a convex combination.
func (r *Router) reasonHybrid(problemText string, category Category) branchResult {
	symbolic := r.reasonSymbolically(problemText)
	neural := r.reasonNeurally(problemText)

	base, ok := categoryWeights[category]
	if !ok {
		base = categoryWeights[CategoryUnknown]
	}
	symWeight := base[0] * (1 + 0.3*symbolic.confidence)
	neuWeight := base[1] * (1 + 0.3*neural.confidence)
	total := symWeight + neuWeight
	symWeight /= total
	neuWeight /= total

	confidence := symWeight*symbolic.confidence + neuWeight*neural.confidence

	chain := make([]string, 0, len(symbolic.chain)+len(neural.chain)+1)
	chain = append(chain, symbolic.chain...)
	chain = append(chain, neural.chain...)
	chain = append(chain, fmt.Sprintf("hybrid integration: symbolic %.2f (weight %.2f), neural %.2f (weight %.2f)",
		symbolic.confidence, symWeight, neural.confidence, neuWeight))

	return branchResult{
		chain:         chain,
		rulesApplied:  symbolic.rulesApplied,
		patternsUsed:  neural.patternsUsed,
		confidence:    confidence,
		success:       confidence > 0.6 || (symbolic.success && neural.success),
		symbolicShare: symWeight,
		neuralShare:   neuWeight,
	}
}
