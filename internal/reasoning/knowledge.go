package reasoning

// seedKnowledge installs the foundational rules and patterns every fresh
// router starts from. Loaded snapshots replace these wholesale.
func seedKnowledge(r *Router) {
	rules := []SymbolicRule{
		{
			ID:            "rule_physics_force",
			Condition:     "moving heavy objects requires more force",
			Conclusion:    "expect greater force for heavier objects",
			Confidence:    0.9,
			EvidenceCount: 3,
			Category:      "causal",
		},
		{
			ID:            "rule_social_helping",
			Condition:     "helping a person in need",
			Conclusion:    "expect the person to feel supported",
			Confidence:    0.8,
			EvidenceCount: 2,
			Category:      "social",
		},
		{
			ID:            "rule_logical_transitivity",
			Condition:     "if a implies b and b implies c",
			Conclusion:    "therefore a implies c",
			Confidence:    0.95,
			EvidenceCount: 5,
			Category:      "logical",
		},
		{
			ID:            "rule_planning_decomposition",
			Condition:     "a large goal feels overwhelming",
			Conclusion:    "break the goal into smaller ordered steps",
			Confidence:    0.85,
			EvidenceCount: 2,
			Category:      "planning",
		},
	}
	for i := range rules {
		rule := rules[i]
		rule.Created = r.nowFunc()
		r.rules[rule.ID] = &rule
	}

	patterns := []NeuralPattern{
		{
			ID:               "pattern_creative_association",
			InputFeatures:    []string{"creative", "new", "idea", "imagine", "brainstorm"},
			OutputPrediction: "combine distant concepts to generate alternatives",
			Confidence:       0.7,
			SuccessRate:      0.6,
			ContextTags:      []string{"creative"},
		},
		{
			ID:               "pattern_social_empathy",
			InputFeatures:    []string{"person", "friend", "feeling", "relationship", "social"},
			OutputPrediction: "consider the other person's perspective first",
			Confidence:       0.75,
			SuccessRate:      0.65,
			ContextTags:      []string{"social"},
		},
		{
			ID:               "pattern_problem_reframing",
			InputFeatures:    []string{"problem", "stuck", "difficult", "solve"},
			OutputPrediction: "reframe the problem from a different angle",
			Confidence:       0.7,
			SuccessRate:      0.6,
			ContextTags:      []string{"problem_solving"},
		},
		{
			ID:               "pattern_learning_practice",
			InputFeatures:    []string{"learn", "practice", "skill", "improve"},
			OutputPrediction: "repeated practice with feedback improves the skill",
			Confidence:       0.8,
			SuccessRate:      0.7,
			ContextTags:      []string{"learning"},
		},
	}
	for i := range patterns {
		p := patterns[i]
		r.patterns[p.ID] = &p
	}
}
