package scq

// levelDescriptor holds the natural-language text for a feature at one of
// its three grade levels (1=low, 2=medium, 3=high).
type levelDescriptor struct {
	Low, Medium, High string
}

// Describe returns the descriptor text for a 1..3 grade, clamping out-of-range.
func (d levelDescriptor) Describe(grade int) string {
	switch {
	case grade <= 1:
		return d.Low
	case grade == 2:
		return d.Medium
	default:
		return d.High
	}
}

// FeatureDescriptors is the generator's 7x3 natural-language level table,
// rendered verbatim from scq_generator.py's `_generate_prompt` descriptor
// dicts, translated to English for the generalized (non-Chinese-only) prompt
// surface while preserving each level's exact semantic bound.
var FeatureDescriptors = map[string]levelDescriptor{
	FeatureStemLength: {
		Low:    "Stem length is short (10-25 characters).",
		Medium: "Stem length is medium (15-35 characters).",
		High:   "Stem length is long (over 20 characters).",
	},
	FeatureStemTermDensity: {
		Low:    "Stem uses few or no technical terms (0-2).",
		Medium: "Stem uses a moderate number of technical terms (2-4).",
		High:   "Stem uses many technical terms (3 or more).",
	},
	FeatureStemCognitiveLevel: {
		Low:    "Only requires recalling a fact.",
		Medium: "Requires understanding and synthesizing a concept.",
		High:   "Requires analysis, synthesis, or evaluation.",
	},
	FeatureOptionAverageLength: {
		Low:    "Options are short (1-5 characters).",
		Medium: "Options are medium length (3-8 characters).",
		High:   "Options are long (5 or more characters).",
	},
	FeatureOptionSimilarity: {
		Low:    "Options have low similarity to each other (under 30%).",
		Medium: "Options have moderate similarity to each other (around 45%).",
		High:   "Options have high similarity to each other (over 60%).",
	},
	FeatureStemOptionSimilarity: {
		Low:    "Stem and options have low relevance (under 30%).",
		Medium: "Stem and options have moderate relevance (around 45%).",
		High:   "Stem and options have high relevance (over 60%).",
	},
	FeatureHighDistractorCount: {
		Low:    "Contains 1 highly plausible distractor.",
		Medium: "Contains 2 highly plausible distractors.",
		High:   "Contains 3 or more highly plausible distractors.",
	},
}

// EvaluationRubric is the evaluator's 6x3 LLM scoring rubric for features
// 2-7 (feature 1, stem_length, is rule-based), rendered verbatim in meaning
// from scq_evaluator.py's `_evaluate_2_to_7` prompt text.
var EvaluationRubric = map[string]levelDescriptor{
	FeatureStemTermDensity: {
		Low:    "Few (0-2 terms)",
		Medium: "Moderate (3-4 terms)",
		High:   "Many (5 or more)",
	},
	FeatureStemCognitiveLevel: {
		Low:    "Recall (remembering facts)",
		Medium: "Understanding (conceptual comprehension)",
		High:   "Analysis/Evaluation (critical reasoning)",
	},
	FeatureOptionAverageLength: {
		Low:    "Short (1-4 words)",
		Medium: "Medium (5-8 words)",
		High:   "Long (9 or more words)",
	},
	FeatureOptionSimilarity: {
		Low:    "Low similarity",
		Medium: "Moderate similarity",
		High:   "High similarity",
	},
	FeatureStemOptionSimilarity: {
		Low:    "High relevance",
		Medium: "Moderate relevance",
		High:   "Low relevance",
	},
	FeatureHighDistractorCount: {
		Low:    "1 strong distractor",
		Medium: "2 strong distractors",
		High:   "3 strong distractors",
	},
}

// EvaluationFeatureOrder is FeatureOrder without stem_length, the features
// the evaluator's single LLM call scores, matching ScqFeatures.keys[1:].
var EvaluationFeatureOrder = FeatureOrder[1:]
