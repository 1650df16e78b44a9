// Package scq samples a feature-weight combination matching a caller's
// target difficulty, drives the LLM to render a single-choice question
// against it, and scores an existing question back onto the same scale.
// Grounded on generation/scq_generator.py and evaluation/scq_evaluator.py.
package scq

// Feature names, in the fixed order the weight vector and prompt rendering
// both index by, per spec §3.
const (
	FeatureStemLength              = "stem_length"
	FeatureStemTermDensity         = "stem_technical_term_density"
	FeatureStemCognitiveLevel      = "stem_cognitive_level"
	FeatureOptionAverageLength     = "option_average_length"
	FeatureOptionSimilarity        = "option_similarity"
	FeatureStemOptionSimilarity    = "stem_option_similarity"
	FeatureHighDistractorCount     = "high_distractor_count"
)

// FeatureOrder lists the 7 features in weight-vector order.
var FeatureOrder = []string{
	FeatureStemLength,
	FeatureStemTermDensity,
	FeatureStemCognitiveLevel,
	FeatureOptionAverageLength,
	FeatureOptionSimilarity,
	FeatureStemOptionSimilarity,
	FeatureHighDistractorCount,
}

// Weights mirrors scq_generator.py's `weights = [1, 1, 1.5, 1, 1, 1, 1.2]`.
var Weights = map[string]float64{
	FeatureStemLength:           1,
	FeatureStemTermDensity:      1,
	FeatureStemCognitiveLevel:   1.5,
	FeatureOptionAverageLength:  1,
	FeatureOptionSimilarity:     1,
	FeatureStemOptionSimilarity: 1,
	FeatureHighDistractorCount:  1.2,
}

// DifficultyToTarget resolves scq_generator.py's difficulty_mapping.
var DifficultyToTarget = map[int]float64{
	30: 10,
	50: 14,
	70: 18,
}

// FeatureVector holds a 1..3 grade per feature, keyed by FeatureOrder's names.
type FeatureVector map[string]int

// WeightedGrade computes G(v) = Σ vᵢ·wᵢ.
func (v FeatureVector) WeightedGrade() float64 {
	var sum float64
	for name, grade := range v {
		sum += float64(grade) * Weights[name]
	}
	return sum
}

// QuestionCriteria is the generator's input parcel, per spec §4.7.
type QuestionCriteria struct {
	QuestionID string   `json:"question_id"`
	Subject    string   `json:"subject"`
	Document   string   `json:"document"`
	Section    []string `json:"section,omitempty"`
	Difficulty int      `json:"difficulty"`

	// Enriched by the generator before the output parcel is published.
	FeatureLevels  FeatureVector `json:"feature_levels,omitempty"`
	WeightedGrade  float64       `json:"weighted_grade,omitempty"`
}

// Question is the generator's rendered output, plus its accepted answer key.
type Question struct {
	Stem     string `json:"stem"`
	OptionA  string `json:"option_A"`
	OptionB  string `json:"option_B"`
	OptionC  string `json:"option_C"`
	OptionD  string `json:"option_D"`
	Answer   string `json:"answer"`
}

// GeneratedQuestion is the generator's full output parcel.
type GeneratedQuestion struct {
	QuestionCriteria QuestionCriteria `json:"question_criteria"`
	Question         Question         `json:"question"`
}

// ErrorPlaceholder is the reserved fallback question emitted when the LLM
// returns malformed or empty data, per spec §4.7 step 8.
func ErrorPlaceholder() Question {
	return Question{
		Stem:    "【系統錯誤】This question could not be generated; please retry.",
		OptionA: "N/A",
		OptionB: "N/A",
		OptionC: "N/A",
		OptionD: "N/A",
		Answer:  "D",
	}
}

// Evaluation is the evaluator's full 7-feature score, feature 1 rule-based
// and features 2-7 LLM-scored, per spec §4.8.
type Evaluation FeatureVector
