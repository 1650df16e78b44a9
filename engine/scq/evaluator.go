package scq

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/mfshiu/wastepro/engine/llmjson"
)

// Evaluator scores an existing question on the 7-feature scale: feature 1
// (stem_length) rule-based, features 2-7 via a single LLM call, per spec
// §4.8.
type Evaluator struct {
	chat Chat
}

func NewEvaluator(chat Chat) *Evaluator {
	return &Evaluator{chat: chat}
}

var (
	chineseCharRe = regexp.MustCompile(`[\x{4e00}-\x{9fff}]`)
	englishWordRe = regexp.MustCompile(`[a-zA-Z]+`)
)

// gradeStemLength counts CJK characters and Latin words separately, picks
// the larger as the dominant language, and applies language-specific
// thresholds, matching scq_evaluator.py's `grade_stem_length` exactly.
func gradeStemLength(stem string) int {
	chineseCount := len(chineseCharRe.FindAllString(stem, -1))
	englishCount := len(englishWordRe.FindAllString(stem, -1))
	total := chineseCount + englishCount
	isChinese := chineseCount >= englishCount

	if isChinese {
		switch {
		case total <= 15:
			return 1
		case total <= 30:
			return 2
		default:
			return 3
		}
	}
	switch {
	case total <= 10:
		return 1
	case total <= 20:
		return 2
	default:
		return 3
	}
}

// Evaluate runs both the rule-based and LLM-scored halves and returns the
// full 7-feature vector.
func (e *Evaluator) Evaluate(ctx context.Context, q Question) (Evaluation, error) {
	grades := FeatureVector{
		FeatureStemLength: gradeStemLength(q.Stem),
	}

	llmGrades, err := e.evaluateLLMFeatures(ctx, q)
	if err != nil {
		return nil, err
	}
	for k, v := range llmGrades {
		grades[k] = v
	}
	return Evaluation(grades), nil
}

// evaluateLLMFeatures calls the LLM once for features 2-7; on an invalid
// response it retries once, then falls back to an all-2s sentinel so the
// generator's evaluator loop always has a usable grade, per spec §4.8.
func (e *Evaluator) evaluateLLMFeatures(ctx context.Context, q Question) (FeatureVector, error) {
	questionJSON, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("scq: marshal question for evaluation: %w", err)
	}
	prompt := renderEvaluationPrompt(string(questionJSON))

	for attempt := 0; attempt < 2; attempt++ {
		raw, err := e.chat.Ask(ctx, prompt)
		if err != nil {
			continue
		}
		var grades FeatureVector
		if err := json.Unmarshal([]byte(llmjson.Fix(raw)), &grades); err != nil {
			continue
		}
		if complete(grades) {
			return grades, nil
		}
	}

	sentinel := make(FeatureVector, len(EvaluationFeatureOrder))
	for _, name := range EvaluationFeatureOrder {
		sentinel[name] = 2
	}
	return sentinel, nil
}

func complete(v FeatureVector) bool {
	for _, name := range EvaluationFeatureOrder {
		g, ok := v[name]
		if !ok || g < 1 || g > 3 {
			return false
		}
	}
	return true
}
