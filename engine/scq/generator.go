package scq

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"github.com/mfshiu/wastepro/engine/domain"
	"github.com/mfshiu/wastepro/engine/kg"
	"github.com/mfshiu/wastepro/engine/llmjson"
	"github.com/mfshiu/wastepro/engine/rank"
)

// Chat is the minimal LLM surface the generator needs.
type Chat interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// ConceptQuerier is the KG surface needed to resolve the candidate concept set.
type ConceptQuerier interface {
	ConceptsQuery(ctx context.Context, document string, section []string) ([]kg.SavedNode, error)
	FactFactPaths(ctx context.Context, factElementID string) ([]kg.Triplet, error)
}

// Generator runs spec §4.7's full procedure, optionally closing the loop
// with an Evaluator when configured on.
type Generator struct {
	kgStore       ConceptQuerier
	ranker        rank.Ranker
	chat          Chat
	evaluator     *Evaluator // nil disables the evaluator loop
	rng           *rand.Rand
}

// GeneratorOpts configures the optional evaluator loop.
type GeneratorOpts struct {
	Evaluator *Evaluator
}

func NewGenerator(store ConceptQuerier, ranker rank.Ranker, chat Chat, opts GeneratorOpts) *Generator {
	return &Generator{
		kgStore:   store,
		ranker:    ranker,
		chat:      chat,
		evaluator: opts.Evaluator,
		rng:       rand.New(rand.NewSource(rand.Int63())),
	}
}

const (
	minMaterials  = 10
	maxDraws      = 10
	maxRetries    = 3
	acceptDelta   = 1.5
)

// Generate runs the full procedure in spec §4.7 for one QuestionCriteria.
func (g *Generator) Generate(ctx context.Context, criteria QuestionCriteria) (GeneratedQuestion, error) {
	target, ok := DifficultyToTarget[criteria.Difficulty]
	if !ok {
		return GeneratedQuestion{}, fmt.Errorf("%w: unsupported difficulty %d", domain.ErrConfig, criteria.Difficulty)
	}

	concepts, err := g.kgStore.ConceptsQuery(ctx, criteria.Document, criteria.Section)
	if err != nil {
		return GeneratedQuestion{}, fmt.Errorf("scq: concepts query: %w", err)
	}
	if len(concepts) == 0 {
		return GeneratedQuestion{}, domain.ErrNoConcepts
	}

	if g.evaluator == nil {
		return g.attempt(ctx, criteria, target, concepts)
	}
	return g.generateWithEvaluatorLoop(ctx, criteria, target, concepts)
}

// generateWithEvaluatorLoop retries up to maxRetries times, accepting the
// first attempt whose evaluator-scored grade is within acceptDelta of the
// target, else returning the attempt with the smallest distance, per spec
// §4.7's optional evaluator loop.
func (g *Generator) generateWithEvaluatorLoop(ctx context.Context, criteria QuestionCriteria, target float64, concepts []kg.SavedNode) (GeneratedQuestion, error) {
	var best GeneratedQuestion
	bestDist := -1.0

	for i := 0; i < maxRetries; i++ {
		gq, err := g.attempt(ctx, criteria, target, concepts)
		if err != nil {
			return GeneratedQuestion{}, err
		}

		evalResult, err := g.evaluator.Evaluate(ctx, gq.Question)
		if err != nil {
			// Evaluator failure doesn't invalidate the attempt; just
			// can't judge distance, treat as worst case and keep trying.
			if bestDist < 0 {
				best = gq
				bestDist = 1e9
			}
			continue
		}
		grade := FeatureVector(evalResult).WeightedGrade()
		dist := grade - target
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			best = gq
			bestDist = dist
		}
		if dist <= acceptDelta {
			return gq, nil
		}
	}
	return best, nil
}

// attempt runs one full pass of steps 2-8: select concept/facts, build text
// materials, sample a feature vector, render the prompt, call the LLM,
// parse and normalize the answer, and defeat positional bias.
func (g *Generator) attempt(ctx context.Context, criteria QuestionCriteria, target float64, concepts []kg.SavedNode) (GeneratedQuestion, error) {
	materials, err := g.buildMaterials(ctx, concepts)
	if err != nil {
		return GeneratedQuestion{}, err
	}

	v, ok := SampleFeatureVector(target, g.rng)
	if !ok {
		v = FeatureVector{}
		for _, name := range FeatureOrder {
			v[name] = 0
		}
	}

	criteria.FeatureLevels = v
	criteria.WeightedGrade = v.WeightedGrade()

	prompt := renderGenerationPrompt(v, materials)
	raw, err := g.chat.Ask(ctx, prompt)
	if err != nil {
		return GeneratedQuestion{QuestionCriteria: criteria, Question: ErrorPlaceholder()}, nil
	}

	question, ok := parseQuestion(raw)
	if !ok {
		return GeneratedQuestion{QuestionCriteria: criteria, Question: ErrorPlaceholder()}, nil
	}

	question = normalizeAnswer(question, isCJK(question.Stem))
	question = shuffleOptions(question, g.rng)

	return GeneratedQuestion{QuestionCriteria: criteria, Question: question}, nil
}

// buildMaterials selects a concept/fact draw (up to maxDraws attempts) and
// flattens every (fact)-[rel]-(fact') path of length 1 into "<name> <rel>
// <name>" strings, stopping once minMaterials unique ones are collected or
// the draws run out, so fewer than minMaterials may be returned.
func (g *Generator) buildMaterials(ctx context.Context, concepts []kg.SavedNode) ([]string, error) {
	need := minMaterials

	seen := make(map[string]bool)
	var out []string

	for draw := 0; draw < maxDraws && len(out) < need; draw++ {
		concept, ok := g.ranker.RankConcepts(ctx, concepts)
		if !ok {
			break
		}
		facts, err := g.ranker.RankFacts(ctx, concept)
		if err != nil {
			continue
		}
		if len(facts) == 0 {
			return nil, fmt.Errorf("%w: concept %q", domain.ErrNoTextMaterials, concept.Name)
		}

		for _, f := range facts {
			paths, err := g.kgStore.FactFactPaths(ctx, f.ElementID)
			if err != nil {
				continue
			}
			for _, t := range paths {
				s := fmt.Sprintf("%s %s %s", t.Subject.Name, t.Relation.Name, t.Object.Name)
				if !seen[s] {
					seen[s] = true
					out = append(out, s)
				}
			}
		}
	}

	if len(out) == 0 {
		return nil, domain.ErrNoTextMaterials
	}
	return out, nil
}

var (
	answerAliasRe = regexp.MustCompile(`(?i)^option[_\s]?([A-D])$`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// parseQuestion unmarshals the LLM's JSON response, tolerating markdown
// fences and trailing prose via llmjson.Fix.
func parseQuestion(raw string) (Question, bool) {
	var q Question
	if err := json.Unmarshal([]byte(llmjson.Fix(raw)), &q); err != nil {
		return Question{}, false
	}
	if q.Stem == "" || q.OptionA == "" || q.OptionB == "" || q.OptionC == "" || q.OptionD == "" {
		return Question{}, false
	}
	return q, true
}

// normalizeAnswer maps the answer field to A|B|C|D, handling option_A-style
// aliases and 1..4 numeric forms, falling back to D, and cleans stem/option
// whitespace per language, per spec §4.7 step 6.
func normalizeAnswer(q Question, cjk bool) Question {
	ans := strings.TrimSpace(q.Answer)
	switch {
	case answerAliasRe.MatchString(ans):
		ans = strings.ToUpper(answerAliasRe.FindStringSubmatch(ans)[1])
	case len(ans) == 1 && ans >= "A" && ans <= "D":
		ans = strings.ToUpper(ans)
	case ans == "1":
		ans = "A"
	case ans == "2":
		ans = "B"
	case ans == "3":
		ans = "C"
	case ans == "4":
		ans = "D"
	default:
		ans = "D"
	}
	q.Answer = ans

	clean := func(s string) string {
		if cjk {
			return whitespaceRe.ReplaceAllString(s, "")
		}
		return strings.TrimSpace(s)
	}
	q.Stem = clean(q.Stem)
	q.OptionA = clean(q.OptionA)
	q.OptionB = clean(q.OptionB)
	q.OptionC = clean(q.OptionC)
	q.OptionD = clean(q.OptionD)
	return q
}

// shuffleOptions defeats positional bias by reshuffling the option slots
// whenever the model's own answer wasn't already in position D, per spec
// §4.7 step 7.
func shuffleOptions(q Question, rng *rand.Rand) Question {
	if q.Answer == "D" {
		return q
	}
	options := [4]string{q.OptionA, q.OptionB, q.OptionC, q.OptionD}
	answerIdx := int(q.Answer[0] - 'A')

	perm := rng.Perm(4)
	shuffled := [4]string{}
	newAnswerIdx := 0
	for newIdx, oldIdx := range perm {
		shuffled[newIdx] = options[oldIdx]
		if oldIdx == answerIdx {
			newAnswerIdx = newIdx
		}
	}

	q.OptionA, q.OptionB, q.OptionC, q.OptionD = shuffled[0], shuffled[1], shuffled[2], shuffled[3]
	q.Answer = string(rune('A' + newAnswerIdx))
	return q
}

var cjkRe = regexp.MustCompile(`[\x{4e00}-\x{9fff}]`)

func isCJK(s string) bool {
	chinese := len(cjkRe.FindAllString(s, -1))
	latin := len(regexp.MustCompile(`[a-zA-Z]+`).FindAllString(s, -1))
	return chinese >= latin
}
