package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/mfshiu/wastepro/engine/domain"
	"github.com/mfshiu/wastepro/engine/kg"
	"github.com/mfshiu/wastepro/engine/llmjson"
)

// Chat is the minimal surface Extractor needs from the LLM service.
type Chat interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// Extractor runs the three LLM-mediated extraction calls for one page,
// grounded on FactConceptExtractor.get_concept_n_fact / get_aliases /
// get_facts_pairs.
type Extractor struct {
	chat Chat
}

func NewExtractor(chat Chat) *Extractor {
	return &Extractor{chat: chat}
}

// Extract runs all three LLM calls for one page of text, binds unassigned
// facts to kg.OthersConcept, and returns the result ready for
// AssembleTriplets.
func (e *Extractor) Extract(ctx context.Context, pageContent string) (Extracted, error) {
	facts, concepts, hierarchy, err := e.getConceptAndFact(ctx, pageContent)
	if err != nil {
		return Extracted{}, err
	}
	if len(facts) == 0 {
		return Extracted{}, domain.ErrNoTextMaterials
	}

	factPairs, err := e.getFactsPairs(ctx, facts, pageContent)
	if err != nil {
		return Extracted{}, err
	}

	var discovered []string
	concepts, discovered = bindOrphansToOthers(facts, concepts, hierarchy, factPairs)
	facts = append(facts, discovered...)

	aliases, err := e.getAliases(ctx, append(append([]string{}, facts...), concepts...))
	if err != nil {
		return Extracted{}, err
	}

	return Extracted{
		Facts:     facts,
		Concepts:  concepts,
		Hierarchy: hierarchy,
		Aliases:   aliases,
		FactPairs: factPairs,
	}, nil
}

// bindOrphansToOthers collects every fact name not already assigned to a
// concept in hierarchy and binds them under the synthetic kg.OthersConcept,
// per spec §9's resolved others-binding decision. The concept step is not
// re-run for unassigned facts: every fact the single get_concept_n_fact
// call leaves without a concept is bound here directly. A
// fact-fact pair may reference a fact name get_concept_n_fact never
// returned (spec §4.6 step 3: "a fact not in the identified set ... is
// treated as newly discovered"); those names are folded in here too so
// every fact ends up with an outgoing is_a edge, per spec §8 invariant 1 —
// otherwise a pair-only fact would get a fact-fact edge but no is_a and
// never reach `others`.
func bindOrphansToOthers(facts, concepts []string, hierarchy EntityHierarchy, pairs []FactPair) (updatedConcepts, discoveredFacts []string) {
	assigned := make(map[string]bool)
	for _, fs := range hierarchy {
		for _, f := range fs {
			assigned[f] = true
		}
	}
	known := make(map[string]bool, len(facts))
	for _, f := range facts {
		known[f] = true
	}

	var orphans []string
	seen := make(map[string]bool)
	addOrphan := func(f string) {
		if f == "" || assigned[f] || seen[f] {
			return
		}
		seen[f] = true
		orphans = append(orphans, f)
		if !known[f] {
			discoveredFacts = append(discoveredFacts, f)
			known[f] = true
		}
	}
	for _, f := range facts {
		addOrphan(f)
	}
	for _, p := range pairs {
		addOrphan(p.Fact1)
		addOrphan(p.Fact2)
	}

	if len(orphans) == 0 {
		return concepts, discoveredFacts
	}

	hierarchy[kg.OthersConcept] = append(hierarchy[kg.OthersConcept], orphans...)
	for _, c := range concepts {
		if c == kg.OthersConcept {
			return concepts, discoveredFacts
		}
	}
	return append(concepts, kg.OthersConcept), discoveredFacts
}

var (
	factsMarkerRe    = regexp.MustCompile(`facts\s*=\s*`)
	conceptsMarkerRe = regexp.MustCompile(`concepts\s*=\s*`)
	hierarchyMarkerRe = regexp.MustCompile(`entity_hierarchy\s*=\s*`)
)

// getConceptAndFact runs FactConceptExtractor.get_concept_n_fact's prompt
// and parses its three-part `facts = [...] concepts = [...]
// entity_hierarchy = {...}` response shape.
func (e *Extractor) getConceptAndFact(ctx context.Context, pageContent string) ([]string, []string, EntityHierarchy, error) {
	prompt := buildConceptFactPrompt(pageContent)
	raw, err := e.chat.Ask(ctx, prompt)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("extract: get_concept_n_fact: %w", err)
	}
	raw = collapseWhitespace(raw)

	factsPart := factsMarkerRe.Split(raw, 2)
	if len(factsPart) < 2 {
		return nil, nil, nil, fmt.Errorf("%w: response missing 'facts =' marker", domain.ErrLLMInvalidResponse)
	}
	afterFacts := conceptsMarkerRe.Split(factsPart[1], 2)
	if len(afterFacts) < 2 {
		return nil, nil, nil, fmt.Errorf("%w: response missing 'concepts =' marker", domain.ErrLLMInvalidResponse)
	}

	var facts []string
	if err := json.Unmarshal([]byte(llmjson.Fix(afterFacts[0])), &facts); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: parsing facts: %v", domain.ErrLLMInvalidResponse, err)
	}

	afterConcepts := hierarchyMarkerRe.Split(afterFacts[1], 2)
	if len(afterConcepts) < 2 {
		return nil, nil, nil, fmt.Errorf("%w: response missing 'entity_hierarchy =' marker", domain.ErrLLMInvalidResponse)
	}
	concepts := splitBracketList(afterConcepts[0])

	var hierarchy EntityHierarchy
	if err := json.Unmarshal([]byte(llmjson.Fix(afterConcepts[1])), &hierarchy); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: parsing entity_hierarchy: %v", domain.ErrLLMInvalidResponse, err)
	}

	return facts, concepts, hierarchy, nil
}

// getAliases runs FactConceptExtractor.get_aliases's prompt over every fact
// and concept name, parsing a flat {name: [aliases...]} JSON object.
func (e *Extractor) getAliases(ctx context.Context, keys []string) (AliasTable, error) {
	if len(keys) == 0 {
		return AliasTable{}, nil
	}
	prompt := buildAliasesPrompt(keys)
	raw, err := e.chat.Ask(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("extract: get_aliases: %w", err)
	}
	raw = strings.ReplaceAll(collapseWhitespace(raw), " ", "")

	var table AliasTable
	if err := json.Unmarshal([]byte(llmjson.Fix(raw)), &table); err != nil {
		// Matches the original's tolerant fallback: aliasing failure is
		// non-fatal, every entity simply gets no aliases.
		return AliasTable{}, nil
	}
	return table, nil
}

// getFactsPairs runs FactConceptExtractor.get_facts_pairs's prompt and
// parses its bracketed `[fact1-relation-fact2]` line-per-pair response
// shape.
func (e *Extractor) getFactsPairs(ctx context.Context, facts []string, pageContent string) ([]FactPair, error) {
	prompt := buildFactsPairsPrompt(facts, pageContent)
	raw, err := e.chat.Ask(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("extract: get_facts_pairs: %w", err)
	}
	raw = strings.ReplaceAll(collapseWhitespace(raw), " ", "")

	var pairs []FactPair
	for _, item := range strings.Split(raw, "][") {
		item = strings.Trim(item, "[]")
		if item == "" {
			continue
		}
		parts := strings.Split(item, "-")
		if len(parts) != 3 {
			continue
		}
		pairs = append(pairs, FactPair{Fact1: parts[0], Relation: parts[1], Fact2: parts[2]})
	}
	return pairs, nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func splitBracketList(s string) []string {
	s = strings.NewReplacer("[", "", "]", "", "\"", "", " ", "").Replace(s)
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
