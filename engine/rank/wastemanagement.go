package rank

import (
	"context"
	"math/rand"
	"strings"

	"github.com/mfshiu/wastepro/engine/kg"
)

// WasteManagementRanker prefers concepts whose name contains a configurable
// keyword (defaulting to spec's running recyclable-waste example), falling
// back to a uniform random choice when no candidate matches. Matches
// wm_ranker.py's WasteManagementRanker exactly, generalized from the
// paper's hardcoded "recyclable waste" substring to a configurable keyword.
type WasteManagementRanker struct {
	facts   FactLookup
	keyword string
	rng     *rand.Rand
}

// DefaultKeyword is wm_ranker.py's literal keyword.
const DefaultKeyword = "recyclable waste"

func NewWasteManagementRanker(facts FactLookup, keyword string) *WasteManagementRanker {
	if keyword == "" {
		keyword = DefaultKeyword
	}
	return &WasteManagementRanker{facts: facts, keyword: strings.ToLower(keyword), rng: rand.New(rand.NewSource(rand.Int63()))}
}

func (r *WasteManagementRanker) RankConcepts(ctx context.Context, concepts []kg.SavedNode) (kg.SavedNode, bool) {
	if len(concepts) == 0 {
		return kg.SavedNode{}, false
	}
	var candidates []kg.SavedNode
	for _, c := range concepts {
		if strings.Contains(strings.ToLower(c.Name), r.keyword) {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) > 0 {
		return candidates[r.rng.Intn(len(candidates))], true
	}
	return concepts[r.rng.Intn(len(concepts))], true
}

func (r *WasteManagementRanker) RankFacts(ctx context.Context, concept kg.SavedNode) ([]kg.SavedNode, error) {
	facts, err := r.facts.FactsRelatedTo(ctx, concept.ElementID)
	if err != nil {
		return nil, err
	}
	return sampleFacts(r.rng, facts, maxFacts), nil
}
