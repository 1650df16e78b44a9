package rank

import (
	"context"
	"math/rand"

	"github.com/mfshiu/wastepro/engine/kg"
)

// SimpleRanker chooses uniformly at random among the candidate concepts and
// samples up to 5 related facts, matching simple_ranker.py's SimpleRanker.
type SimpleRanker struct {
	facts FactLookup
	rng   *rand.Rand
}

func NewSimpleRanker(facts FactLookup) *SimpleRanker {
	return &SimpleRanker{facts: facts, rng: rand.New(rand.NewSource(rand.Int63()))}
}

func (r *SimpleRanker) RankConcepts(ctx context.Context, concepts []kg.SavedNode) (kg.SavedNode, bool) {
	if len(concepts) == 0 {
		return kg.SavedNode{}, false
	}
	return concepts[r.rng.Intn(len(concepts))], true
}

func (r *SimpleRanker) RankFacts(ctx context.Context, concept kg.SavedNode) ([]kg.SavedNode, error) {
	facts, err := r.facts.FactsRelatedTo(ctx, concept.ElementID)
	if err != nil {
		return nil, err
	}
	return sampleFacts(r.rng, facts, maxFacts), nil
}

func sampleFacts(rng *rand.Rand, facts []kg.SavedNode, n int) []kg.SavedNode {
	if len(facts) <= n {
		return facts
	}
	idx := rng.Perm(len(facts))[:n]
	out := make([]kg.SavedNode, n)
	for i, j := range idx {
		out[i] = facts[j]
	}
	return out
}
