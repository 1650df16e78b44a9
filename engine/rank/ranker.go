// Package rank selects the concept and supporting facts the SCQ generator
// builds a question around, via one of several pluggable strategies.
// Grounded on generation/ranker's NodeRanker abstract base and its three
// concrete rankers.
package rank

import (
	"context"

	"github.com/mfshiu/wastepro/engine/kg"
)

// Ranker chooses a concept from a candidate set, then the facts that
// concept's question text material is drawn from. Mirrors NodeRanker's
// rank_concepts/rank_facts contract.
type Ranker interface {
	RankConcepts(ctx context.Context, concepts []kg.SavedNode) (kg.SavedNode, bool)
	RankFacts(ctx context.Context, concept kg.SavedNode) ([]kg.SavedNode, error)
}

// FactLookup is the minimal KG surface every ranker needs to pull a
// concept's related facts.
type FactLookup interface {
	FactsRelatedTo(ctx context.Context, conceptElementID string) ([]kg.SavedNode, error)
}

// maxFacts caps the sample used as question text material, per
// simple_ranker.py/wm_ranker.py's `random.sample(facts, min(5, len(facts)))`.
const maxFacts = 5
