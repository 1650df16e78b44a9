package rank

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"github.com/mfshiu/wastepro/engine/kg"
)

// StructureLookup is the KG surface WeightedRanker needs beyond FactLookup:
// the facts->concept->structure edges used to build ConceptScorer's graph.
type StructureLookup interface {
	FactLookup
	// ConceptGraph returns, for a candidate set of concepts, the facts
	// linked to each (via is_a) and the structures each is included_in,
	// plus the fact-fact edges touching any of those facts. This is the
	// minimal edge set ConceptScorer's PageRank/richness scores need.
	ConceptGraph(ctx context.Context, concepts []kg.SavedNode) (kg.ConceptGraph, error)
}

// WeightedRanker scores concepts via a softmax-normalized combination of
// PageRank centrality, structure-spread richness (TF-IDF-like), and
// concept-fact richness, matching weighted_ranker.py's ConceptScorer.
type WeightedRanker struct {
	facts   FactLookup
	graph   StructureLookup
	a, b, c float64 // weights for pagerank, structure-richness, fact-richness
	d       float64 // magnitude of optional uniform random jitter
	alpha   float64 // connected-facts discount in concept_fact_richness
	rng     *rand.Rand
}

// WeightedRankerOpts configures WeightedRanker; zero-value Opts reproduces
// the original's defaults (a=b=c=1, d=0, alpha=0.5).
type WeightedRankerOpts struct {
	A, B, C float64
	D       float64
	Alpha   float64
}

func NewWeightedRanker(graph StructureLookup, opts WeightedRankerOpts) *WeightedRanker {
	a, b, c := opts.A, opts.B, opts.C
	if a == 0 && b == 0 && c == 0 {
		a, b, c = 1, 1, 1
	}
	alpha := opts.Alpha
	if alpha == 0 {
		alpha = 0.5
	}
	return &WeightedRanker{
		facts: graph,
		graph: graph,
		a:     a, b: b, c: c,
		d:     opts.D,
		alpha: alpha,
		rng:   rand.New(rand.NewSource(rand.Int63())),
	}
}

func (r *WeightedRanker) RankConcepts(ctx context.Context, concepts []kg.SavedNode) (kg.SavedNode, bool) {
	if len(concepts) == 0 {
		return kg.SavedNode{}, false
	}
	cg, err := r.graph.ConceptGraph(ctx, concepts)
	if err != nil {
		// Fall back to uniform random choice rather than failing the
		// whole generation attempt on a scoring-support query error.
		return concepts[r.rng.Intn(len(concepts))], true
	}

	pagerank := softmax(r.pageRank(cg))
	richness := softmax(r.structureRichness(concepts, cg))
	factRichness := softmax(r.factRichness(concepts, cg))

	ids := make([]string, len(concepts))
	for i, c := range concepts {
		ids[i] = c.ElementID
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(concepts))
	for i, id := range ids {
		s := r.a*pagerank[id] + r.b*richness[id] + r.c*factRichness[id]
		if r.d > 0 {
			s += r.d * r.rng.Float64()
		}
		scores[i] = scored{idx: i, score: s}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	return concepts[scores[0].idx], true
}

func (r *WeightedRanker) RankFacts(ctx context.Context, concept kg.SavedNode) ([]kg.SavedNode, error) {
	facts, err := r.facts.FactsRelatedTo(ctx, concept.ElementID)
	if err != nil {
		return nil, err
	}
	return sampleFacts(r.rng, facts, maxFacts), nil
}

// pageRank runs the standard power-iteration PageRank over the directed
// graph of fact->fact, fact->concept (is_a) and concept->structure
// (include_in) edges, so both facts and concepts receive a score.
// No graph library in the retrieved dependency set offers PageRank cheaply
// for an ad-hoc in-memory edge list this small, so it is hand-rolled here;
// see DESIGN.md's stdlib-fallback justification for this function.
func (r *WeightedRanker) pageRank(cg kg.ConceptGraph) map[string]float64 {
	const damping = 0.85
	const iterations = 30

	edges := make(map[string][]string)
	for f, out := range cg.FactEdges {
		edges[f] = append(edges[f], out...)
	}
	for c, facts := range cg.FactsOf {
		for _, f := range facts {
			edges[f] = append(edges[f], c)
		}
	}
	for c, structs := range cg.StructuresOf {
		edges[c] = append(edges[c], structs...)
	}

	nodes := make(map[string]bool)
	for n, adj := range edges {
		nodes[n] = true
		for _, m := range adj {
			nodes[m] = true
		}
	}
	n := len(nodes)
	if n == 0 {
		return map[string]float64{}
	}

	rank := make(map[string]float64, n)
	for node := range nodes {
		rank[node] = 1.0 / float64(n)
	}

	outDegree := make(map[string]int)
	for node, adj := range edges {
		outDegree[node] = len(adj)
	}

	for i := 0; i < iterations; i++ {
		next := make(map[string]float64, n)
		base := (1 - damping) / float64(n)
		for node := range nodes {
			next[node] = base
		}
		for node, adj := range edges {
			if outDegree[node] == 0 {
				continue
			}
			share := damping * rank[node] / float64(outDegree[node])
			for _, m := range adj {
				next[m] += share
			}
		}
		rank = next
	}
	return rank
}

// structureRichness scores each concept by tf(concept) * sum(idf(structure))
// across the structures it is include_in, matching ConceptScorer's
// structure-spread TF-IDF-like score: idf = log(1 + 1/(count_of_concepts_in_structure+1)).
func (r *WeightedRanker) structureRichness(concepts []kg.SavedNode, cg kg.ConceptGraph) map[string]float64 {
	structureConceptCount := make(map[string]int)
	for _, structs := range cg.StructuresOf {
		for _, s := range structs {
			structureConceptCount[s]++
		}
	}

	out := make(map[string]float64, len(concepts))
	for _, c := range concepts {
		structs := cg.StructuresOf[c.ElementID]
		tf := float64(len(structs))
		var idfSum float64
		for _, s := range structs {
			idfSum += math.Log(1 + 1/float64(structureConceptCount[s]+1))
		}
		out[c.ElementID] = tf * idfSum
	}
	return out
}

// factRichness scores each concept by direct_facts + alpha*connected_facts,
// where connected_facts are facts reachable via one fact-fact hop from a
// directly linked fact, matching ConceptScorer's concept_fact_richness.
func (r *WeightedRanker) factRichness(concepts []kg.SavedNode, cg kg.ConceptGraph) map[string]float64 {
	out := make(map[string]float64, len(concepts))
	for _, c := range concepts {
		direct := cg.FactsOf[c.ElementID]
		seen := make(map[string]bool, len(direct))
		for _, f := range direct {
			seen[f] = true
		}
		connected := 0
		for _, f := range direct {
			for _, adj := range cg.FactEdges[f] {
				if !seen[adj] {
					seen[adj] = true
					connected++
				}
			}
		}
		out[c.ElementID] = float64(len(direct)) + r.alpha*float64(connected)
	}
	return out
}

func softmax(scores map[string]float64) map[string]float64 {
	if len(scores) == 0 {
		return scores
	}
	max := math.Inf(-1)
	for _, v := range scores {
		if v > max {
			max = v
		}
	}
	var sum float64
	exp := make(map[string]float64, len(scores))
	for k, v := range scores {
		e := math.Exp(v - max)
		exp[k] = e
		sum += e
	}
	out := make(map[string]float64, len(scores))
	for k, v := range exp {
		out[k] = v / sum
	}
	return out
}
