package rank

import (
	"context"
	"testing"

	"github.com/mfshiu/wastepro/engine/kg"
)

type fakeFacts struct {
	byConcept map[string][]kg.SavedNode
}

func (f *fakeFacts) FactsRelatedTo(ctx context.Context, conceptElementID string) ([]kg.SavedNode, error) {
	return f.byConcept[conceptElementID], nil
}

func node(id, name string) kg.SavedNode {
	return kg.SavedNode{Node: kg.Node{Label: kg.LabelConcept, Name: name}, ElementID: id}
}

func TestSimpleRankerRankConceptsEmpty(t *testing.T) {
	r := NewSimpleRanker(&fakeFacts{})
	if _, ok := r.RankConcepts(context.Background(), nil); ok {
		t.Fatal("expected no candidate on empty input")
	}
}

func TestSimpleRankerRankFactsCapsAtFive(t *testing.T) {
	facts := make([]kg.SavedNode, 8)
	for i := range facts {
		facts[i] = node(string(rune('a'+i)), "fact")
	}
	r := NewSimpleRanker(&fakeFacts{byConcept: map[string][]kg.SavedNode{"c1": facts}})
	got, err := r.RankFacts(context.Background(), node("c1", "Concept"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != maxFacts {
		t.Fatalf("expected %d facts, got %d", maxFacts, len(got))
	}
}

func TestSimpleRankerRankFactsReturnsAllWhenFewerThanCap(t *testing.T) {
	facts := []kg.SavedNode{node("a", "x"), node("b", "y")}
	r := NewSimpleRanker(&fakeFacts{byConcept: map[string][]kg.SavedNode{"c1": facts}})
	got, err := r.RankFacts(context.Background(), node("c1", "Concept"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 facts, got %d", len(got))
	}
}

func TestWasteManagementRankerPrefersKeywordMatch(t *testing.T) {
	concepts := []kg.SavedNode{
		node("c1", "Plastic Bottle"),
		node("c2", "Recyclable Waste Sorting"),
		node("c3", "Ammonia Gas"),
	}
	r := NewWasteManagementRanker(&fakeFacts{}, "")
	got, ok := r.RankConcepts(context.Background(), concepts)
	if !ok {
		t.Fatal("expected a candidate")
	}
	if got.ElementID != "c2" {
		t.Fatalf("expected the keyword-matching concept, got %+v", got)
	}
}

func TestWasteManagementRankerFallsBackWhenNoMatch(t *testing.T) {
	concepts := []kg.SavedNode{node("c1", "Ammonia Gas"), node("c2", "Plastic Bottle")}
	r := NewWasteManagementRanker(&fakeFacts{}, "")
	got, ok := r.RankConcepts(context.Background(), concepts)
	if !ok {
		t.Fatal("expected a candidate")
	}
	found := false
	for _, c := range concepts {
		if c.ElementID == got.ElementID {
			found = true
		}
	}
	if !found {
		t.Fatalf("fallback should still pick among the candidates, got %+v", got)
	}
}

func TestWasteManagementRankerCustomKeyword(t *testing.T) {
	concepts := []kg.SavedNode{node("c1", "Leachate Treatment"), node("c2", "Plastic Bottle")}
	r := NewWasteManagementRanker(&fakeFacts{}, "leachate")
	got, ok := r.RankConcepts(context.Background(), concepts)
	if !ok || got.ElementID != "c1" {
		t.Fatalf("expected leachate concept, got %+v ok=%v", got, ok)
	}
}

type fakeGraph struct {
	fakeFacts
	cg  kg.ConceptGraph
	err error
}

func (f *fakeGraph) ConceptGraph(ctx context.Context, concepts []kg.SavedNode) (kg.ConceptGraph, error) {
	return f.cg, f.err
}

func TestWeightedRankerPrefersRicherConcept(t *testing.T) {
	cg := kg.ConceptGraph{
		FactsOf: map[string][]string{
			"c1": {"f1"},
			"c2": {"f2", "f3", "f4"},
		},
		StructuresOf: map[string][]string{
			"c1": {"s1"},
			"c2": {"s1", "s2"},
		},
		FactEdges: map[string][]string{
			"f2": {"f3"},
			"f3": {"f4"},
		},
	}
	graph := &fakeGraph{cg: cg}
	r := NewWeightedRanker(graph, WeightedRankerOpts{})
	concepts := []kg.SavedNode{node("c1", "Sparse"), node("c2", "Rich")}
	got, ok := r.RankConcepts(context.Background(), concepts)
	if !ok {
		t.Fatal("expected a candidate")
	}
	if got.ElementID != "c2" {
		t.Fatalf("expected the richer concept c2 to win, got %+v", got)
	}
}

func TestWeightedRankerFallsBackOnGraphError(t *testing.T) {
	graph := &fakeGraph{err: context.DeadlineExceeded}
	r := NewWeightedRanker(graph, WeightedRankerOpts{})
	concepts := []kg.SavedNode{node("c1", "A"), node("c2", "B")}
	_, ok := r.RankConcepts(context.Background(), concepts)
	if !ok {
		t.Fatal("expected a fallback candidate even on graph error")
	}
}

func TestSoftmaxSumsToOne(t *testing.T) {
	out := softmax(map[string]float64{"a": 1, "b": 2, "c": 3})
	var sum float64
	for _, v := range out {
		sum += v
	}
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("softmax should sum to ~1, got %f", sum)
	}
}
