package extract

import (
	"testing"

	"github.com/mfshiu/wastepro/engine/kg"
)

func TestBindOrphansToOthersFoldsUnassignedFacts(t *testing.T) {
	hierarchy := EntityHierarchy{"Ammonia": {"NH3 is toxic"}}

	concepts, discovered := bindOrphansToOthers(
		[]string{"NH3 is toxic", "Leachate seeps into soil"},
		[]string{"Ammonia"},
		hierarchy,
		nil,
	)

	if len(discovered) != 0 {
		t.Fatalf("expected no newly discovered facts, got %v", discovered)
	}
	if hierarchy[kg.OthersConcept][0] != "Leachate seeps into soil" {
		t.Fatalf("expected the orphan fact under others, got %v", hierarchy[kg.OthersConcept])
	}
	found := false
	for _, c := range concepts {
		if c == kg.OthersConcept {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s concept to be added, got %v", kg.OthersConcept, concepts)
	}
}

// A fact-fact pair naming a fact outside the identified set must still end
// up bound to others, per spec §4.6 step 3 and §8 invariant 1: every fact
// needs an outgoing is_a edge, not just a fact-fact edge.
func TestBindOrphansToOthersFoldsPairOnlyFacts(t *testing.T) {
	hierarchy := EntityHierarchy{"Ammonia": {"NH3 is toxic"}}
	pairs := []FactPair{
		{Fact1: "NH3 is toxic", Relation: "causes", Fact2: "Landfill liner fails"},
	}

	concepts, discovered := bindOrphansToOthers(
		[]string{"NH3 is toxic"},
		[]string{"Ammonia"},
		hierarchy,
		pairs,
	)

	if len(discovered) != 1 || discovered[0] != "Landfill liner fails" {
		t.Fatalf("expected the pair-only fact to be discovered, got %v", discovered)
	}
	if len(hierarchy[kg.OthersConcept]) != 1 || hierarchy[kg.OthersConcept][0] != "Landfill liner fails" {
		t.Fatalf("expected the pair-only fact bound under others, got %v", hierarchy[kg.OthersConcept])
	}
	found := false
	for _, c := range concepts {
		if c == kg.OthersConcept {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s concept to be added, got %v", kg.OthersConcept, concepts)
	}
}

func TestBindOrphansToOthersDoesNotDuplicateOthersConcept(t *testing.T) {
	hierarchy := EntityHierarchy{kg.OthersConcept: {"already bound"}}

	concepts, _ := bindOrphansToOthers(
		[]string{"already bound", "newly orphaned"},
		[]string{kg.OthersConcept},
		hierarchy,
		nil,
	)

	count := 0
	for _, c := range concepts {
		if c == kg.OthersConcept {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected %s to appear exactly once, got %v", kg.OthersConcept, concepts)
	}
}

// Every fact that ends up in a fact-fact edge must also have an is_a edge
// after assembly, matching spec §8 invariant 1.
func TestAssembleTripletsGivesEveryFactAnIsAEdge(t *testing.T) {
	hierarchy := EntityHierarchy{"Ammonia": {"NH3 is toxic"}}
	pairs := []FactPair{
		{Fact1: "NH3 is toxic", Relation: "causes", Fact2: "Landfill liner fails"},
	}
	concepts, discovered := bindOrphansToOthers(
		[]string{"NH3 is toxic"},
		[]string{"Ammonia"},
		hierarchy,
		pairs,
	)

	ex := Extracted{
		Facts:     append([]string{"NH3 is toxic"}, discovered...),
		Concepts:  concepts,
		Hierarchy: hierarchy,
		FactPairs: pairs,
	}
	triplets := AssembleTriplets([][]string{{"Handbook"}}, ex, nil)

	isA := make(map[string]bool)
	for _, tr := range triplets {
		if tr.Relation.Name == kg.RelIsA && tr.Subject.Label == kg.LabelFact {
			isA[tr.Subject.Name] = true
		}
	}
	for _, fact := range ex.Facts {
		if !isA[fact] {
			t.Fatalf("fact %q has no outgoing is_a edge: %+v", fact, triplets)
		}
	}
}
