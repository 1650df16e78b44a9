// Package extract turns one page's plain text plus its section path into
// the triplets the KG service merges, via three LLM-mediated steps (facts +
// concepts, fact aliases, fact-fact relations) feeding a deterministic
// assembly pass. Grounded on extract_tool.py's FactConceptExtractor and
// SectionPairer.
package extract

import "github.com/mfshiu/wastepro/engine/kg"

// EntityHierarchy maps a concept name to the fact names it categorizes,
// matching FactConceptExtractor.get_concept_n_fact's `entity_hierarchy`.
type EntityHierarchy map[string][]string

// AliasTable maps an entity name (fact or concept) to its aliases.
type AliasTable map[string][]string

// FactPair is one (fact, relation, fact) triple as extracted by
// get_facts_pairs, prior to assembly into a kg.Triplet.
type FactPair struct {
	Fact1    string
	Relation string
	Fact2    string
}

// Extracted is everything the three LLM-mediated steps produce for one page,
// ready for deterministic assembly.
type Extracted struct {
	Facts     []string
	Concepts  []string
	Hierarchy EntityHierarchy
	Aliases   AliasTable
	FactPairs []FactPair
}

// AssembleTriplets deterministically builds the full set of KG triplets for
// one page from its extracted entities, aliases, and fact-fact pairs, given
// the section hierarchy paths locate_sections found for the page and
// optional document-level metadata (only attached to the outermost/document
// node). Mirrors SectionPairer's four pairing steps exactly, in the same
// order: concepts-with-facts, sections-with-concepts,
// lower-to-higher-sections, facts-with-facts.
func AssembleTriplets(sections [][]string, ex Extracted, meta map[string]any) []kg.Triplet {
	var out []kg.Triplet
	out = append(out, pairConceptsWithFacts(ex.Hierarchy, ex.Aliases)...)
	out = append(out, pairSectionsWithConcepts(sections, ex.Concepts, ex.Aliases)...)
	out = append(out, pairLowerToHigherSections(sections, meta)...)
	out = append(out, pairFactsAndFacts(ex.FactPairs)...)
	return out
}

func pairConceptsWithFacts(hierarchy EntityHierarchy, aliases AliasTable) []kg.Triplet {
	var out []kg.Triplet
	for concept, facts := range hierarchy {
		for _, fact := range facts {
			out = append(out, kg.Triplet{
				Subject:  kg.Node{Label: kg.LabelFact, Name: fact, Aliases: aliases[fact]},
				Relation: kg.Relation{Name: kg.RelIsA},
				Object:   kg.Node{Label: kg.LabelConcept, Name: concept, Aliases: aliases[concept]},
			})
		}
	}
	return out
}

func pairSectionsWithConcepts(sections [][]string, concepts []string, aliases AliasTable) []kg.Triplet {
	if len(sections) == 0 {
		return nil
	}
	deepest := sections[len(sections)-1]
	if len(deepest) == 0 {
		return nil
	}
	structureType := kg.LabelStructure
	if len(sections) == 1 {
		structureType = kg.LabelDocument
	}
	structureNode := kg.Node{Label: structureType, Name: deepest[len(deepest)-1]}

	var out []kg.Triplet
	for _, concept := range concepts {
		out = append(out, kg.Triplet{
			Subject:  kg.Node{Label: kg.LabelConcept, Name: concept, Aliases: aliases[concept]},
			Relation: kg.Relation{Name: kg.RelIncludeIn},
			Object:   structureNode,
		})
	}
	return out
}

func pairLowerToHigherSections(sections [][]string, meta map[string]any) []kg.Triplet {
	if len(sections) == 0 {
		return nil
	}
	path := sections[len(sections)-1]

	var out []kg.Triplet
	for i := 0; i < len(path)-1; i++ {
		var parent kg.Node
		if i == 0 {
			parent = kg.Node{Label: kg.LabelDocument, Name: path[i], Meta: meta}
		} else {
			parent = kg.Node{Label: kg.LabelStructure, Name: path[i]}
		}
		child := kg.Node{Label: kg.LabelStructure, Name: path[i+1]}
		out = append(out, kg.Triplet{
			Subject:  child,
			Relation: kg.Relation{Name: kg.RelPartOf},
			Object:   parent,
		})
	}
	return out
}

func pairFactsAndFacts(pairs []FactPair) []kg.Triplet {
	var out []kg.Triplet
	for _, p := range pairs {
		if p.Fact1 == "" || p.Fact2 == "" || p.Relation == "" {
			continue
		}
		out = append(out, kg.Triplet{
			Subject:  kg.Node{Label: kg.LabelFact, Name: p.Fact1},
			Relation: kg.Relation{Name: p.Relation},
			Object:   kg.Node{Label: kg.LabelFact, Name: p.Fact2},
		})
	}
	return out
}
