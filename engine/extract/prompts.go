package extract

import (
	"fmt"
	"strings"
)

// buildConceptFactPrompt mirrors FactConceptExtractor.get_concept_n_fact's
// prompt: split the page into facts (entities) and concepts (the higher
// level categories the facts belong to), plus the fact->concept mapping.
func buildConceptFactPrompt(pageContent string) string {
	return fmt.Sprintf(`Please structure the following context into triplets. The context will be divided into two levels: fact and concept. A fact refers to all entities that can be found in the context, while a concept refers to the higher-level category each fact belongs to.

Please follow the rule and help extract the facts and concepts from the context below.
# context:
%s
Following the output format below is very important, do not return any other context, just output.
# output format:
facts = []
concepts = []
entity_hierarchy = {concept1:[fact_a, fact_b]}`, pageContent)
}

// buildAliasesPrompt mirrors FactConceptExtractor.get_aliases's prompt:
// request English aliases for every extracted entity, as a flat JSON
// object.
func buildAliasesPrompt(keys []string) string {
	return fmt.Sprintf(`Please provide me with the aliases for each item in the array mentioned below. The aliases must be in English. Return them in the format of a dictionary, without including any additional context outside of the dictionary. It is very important to answer all of the items within the array.
# array:
%s
# example:
{"application form": ["request form","formulario de solicitud"]}`, strings.Join(keys, ", "))
}

// buildFactsPairsPrompt mirrors FactConceptExtractor.get_facts_pairs's
// prompt: ask for entity-relation-entity triples among the page's facts.
func buildFactsPairsPrompt(facts []string, pageContent string) string {
	return fmt.Sprintf(`# entities: %s
# context: %s
These are the entities extracted from the context above. Please help me extract the knowledge graph as entity-relationship-entity triples.
Following the output format below is very important, do not return any other context, just output.
# output:
[entity1-relationship-entity2]
[entity3-relationship-entity4]`, strings.Join(facts, ", "), pageContent)
}
