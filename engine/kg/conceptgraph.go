package kg

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ConceptGraph is the edge set the weighted ranker's ConceptScorer needs:
// fact->concept (is_a), concept->structure (include_in), and fact-fact
// (any relation) adjacency, scoped to a candidate set of concepts.
type ConceptGraph struct {
	FactsOf      map[string][]string
	StructuresOf map[string][]string
	FactEdges    map[string][]string
}

// ConceptGraph gathers the edges needed to score a candidate concept set,
// issuing one query per edge kind, matching graph.go's
// one-query-per-relation style (ConceptsQuery, SectionsQuery, etc).
func (g *GraphStore) ConceptGraph(ctx context.Context, concepts []SavedNode) (ConceptGraph, error) {
	sess := g.session(ctx)
	defer sess.Close(ctx)

	ids := make([]string, len(concepts))
	for i, c := range concepts {
		ids[i] = c.ElementID
	}

	out := ConceptGraph{
		FactsOf:      map[string][]string{},
		StructuresOf: map[string][]string{},
		FactEdges:    map[string][]string{},
	}

	facts, err := sess.Run(ctx,
		`MATCH (f:fact)-[:is_a]->(c) WHERE elementId(c) IN $ids
         RETURN elementId(c) AS cid, elementId(f) AS fid`,
		map[string]any{"ids": ids})
	if err != nil {
		return ConceptGraph{}, err
	}
	for facts.Next(ctx) {
		rec := facts.Record()
		cid, _, _ := neo4j.GetRecordValue[string](rec, "cid")
		fid, _, _ := neo4j.GetRecordValue[string](rec, "fid")
		out.FactsOf[cid] = append(out.FactsOf[cid], fid)
	}
	if err := facts.Err(); err != nil {
		return ConceptGraph{}, err
	}

	structures, err := sess.Run(ctx,
		`MATCH (c:concept)-[:include_in]->(s) WHERE elementId(c) IN $ids
         RETURN elementId(c) AS cid, elementId(s) AS sid`,
		map[string]any{"ids": ids})
	if err != nil {
		return ConceptGraph{}, err
	}
	for structures.Next(ctx) {
		rec := structures.Record()
		cid, _, _ := neo4j.GetRecordValue[string](rec, "cid")
		sid, _, _ := neo4j.GetRecordValue[string](rec, "sid")
		out.StructuresOf[cid] = append(out.StructuresOf[cid], sid)
	}
	if err := structures.Err(); err != nil {
		return ConceptGraph{}, err
	}

	var allFacts []string
	for _, fs := range out.FactsOf {
		allFacts = append(allFacts, fs...)
	}
	if len(allFacts) == 0 {
		return out, nil
	}

	edges, err := sess.Run(ctx,
		`MATCH (f:fact)-[r]-(f2:fact) WHERE elementId(f) IN $ids AND elementId(f2) <> elementId(f)
         RETURN DISTINCT elementId(f) AS fid, elementId(f2) AS f2id`,
		map[string]any{"ids": allFacts})
	if err != nil {
		return ConceptGraph{}, err
	}
	for edges.Next(ctx) {
		rec := edges.Record()
		fid, _, _ := neo4j.GetRecordValue[string](rec, "fid")
		f2id, _, _ := neo4j.GetRecordValue[string](rec, "f2id")
		out.FactEdges[fid] = append(out.FactEdges[fid], f2id)
	}
	if err := edges.Err(); err != nil {
		return ConceptGraph{}, err
	}

	return out, nil
}
