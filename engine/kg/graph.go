package kg

import (
	"context"
	"fmt"
	"strings"

	"github.com/mfshiu/wastepro/pkg/repo"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// cypherResult is the minimal interface needed from a neo4j result, mirroring
// pkg/repo/neo4j.go's runner/result seam so GraphStore's Cypher calls can be
// mocked in tests without a live driver.
type cypherResult interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
	Err() error
}

// cypherRunner is the minimal interface needed to run Cypher, satisfied by
// both a neo4j.SessionWithContext and a neo4j.ManagedTransaction.
type cypherRunner interface {
	Run(ctx context.Context, cypher string, params map[string]any) (cypherResult, error)
}

// cypherSession extends cypherRunner with the transactional entry point
// AddTriplets needs.
type cypherSession interface {
	cypherRunner
	Close(ctx context.Context) error
	ExecuteWrite(ctx context.Context, work func(tx cypherRunner) (any, error)) (any, error)
}

// neo4jSessionAdapter adapts a real neo4j.SessionWithContext to cypherSession.
type neo4jSessionAdapter struct {
	sess neo4j.SessionWithContext
}

func (a *neo4jSessionAdapter) Run(ctx context.Context, cypher string, params map[string]any) (cypherResult, error) {
	return a.sess.Run(ctx, cypher, params)
}

func (a *neo4jSessionAdapter) Close(ctx context.Context) error { return a.sess.Close(ctx) }

func (a *neo4jSessionAdapter) ExecuteWrite(ctx context.Context, work func(tx cypherRunner) (any, error)) (any, error) {
	return a.sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return work(&neo4jTxAdapter{tx: tx})
	})
}

// neo4jTxAdapter adapts a neo4j.ManagedTransaction to cypherRunner.
type neo4jTxAdapter struct {
	tx neo4j.ManagedTransaction
}

func (a *neo4jTxAdapter) Run(ctx context.Context, cypher string, params map[string]any) (cypherResult, error) {
	return a.tx.Run(ctx, cypher, params)
}

// GraphStore provides the KG service's graph operations on top of a Neo4j
// driver scoped to one subject's database instance.
type GraphStore struct {
	driver     neo4j.DriverWithContext
	trackers   *trackerRegistry
	documents  *repo.Neo4jRepo[DocumentRecord, string]
	newSession func(ctx context.Context) cypherSession // for testing
}

// New creates a GraphStore bound to one per-subject Neo4j driver/instance.
func New(driver neo4j.DriverWithContext) *GraphStore {
	return &GraphStore{
		driver:    driver,
		trackers:  newTrackerRegistry(),
		documents: newDocumentRepo(driver),
	}
}

// ListDocuments returns up to opts.Limit document nodes in this subject's KG.
func (g *GraphStore) ListDocuments(ctx context.Context, opts repo.ListOpts) ([]DocumentRecord, error) {
	return g.documents.List(ctx, opts)
}

// GetDocument fetches one document node by name.
func (g *GraphStore) GetDocument(ctx context.Context, name string) (DocumentRecord, error) {
	return g.documents.Get(ctx, name)
}

func (g *GraphStore) session(ctx context.Context) cypherSession {
	if g.newSession != nil {
		return g.newSession(ctx)
	}
	return &neo4jSessionAdapter{sess: g.driver.NewSession(ctx, neo4j.SessionConfig{})}
}

// mergeNonFact MERGEs a document/structure/concept node by (label, name)
// and sets its aliases and file_id, per spec §4.4's triplet merge algorithm
// step 1/2 for non-fact subjects/objects. Node.Meta is not written, so a
// document node carries no metadata property.
func (g *GraphStore) mergeNonFact(ctx context.Context, tx cypherRunner, n Node) (string, error) {
	label := sanitizeLabel(n.Label)
	cypher := fmt.Sprintf(
		`MERGE (x:%s {name: $name})
		 SET x.aliases = $aliases, x.file_id = $file_id
		 RETURN elementId(x) AS id`, label)
	result, err := tx.Run(ctx, cypher, map[string]any{
		"name":    n.Name,
		"aliases": n.Aliases,
		"file_id": n.FileID,
	})
	if err != nil {
		return "", err
	}
	if !result.Next(ctx) {
		return "", fmt.Errorf("merge %s %q: no record returned", label, n.Name)
	}
	id, _, err := neo4j.GetRecordValue[string](result.Record(), "id")
	return id, err
}

// createFact always CREATEs a fresh fact node, preserving page provenance.
func (g *GraphStore) createFact(ctx context.Context, tx cypherRunner, n Node) (string, error) {
	cypher := `CREATE (x:fact {name: $name, aliases: $aliases, file_id: $file_id, page_number: $page})
	           RETURN elementId(x) AS id`
	result, err := tx.Run(ctx, cypher, map[string]any{
		"name":    n.Name,
		"aliases": n.Aliases,
		"file_id": n.FileID,
		"page":    n.Page,
	})
	if err != nil {
		return "", err
	}
	if !result.Next(ctx) {
		return "", fmt.Errorf("create fact %q: no record returned", n.Name)
	}
	id, _, err := neo4j.GetRecordValue[string](result.Record(), "id")
	return id, err
}

// mergeRelation MERGEs a directed, typed edge between two already-resolved
// node element ids. Idempotent, matching spec step 3.
func (g *GraphStore) mergeRelation(ctx context.Context, tx cypherRunner, fromID, toID, relName string) error {
	cypher := fmt.Sprintf(
		`MATCH (a), (b) WHERE elementId(a) = $from AND elementId(b) = $to
		 MERGE (a)-[:%s]->(b)`, sanitizeRelType(relName))
	_, err := tx.Run(ctx, cypher, map[string]any{"from": fromID, "to": toID})
	return err
}

// ConceptsQuery returns the union of concepts reachable via include_in from
// the document node and from every structure under the document whose name
// is one of the section path's elements (every structure under the
// document when section is empty), deduplicated by element_id. Structures
// below the deepest section element are not included unless named in the
// path. If a non-empty section path yields no concepts, the query is rerun
// with no section path. See
// DESIGN.md's "ConceptsQuery union semantics" open-question resolution.
func (g *GraphStore) ConceptsQuery(ctx context.Context, document string, section []string) ([]SavedNode, error) {
	sess := g.session(ctx)
	defer sess.Close(ctx)

	concepts, err := g.conceptsUnderSection(ctx, sess, document, section)
	if err != nil {
		return nil, err
	}
	if len(concepts) == 0 && len(section) > 0 {
		return g.conceptsUnderSection(ctx, sess, document, nil)
	}
	return concepts, nil
}

func (g *GraphStore) conceptsUnderSection(ctx context.Context, sess cypherRunner, document string, section []string) ([]SavedNode, error) {
	// Structure chain: deepest section element first, root-ward via part_of.
	// c-[:include_in]->(document) OR c-[:include_in]->(s) for any s on the
	// chain from the document down to the deepest named section.
	cypher := `MATCH (d:document {name: $document})
	           OPTIONAL MATCH (d)<-[:part_of*0..]-(s:structure)
	           WHERE $section = [] OR s.name IN $section OR s IS NULL
	           WITH d, collect(DISTINCT s) + [d] AS targets
	           UNWIND targets AS t
	           MATCH (c:concept)-[:include_in]->(t)
	           RETURN DISTINCT elementId(c) AS id, c.name AS name, c.aliases AS aliases, c.file_id AS file_id`
	result, err := sess.Run(ctx, cypher, map[string]any{"document": document, "section": section})
	if err != nil {
		return nil, err
	}
	var out []SavedNode
	for result.Next(ctx) {
		rec := result.Record()
		out = append(out, savedNodeFromRecord(rec, LabelConcept))
	}
	return out, result.Err()
}

// SectionsQuery returns the leaf structures under the given section path
// (or under the document if section is absent), walking part_of in reverse
// (sub -part_of-> parent) recursively.
func (g *GraphStore) SectionsQuery(ctx context.Context, document string, section []string) ([]SavedNode, error) {
	sess := g.session(ctx)
	defer sess.Close(ctx)

	var root string
	if len(section) > 0 {
		root = section[len(section)-1]
	} else {
		root = document
	}

	cypher := `MATCH (root {name: $root})
	           OPTIONAL MATCH (leaf:structure)-[:part_of*0..]->(root)
	           WHERE NOT ( (:structure)-[:part_of]->(leaf) )
	           RETURN DISTINCT elementId(leaf) AS id, leaf.name AS name, leaf.aliases AS aliases, leaf.file_id AS file_id`
	result, err := sess.Run(ctx, cypher, map[string]any{"root": root})
	if err != nil {
		return nil, err
	}
	var out []SavedNode
	for result.Next(ctx) {
		rec := result.Record()
		if v, _ := rec.Get("id"); v == nil {
			continue
		}
		out = append(out, savedNodeFromRecord(rec, LabelStructure))
	}
	return out, result.Err()
}

// FactsRelatedTo returns facts bound to a concept via an inverse is_a edge,
// i.e. (fact)-[:is_a]->(concept). Used by rankers.
func (g *GraphStore) FactsRelatedTo(ctx context.Context, conceptElementID string) ([]SavedNode, error) {
	sess := g.session(ctx)
	defer sess.Close(ctx)

	cypher := `MATCH (f:fact)-[:is_a]->(c) WHERE elementId(c) = $id
	           RETURN elementId(f) AS id, f.name AS name, f.aliases AS aliases, f.file_id AS file_id, f.page_number AS page_number`
	result, err := sess.Run(ctx, cypher, map[string]any{"id": conceptElementID})
	if err != nil {
		return nil, err
	}
	var out []SavedNode
	for result.Next(ctx) {
		out = append(out, savedNodeFromRecord(result.Record(), LabelFact))
	}
	return out, result.Err()
}

// FactFactPaths returns every (fact)-[rel]-(fact') edge of length 1
// touching the given fact, used by the SCQ generator to build text
// materials from the graph neighborhood of selected facts.
func (g *GraphStore) FactFactPaths(ctx context.Context, factElementID string) ([]Triplet, error) {
	sess := g.session(ctx)
	defer sess.Close(ctx)

	cypher := `MATCH (f:fact)-[r]->(f2:fact) WHERE elementId(f) = $id OR elementId(f2) = $id
	           RETURN f.name AS sname, type(r) AS rel, f2.name AS oname`
	result, err := sess.Run(ctx, cypher, map[string]any{"id": factElementID})
	if err != nil {
		return nil, err
	}
	var out []Triplet
	for result.Next(ctx) {
		rec := result.Record()
		sname, _, _ := neo4j.GetRecordValue[string](rec, "sname")
		rel, _, _ := neo4j.GetRecordValue[string](rec, "rel")
		oname, _, _ := neo4j.GetRecordValue[string](rec, "oname")
		out = append(out, Triplet{
			Subject:  Node{Label: LabelFact, Name: sname},
			Relation: Relation{Name: rel},
			Object:   Node{Label: LabelFact, Name: oname},
		})
	}
	return out, result.Err()
}

func savedNodeFromRecord(rec *neo4j.Record, label string) SavedNode {
	id, _, _ := neo4j.GetRecordValue[string](rec, "id")
	name, _, _ := neo4j.GetRecordValue[string](rec, "name")
	var aliases []string
	if v, ok := rec.Get("aliases"); ok && v != nil {
		if list, ok := v.([]any); ok {
			for _, a := range list {
				if s, ok := a.(string); ok {
					aliases = append(aliases, s)
				}
			}
		}
	}
	fileID, _, _ := neo4j.GetRecordValue[string](rec, "file_id")
	page := 0
	if v, ok := rec.Get("page_number"); ok && v != nil {
		if n, ok := v.(int64); ok {
			page = int(n)
		}
	}
	return SavedNode{
		Node:      Node{Label: label, Name: name, Aliases: aliases, FileID: fileID, Page: page},
		ElementID: id,
	}
}

// sanitizeRelType ensures the relationship type is a valid Cypher
// identifier, matching the teacher's defensive dynamic-label handling.
func sanitizeRelType(t string) string {
	safe := make([]byte, 0, len(t))
	for i := 0; i < len(t); i++ {
		c := t[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			safe = append(safe, c)
		}
	}
	if len(safe) == 0 {
		return "RELATED_TO"
	}
	return strings.ToUpper(string(safe))
}

// sanitizeLabel restricts a node label to the four known KG entity kinds,
// defaulting to `structure` for anything unrecognized.
func sanitizeLabel(label string) string {
	switch label {
	case LabelDocument, LabelStructure, LabelConcept, LabelFact:
		return label
	default:
		return LabelStructure
	}
}
