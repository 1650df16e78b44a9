package kg

import (
	"github.com/mfshiu/wastepro/pkg/repo"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// DocumentRecord is the flat, store-facing shape of a document node, used
// by the generic repository for simple CRUD (list documents in a subject's
// KG, fetch one by name) separate from GraphStore's Cypher-heavy traversal
// queries.
type DocumentRecord struct {
	Name     string
	FileID   string
	Metadata map[string]any
}

// newDocumentRepo builds a Neo4j-backed repository for document nodes,
// generalizing the teacher's generic Neo4jRepo[Component,string] to this
// domain's document entity.
func newDocumentRepo(driver neo4j.DriverWithContext) *repo.Neo4jRepo[DocumentRecord, string] {
	return repo.NewNeo4jRepo[DocumentRecord, string](
		driver,
		"document",
		documentToMap,
		documentFromRecord,
		repo.WithIDKey[DocumentRecord, string]("name"),
	)
}

func documentToMap(d DocumentRecord) map[string]any {
	return map[string]any{
		"name":    d.Name,
		"file_id": d.FileID,
		"metadata": d.Metadata,
	}
}

func documentFromRecord(rec *neo4j.Record) (DocumentRecord, error) {
	node, _, err := neo4j.GetRecordValue[dbtype.Node](rec, "n")
	if err != nil {
		return DocumentRecord{}, err
	}
	props := node.Props
	d := DocumentRecord{
		Name:   strProp(props, "name"),
		FileID: strProp(props, "file_id"),
	}
	if m, ok := props["metadata"].(map[string]any); ok {
		d.Metadata = m
	}
	return d, nil
}

func strProp(props map[string]any, key string) string {
	if v, ok := props[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
