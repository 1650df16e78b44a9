package kg

import (
	"context"
	"fmt"
)

// AddTriplets merges a page's worth of triplets into the graph, one
// Neo4j transaction per call, per spec §4.4's triplet merge algorithm:
// fact subjects/objects are created fresh unless already recorded for this
// (file_id, page_number) in the ingest bookkeeping; document/structure/
// concept nodes are MERGEd by (label, name); the relation is always MERGEd.
func (g *GraphStore) AddTriplets(ctx context.Context, fileID string, page int, triplets []Triplet) error {
	tracker := g.trackers.forFile(fileID)
	sess := g.session(ctx)
	defer sess.Close(ctx)

	_, err := sess.ExecuteWrite(ctx, func(tx cypherRunner) (any, error) {
		resolved := make(map[string]string) // dedupKey -> element_id, memoized within this transaction
		for _, t := range triplets {
			subjID, err := g.resolveNode(ctx, tx, tracker, fileID, page, t.Subject, resolved)
			if err != nil {
				return nil, fmt.Errorf("resolve subject %q: %w", t.Subject.Name, err)
			}
			objID, err := g.resolveNode(ctx, tx, tracker, fileID, page, t.Object, resolved)
			if err != nil {
				return nil, fmt.Errorf("resolve object %q: %w", t.Object.Name, err)
			}
			if err := g.mergeRelation(ctx, tx, subjID, objID, t.Relation.Name); err != nil {
				return nil, fmt.Errorf("merge relation %s: %w", t.Relation.Name, err)
			}
		}
		return nil, nil
	})
	return err
}

func (g *GraphStore) resolveNode(ctx context.Context, tx cypherRunner, tracker *pageTracker, fileID string, page int, n Node, resolved map[string]string) (string, error) {
	n.FileID = fileID
	key := n.dedupKey()

	if n.Label != LabelFact {
		if id, ok := resolved[key]; ok {
			return id, nil
		}
		id, err := g.mergeNonFact(ctx, tx, n)
		if err != nil {
			return "", err
		}
		resolved[key] = id
		return id, nil
	}

	n.Page = page
	if id, ok := tracker.resolve(page, key); ok {
		resolved[key] = id
		return id, nil
	}

	id, err := g.createFact(ctx, tx, n)
	if err != nil {
		return "", err
	}
	tracker.record(page, key, id)
	resolved[key] = id
	return id, nil
}
