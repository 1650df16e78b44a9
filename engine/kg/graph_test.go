package kg

import (
	"context"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// mockResult is an in-memory stand-in for a neo4j result, replaying a fixed
// slice of records. Mirrors the teacher's record-replay mock style.
type mockResult struct {
	records []*neo4j.Record
	i       int
	err     error
}

func (m *mockResult) Next(ctx context.Context) bool {
	if m.i >= len(m.records) {
		return false
	}
	m.i++
	return true
}

func (m *mockResult) Record() *neo4j.Record { return m.records[m.i-1] }
func (m *mockResult) Err() error            { return m.err }

// mockRunner records every Cypher statement it was asked to run and returns
// a queued result, one per call, in order.
type mockRunner struct {
	queries []string
	params  []map[string]any
	results []*mockResult
	n       int
}

func (m *mockRunner) Run(ctx context.Context, cypher string, params map[string]any) (cypherResult, error) {
	m.queries = append(m.queries, cypher)
	m.params = append(m.params, params)
	if m.n >= len(m.results) {
		return &mockResult{}, nil
	}
	r := m.results[m.n]
	m.n++
	return r, nil
}

// mockSession wraps mockRunner with Close/ExecuteWrite so it satisfies
// cypherSession.
type mockSession struct {
	mockRunner
	closed bool
}

func (m *mockSession) Close(ctx context.Context) error { m.closed = true; return nil }

func (m *mockSession) ExecuteWrite(ctx context.Context, work func(tx cypherRunner) (any, error)) (any, error) {
	return work(&m.mockRunner)
}

func record(keys []string, values []any) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}

func newStore(sess *mockSession) *GraphStore {
	return &GraphStore{
		trackers:  newTrackerRegistry(),
		newSession: func(ctx context.Context) cypherSession { return sess },
	}
}

func TestSanitizeRelType(t *testing.T) {
	cases := map[string]string{
		"causes":       "CAUSES",
		"leads-to it!": "LEADSTOIT",
		"":             "RELATED_TO",
		"!!!":          "RELATED_TO",
	}
	for in, want := range cases {
		if got := sanitizeRelType(in); got != want {
			t.Errorf("sanitizeRelType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeLabel(t *testing.T) {
	if sanitizeLabel(LabelConcept) != LabelConcept {
		t.Fatal("known label should pass through")
	}
	if sanitizeLabel("vehicle") != LabelStructure {
		t.Fatal("unknown label should default to structure")
	}
}

func TestSavedNodeFromRecord(t *testing.T) {
	rec := record(
		[]string{"id", "name", "aliases", "file_id", "page_number"},
		[]any{"n1", "Ammonia", []any{"NH3"}, "f1", int64(4)},
	)
	n := savedNodeFromRecord(rec, LabelFact)
	if n.ElementID != "n1" || n.Name != "Ammonia" || n.FileID != "f1" || n.Page != 4 {
		t.Fatalf("unexpected node: %+v", n)
	}
	if len(n.Aliases) != 1 || n.Aliases[0] != "NH3" {
		t.Fatalf("unexpected aliases: %+v", n.Aliases)
	}
}

func TestConceptsQueryFallsBackWhenSectionEmpty(t *testing.T) {
	empty := &mockResult{}
	withRows := &mockResult{records: []*neo4j.Record{
		record([]string{"id", "name", "aliases", "file_id"}, []any{"c1", "Leachate", nil, "f1"}),
	}}
	sess := &mockSession{}
	sess.results = []*mockResult{empty, withRows}
	g := newStore(sess)

	got, err := g.ConceptsQuery(context.Background(), "doc", []string{"Chapter 2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Leachate" {
		t.Fatalf("expected fallback result, got %+v", got)
	}
	if len(sess.queries) != 2 {
		t.Fatalf("expected fallback to issue a second query, ran %d", len(sess.queries))
	}
	if sess.params[1]["section"].([]string) != nil {
		t.Fatalf("fallback query should pass a nil section, got %v", sess.params[1]["section"])
	}
}

func TestConceptsQueryNoFallbackWhenRowsFound(t *testing.T) {
	withRows := &mockResult{records: []*neo4j.Record{
		record([]string{"id", "name", "aliases", "file_id"}, []any{"c1", "Leachate", nil, "f1"}),
	}}
	sess := &mockSession{}
	sess.results = []*mockResult{withRows}
	g := newStore(sess)

	got, err := g.ConceptsQuery(context.Background(), "doc", []string{"Chapter 2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 concept, got %d", len(got))
	}
	if len(sess.queries) != 1 {
		t.Fatalf("should not fall back when the section query finds rows, ran %d queries", len(sess.queries))
	}
}
