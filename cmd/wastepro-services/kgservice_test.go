package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/mfshiu/wastepro/engine/agent"
	"github.com/mfshiu/wastepro/engine/domain"
	"github.com/mfshiu/wastepro/engine/kgctl"
)

// startTestNATS starts an in-process NATS server for tests that need a real
// connection to subscribe against, grounded on pkg/natsutil's own test
// helper of the same shape.
func startTestNATS(t *testing.T) *nats.Conn {
	t.Helper()
	srv, err := natsserver.NewServer(&natsserver.Options{Port: -1})
	if err != nil {
		t.Fatal(err)
	}
	srv.Start()
	if !srv.ReadyForConnections(3 * time.Second) {
		t.Fatal("nats not ready")
	}
	nc, err := nats.Connect(srv.ClientURL())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		nc.Close()
		srv.Shutdown()
	})
	return nc
}

type fakeOrchestrator struct {
	opened  map[string]kgctl.Instance
	running []kgctl.Instance
	created int
	openErr error
}

func (f *fakeOrchestrator) Open(_ context.Context, name string) (kgctl.Instance, error) {
	if f.openErr != nil {
		return kgctl.Instance{}, f.openErr
	}
	if inst, ok := f.opened[name]; ok {
		return inst, nil
	}
	return kgctl.Instance{}, errors.New("not found")
}

func (f *fakeOrchestrator) Create(_ context.Context, name string) (kgctl.Instance, error) {
	f.created++
	inst := kgctl.Instance{Name: name, HTTPURL: "http://kg/" + name, BoltURL: "bolt://localhost:7687", Running: true}
	if f.opened == nil {
		f.opened = make(map[string]kgctl.Instance)
	}
	f.opened[name] = inst
	return inst, nil
}

func (f *fakeOrchestrator) ListRunning(_ context.Context) ([]kgctl.Instance, error) {
	return f.running, nil
}

func (f *fakeOrchestrator) Stop(_ context.Context, _ string) error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestKGService(t *testing.T, orch kgctl.OrchestratorClient) *kgService {
	nc := startTestNATS(t)
	s := &kgService{orch: orch, log: discardLogger(), instances: make(map[string]*kgInstance)}
	s.a = agent.New("KGService", nc, discardLogger())
	return s
}

func TestKGServiceLookupMiss(t *testing.T) {
	s := newTestKGService(t, &fakeOrchestrator{})
	if _, ok := s.lookup("waste-mgmt"); ok {
		t.Fatal("expected miss on empty service")
	}
}

func TestKGServiceOpenFallsBackToCreate(t *testing.T) {
	orch := &fakeOrchestrator{openErr: errors.New("no such subject")}
	s := newTestKGService(t, orch)

	inst, err := s.open(context.Background(), "waste-mgmt")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if inst.BoltURL != "bolt://localhost:7687" {
		t.Fatalf("unexpected bolt url: %s", inst.BoltURL)
	}
	if orch.created != 1 {
		t.Fatalf("expected exactly one Create call, got %d", orch.created)
	}

	if _, ok := s.lookup("waste-mgmt"); !ok {
		t.Fatal("expected subject to be attached after open")
	}
}

func TestKGServiceOpenReusesCachedInstance(t *testing.T) {
	orch := &fakeOrchestrator{}
	s := newTestKGService(t, orch)

	first, err := s.open(context.Background(), "waste-mgmt")
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	second, err := s.open(context.Background(), "waste-mgmt")
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	if first != second {
		t.Fatal("expected the cached instance to be reused")
	}
	if orch.created != 1 {
		t.Fatalf("expected only the first open to create, got %d creates", orch.created)
	}
}

func TestKGServiceCreateAlwaysGoesThroughOrchestrator(t *testing.T) {
	orch := &fakeOrchestrator{}
	s := newTestKGService(t, orch)

	if _, err := s.create(context.Background(), "waste-mgmt"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if orch.created != 1 {
		t.Fatalf("expected one create call, got %d", orch.created)
	}

	// A second create for a subject this process already holds reuses the
	// cached instance rather than calling the orchestrator again.
	if _, err := s.create(context.Background(), "waste-mgmt"); err != nil {
		t.Fatalf("second create: %v", err)
	}
	if orch.created != 1 {
		t.Fatalf("expected create to stay cached, got %d calls", orch.created)
	}
}

func TestKGServiceOnActivateAttachesRunningInstances(t *testing.T) {
	orch := &fakeOrchestrator{
		running: []kgctl.Instance{
			{Name: "waste-mgmt", HTTPURL: "http://kg/waste-mgmt", BoltURL: "bolt://localhost:7687", Running: true},
		},
	}
	s := newTestKGService(t, orch)

	if err := s.onActivate(context.Background()); err != nil {
		t.Fatalf("onActivate: %v", err)
	}
	if _, ok := s.lookup("waste-mgmt"); !ok {
		t.Fatal("expected already-running subject to be attached on activation")
	}
}

func TestQueryArgsRequiresKGNameAndDocument(t *testing.T) {
	_, _, _, err := queryArgs(domain.Parcel{Content: map[string]any{"document": "handbook"}})
	if err == nil {
		t.Fatal("expected error when kg_name is missing")
	}

	_, _, _, err = queryArgs(domain.Parcel{Content: map[string]any{"kg_name": "waste-mgmt"}})
	if err == nil {
		t.Fatal("expected error when document is missing")
	}
}

func TestQueryArgsParsesOptionalSection(t *testing.T) {
	name, document, section, err := queryArgs(domain.Parcel{Content: map[string]any{
		"kg_name":  "waste-mgmt",
		"document": "handbook",
		"section":  []any{"ch1", "ch2"},
	}})
	if err != nil {
		t.Fatalf("queryArgs: %v", err)
	}
	if name != "waste-mgmt" || document != "handbook" {
		t.Fatalf("unexpected name/document: %s/%s", name, document)
	}
	if len(section) != 2 || section[0] != "ch1" || section[1] != "ch2" {
		t.Fatalf("unexpected section: %v", section)
	}
}

func TestKGServiceCloseOnEmptyServiceIsNoop(t *testing.T) {
	s := newTestKGService(t, &fakeOrchestrator{})
	s.Close(context.Background())
}
