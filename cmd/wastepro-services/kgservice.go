package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/mfshiu/wastepro/engine/agent"
	"github.com/mfshiu/wastepro/engine/domain"
	"github.com/mfshiu/wastepro/engine/kg"
	"github.com/mfshiu/wastepro/engine/kgctl"
)

const addTripletsSuffix = "/AddTriplets/KGService/Services"

// kgInstance pairs one subject's orchestrator-reported instance with the
// live Neo4j driver and GraphStore opened against it.
type kgInstance struct {
	kgctl.Instance
	driver neo4j.DriverWithContext
	store  *kg.GraphStore
}

// kgService owns the orchestrator client and every subject's live
// GraphStore, lazily connecting on first use, per spec §4.4: "per-subject
// KG instances are spun up lazily by an external orchestrator."
type kgService struct {
	orch kgctl.OrchestratorClient
	a    *agent.Agent
	log  *slog.Logger

	mu        sync.Mutex
	instances map[string]*kgInstance
}

func newKGService(nc *nats.Conn, log *slog.Logger, orch kgctl.OrchestratorClient) *kgService {
	s := &kgService{orch: orch, log: log, instances: make(map[string]*kgInstance)}
	s.a = agent.New("KGService", nc, log)
	s.a.OnActivate = s.onActivate
	return s
}

func (s *kgService) register() error {
	if err := s.a.Subscribe("Create/KGService/Services", s.handleCreate); err != nil {
		return err
	}
	if err := s.a.Subscribe("AccessPoint/KGService/Services", s.handleAccessPoint); err != nil {
		return err
	}
	if err := s.a.Subscribe("ConceptsQuery/KGService/Services", s.handleConceptsQuery); err != nil {
		return err
	}
	if err := s.a.Subscribe("SectionsQuery/KGService/Services", s.handleSectionsQuery); err != nil {
		return err
	}
	return nil
}

// onActivate enumerates the orchestrator's already-running subjects and
// pre-subscribes each one's per-subject add topic, per spec §4.4: "On
// activation, the service enumerates existing subjects and pre-subscribes
// the per-subject triplet-add topic for each."
func (s *kgService) onActivate(ctx context.Context) error {
	instances, err := s.orch.ListRunning(ctx)
	if err != nil {
		s.log.Warn("kgservice: list running instances", "error", err)
		return nil
	}
	for _, inst := range instances {
		if _, err := s.attach(inst.Name, inst); err != nil {
			s.log.Warn("kgservice: attach running instance", "subject", inst.Name, "error", err)
		}
	}
	return nil
}

// open resolves a subject to its live instance, opening it through the
// orchestrator (and creating it if it is not already running) when this is
// the first request this process has seen for it.
func (s *kgService) open(ctx context.Context, name string) (*kgInstance, error) {
	if inst, ok := s.lookup(name); ok {
		return inst, nil
	}

	instance, err := s.orch.Open(ctx, name)
	if err != nil {
		instance, err = s.orch.Create(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("kgservice: open/create %q: %w", name, err)
		}
	}
	return s.attach(name, instance)
}

// create always goes through the orchestrator's Create, per the
// Create/KGService/Services contract ("ensures an instance exists"),
// reusing an already-attached instance if this process already holds one.
func (s *kgService) create(ctx context.Context, name string) (*kgInstance, error) {
	if inst, ok := s.lookup(name); ok {
		return inst, nil
	}

	instance, err := s.orch.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("kgservice: create %q: %w", name, err)
	}
	return s.attach(name, instance)
}

func (s *kgService) lookup(name string) (*kgInstance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.instances[name]
	return inst, ok
}

// attach connects a driver to instance.BoltURL, registers it, and
// subscribes its per-subject add topic. Idempotent: a second attach for a
// name already held returns the existing instance.
func (s *kgService) attach(name string, instance kgctl.Instance) (*kgInstance, error) {
	if inst, ok := s.lookup(name); ok {
		return inst, nil
	}

	driver, err := neo4j.NewDriverWithContext(instance.BoltURL, neo4j.NoAuth())
	if err != nil {
		return nil, fmt.Errorf("kgservice: connect %q: %w", name, err)
	}

	inst := &kgInstance{Instance: instance, driver: driver, store: kg.New(driver)}

	s.mu.Lock()
	s.instances[name] = inst
	s.mu.Unlock()

	topic := name + addTripletsSuffix
	if err := s.a.Subscribe(topic, s.handleAddTriplets(name)); err != nil {
		return nil, fmt.Errorf("kgservice: subscribe %s: %w", topic, err)
	}
	return inst, nil
}

func (s *kgService) handleCreate(ctx context.Context, _ string, p domain.Parcel) (map[string]any, error) {
	name, _ := p.Content["kg_name"].(string)
	if name == "" {
		return nil, fmt.Errorf("kgservice: kg_name is required")
	}
	inst, err := s.create(ctx, name)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"http_url":           inst.HTTPURL,
		"bolt_url":           inst.BoltURL,
		"topic_triplets_add": name + addTripletsSuffix,
	}, nil
}

func (s *kgService) handleAccessPoint(ctx context.Context, _ string, p domain.Parcel) (map[string]any, error) {
	name, _ := p.Content["kg_name"].(string)
	if name == "" {
		return nil, fmt.Errorf("kgservice: kg_name is required")
	}
	inst, err := s.open(ctx, name)
	if err != nil {
		return nil, err
	}
	return map[string]any{"http_url": inst.HTTPURL, "bolt_url": inst.BoltURL}, nil
}

func (s *kgService) handleConceptsQuery(ctx context.Context, _ string, p domain.Parcel) (map[string]any, error) {
	name, document, section, err := queryArgs(p)
	if err != nil {
		return nil, err
	}
	inst, err := s.open(ctx, name)
	if err != nil {
		return nil, err
	}
	nodes, err := inst.store.ConceptsQuery(ctx, document, section)
	if err != nil {
		return nil, fmt.Errorf("kgservice: concepts query: %w", err)
	}
	return toMap(map[string]any{"concepts": nodes})
}

func (s *kgService) handleSectionsQuery(ctx context.Context, _ string, p domain.Parcel) (map[string]any, error) {
	name, document, section, err := queryArgs(p)
	if err != nil {
		return nil, err
	}
	inst, err := s.open(ctx, name)
	if err != nil {
		return nil, err
	}
	nodes, err := inst.store.SectionsQuery(ctx, document, section)
	if err != nil {
		return nil, fmt.Errorf("kgservice: sections query: %w", err)
	}
	return toMap(map[string]any{"sections": nodes})
}

func queryArgs(p domain.Parcel) (name, document string, section []string, err error) {
	name, _ = p.Content["kg_name"].(string)
	document, _ = p.Content["document"].(string)
	if name == "" || document == "" {
		return "", "", nil, fmt.Errorf("kgservice: kg_name and document are required")
	}
	if raw, ok := p.Content["section"].([]any); ok {
		for _, v := range raw {
			if str, ok := v.(string); ok {
				section = append(section, str)
			}
		}
	}
	return name, document, section, nil
}

// handleAddTriplets merges one page's triplets into name's graph, per the
// per-subject `"<subject>/AddTriplets/KGService/Services"` contract.
func (s *kgService) handleAddTriplets(name string) agent.Handler {
	return func(ctx context.Context, _ string, p domain.Parcel) (map[string]any, error) {
		inst, ok := s.lookup(name)
		if !ok {
			return nil, fmt.Errorf("kgservice: unknown subject %q", name)
		}

		fileID, _ := p.Content["file_id"].(string)
		page, _ := p.Content["page_number"].(float64)

		raw, err := json.Marshal(p.Content["triplets"])
		if err != nil {
			return nil, fmt.Errorf("kgservice: marshal triplets: %w", err)
		}
		var triplets []kg.Triplet
		if err := json.Unmarshal(raw, &triplets); err != nil {
			return nil, fmt.Errorf("kgservice: decode triplets: %w", err)
		}

		if err := inst.store.AddTriplets(ctx, fileID, int(page), triplets); err != nil {
			return nil, fmt.Errorf("kgservice: add triplets: %w", err)
		}
		return nil, nil
	}
}

// Close releases every subject's Neo4j driver. Errors are logged, not
// returned, so one stuck subject never blocks the rest of shutdown.
func (s *kgService) Close(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, inst := range s.instances {
		if err := inst.driver.Close(ctx); err != nil {
			s.log.Warn("kgservice: close driver", "subject", name, "error", err)
		}
	}
}
