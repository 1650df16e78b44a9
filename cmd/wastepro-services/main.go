// Command wastepro-services hosts every agent in spec §4 as one process:
// FileService, LlmService, KGService, PdfRetrieval, and SCQ, wired onto a
// shared NATS connection with a Prometheus-style metrics endpoint for
// operational visibility, matching the teacher's cmd/api/main.go
// config-then-wire-then-serve shape generalized from one HTTP server to a
// set of bus agents.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mfshiu/wastepro/engine/agent"
	"github.com/mfshiu/wastepro/engine/config"
	"github.com/mfshiu/wastepro/engine/fileservice"
	"github.com/mfshiu/wastepro/engine/kgctl"
	"github.com/mfshiu/wastepro/engine/llm"
	"github.com/mfshiu/wastepro/engine/logging"
	"github.com/mfshiu/wastepro/pkg/metrics"
	"github.com/mfshiu/wastepro/pkg/mid"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "wastepro-services:", err)
		os.Exit(1)
	}
}

// agentHandle pairs an agent with its deferred topic registration; the
// KGService agent registers after construction since its handlers close
// over the service, not just the agent.
type agentHandle struct {
	agent    *agent.Agent
	register func() error
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(os.Getenv("WASTEPRO_CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	nc, err := dialBroker(cfg)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer nc.Close()

	kgClient, err := kgctl.Dial(cfg.Service.KG.Hostname)
	if err != nil {
		return fmt.Errorf("dial kg orchestrator: %w", err)
	}
	defer kgClient.Close()

	chat, err := llm.NewFromConfig(cfg.Service.LLM)
	if err != nil {
		return fmt.Errorf("build llm provider: %w", err)
	}

	files := fileservice.New(cfg.Service.File.HomeDirectory)
	kgSvc := newKGService(nc, log, kgClient)

	handles := []agentHandle{
		{agent: kgSvc.a, register: kgSvc.register},
		{agent: newFileAgent(nc, log, files)},
		{agent: newLLMAgent(nc, log, chat)},
		{agent: newPdfAgent(nc, log, files, kgSvc, chat)},
		{agent: newSCQAgent(nc, log, kgSvc, chat, cfg.Service.SCQ)},
	}

	for _, h := range handles {
		if h.register != nil {
			if err := h.register(); err != nil {
				return fmt.Errorf("register %s: %w", h.agent.Name, err)
			}
		}
		if err := h.agent.Activate(ctx); err != nil {
			return fmt.Errorf("activate %s: %w", h.agent.Name, err)
		}
		log.Info("agent activated", "agent", h.agent.Name, "id", h.agent.ID)
	}

	met := metrics.New()
	adminSrv := newAdminServer(met, handles, metricsPort(), log)
	go func() {
		log.Info("admin server starting", "port", metricsPort())
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("admin server exited", "error", err)
		}
	}()

	log.Info("wastepro-services running", "version", cfg.System.Version)
	<-ctx.Done()
	log.Info("shutdown signal received")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	if err := adminSrv.Shutdown(shutCtx); err != nil {
		log.Warn("shut down admin server", "error", err)
	}
	for _, h := range handles {
		if err := h.agent.Terminate(shutCtx); err != nil {
			log.Warn("terminate agent", "agent", h.agent.Name, "error", err)
		}
	}
	kgSvc.Close(shutCtx)
	return nil
}

// newAdminServer builds the /healthz + /metrics surface, reusing the
// teacher's mid.Chain(Recover, Logger) wrapping from cmd/api/main.go.
// /healthz reports every agent's lifecycle state so an external supervisor
// can tell a half-activated process from a running one.
func newAdminServer(met *metrics.Registry, handles []agentHandle, port int, log *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", met.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		states := make(map[string]string, len(handles))
		for _, h := range handles {
			states[h.agent.Name] = h.agent.State().String()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"status": "ok", "agents": states})
	})

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mid.Chain(mux, mid.Recover(log), mid.Logger(log)),
	}
}

// dialBroker connects to the broker named by [broker].broker_name, matching
// spec's "broker_name + per-broker tables" config shape.
func dialBroker(cfg config.Config) (*nats.Conn, error) {
	target, err := cfg.Broker.Active()
	if err != nil {
		return nil, err
	}

	u := url.URL{Scheme: "nats", Host: fmt.Sprintf("%s:%d", target.Host, target.Port)}
	if target.User != "" {
		u.User = url.UserPassword(target.User, target.Password)
	}

	opts := []nats.Option{nats.Name("wastepro-services")}
	if target.KeepAlive > 0 {
		opts = append(opts, nats.PingInterval(time.Duration(target.KeepAlive)*time.Second))
	}
	return nats.Connect(u.String(), opts...)
}

func metricsPort() int {
	if v := os.Getenv("WASTEPRO_METRICS_PORT"); v != "" {
		var p int
		if _, err := fmt.Sscanf(v, "%d", &p); err == nil {
			return p
		}
	}
	return 9090
}
