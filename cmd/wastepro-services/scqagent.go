package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/mfshiu/wastepro/engine/agent"
	"github.com/mfshiu/wastepro/engine/config"
	"github.com/mfshiu/wastepro/engine/domain"
	"github.com/mfshiu/wastepro/engine/llm"
	"github.com/mfshiu/wastepro/engine/rank"
	"github.com/mfshiu/wastepro/engine/scq"
)

// newSCQAgent wires question generation (spec §4.7) and evaluation (§4.8)
// onto one agent. Each generation request builds a fresh ranker against the
// request's subject graph and runs the evaluator loop when
// cfg.EvaluatorLoop is on.
func newSCQAgent(nc *nats.Conn, log *slog.Logger, kgSvc *kgService, chat *llm.Service, cfg config.SCQServiceConfig) *agent.Agent {
	a := agent.New("SCQ", nc, log)
	evaluator := scq.NewEvaluator(chat)

	generate := func(ctx context.Context, _ string, p domain.Parcel) (map[string]any, error) {
		var criteria scq.QuestionCriteria
		if err := decodeAny(p.Content, &criteria); err != nil {
			return nil, fmt.Errorf("scq: decode criteria: %w", err)
		}
		if criteria.Subject == "" || criteria.Document == "" {
			return nil, fmt.Errorf("scq: subject and document are required")
		}

		inst, err := kgSvc.open(ctx, criteria.Subject)
		if err != nil {
			return nil, fmt.Errorf("scq: open kg %q: %w", criteria.Subject, err)
		}

		var opts scq.GeneratorOpts
		if cfg.EvaluatorLoop {
			opts.Evaluator = evaluator
		}
		generator := scq.NewGenerator(inst.store, rank.NewSimpleRanker(inst.store), chat, opts)

		question, err := generator.Generate(ctx, criteria)
		if err != nil {
			return nil, fmt.Errorf("scq: generate: %w", err)
		}
		return toMap(question)
	}

	evaluate := func(ctx context.Context, _ string, p domain.Parcel) (map[string]any, error) {
		var q scq.Question
		if raw, ok := p.Content["question"]; ok {
			if err := decodeAny(raw, &q); err != nil {
				return nil, fmt.Errorf("scq: decode question: %w", err)
			}
		} else if err := decodeAny(p.Content, &q); err != nil {
			return nil, fmt.Errorf("scq: decode question: %w", err)
		}

		evaluation, err := evaluator.Evaluate(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("scq: evaluate: %w", err)
		}
		return toMap(evaluation)
	}

	_ = a.Subscribe("Create/SCQ/Generation", generate)
	_ = a.Subscribe("Evaluate/SCQ/Evaluation", evaluate)
	return a
}
