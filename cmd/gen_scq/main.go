// Command gen_scq is the CLI front-end for SCQ generation (spec §6's
// `gen_scq -s S -doc D -c C -d {1|2|3}`): it opens the subject's knowledge
// graph, runs the generator (with the evaluator loop if configured on),
// and prints the generated question as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/mfshiu/wastepro/engine/config"
	"github.com/mfshiu/wastepro/engine/kg"
	"github.com/mfshiu/wastepro/engine/kgctl"
	"github.com/mfshiu/wastepro/engine/llm"
	"github.com/mfshiu/wastepro/engine/rank"
	"github.com/mfshiu/wastepro/engine/scq"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// difficultyLevels maps the CLI's coarse {1,2,3} shorthand onto the
// spec's {30,50,70} difficulty scale.
var difficultyLevels = map[int]int{1: 30, 2: 50, 3: 70}

func main() {
	var (
		subject    = flag.String("s", "", "KG subject name (required)")
		document   = flag.String("doc", "", "document name to draw concepts from (required)")
		section    = flag.String("c", "", "optional section path, slash-separated (e.g. 'Chapter 2/Leachate')")
		level      = flag.Int("d", 0, "difficulty level: 1 (easy), 2 (medium), or 3 (hard) (required)")
		rankerName = flag.String("ranker", "simple", "ranker to use: simple, weighted, or wastemanagement")
		configPath = flag.String("config", "", "path to wastepro.toml (default: WASTEPRO_CONFIG_PATH or ./wastepro.toml)")
	)
	flag.Parse()

	difficulty, ok := difficultyLevels[*level]
	if *subject == "" || *document == "" || !ok {
		fmt.Fprintln(os.Stderr, "usage: gen_scq -s S -doc D -c C -d {1|2|3}")
		os.Exit(2)
	}

	question, err := run(*subject, *document, *section, difficulty, *rankerName, *configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "gen_scq:", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(question, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "gen_scq: marshal result:", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func run(subject, document, section string, difficulty int, rankerName, configPath string) (scq.GeneratedQuestion, error) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return scq.GeneratedQuestion{}, fmt.Errorf("load config: %w", err)
	}

	kgClient, err := kgctl.Dial(cfg.Service.KG.Hostname)
	if err != nil {
		return scq.GeneratedQuestion{}, fmt.Errorf("dial kg orchestrator: %w", err)
	}
	defer kgClient.Close()

	instance, err := kgClient.Open(ctx, subject)
	if err != nil {
		return scq.GeneratedQuestion{}, fmt.Errorf("open kg instance %q: %w", subject, err)
	}

	driver, err := neo4j.NewDriverWithContext(instance.BoltURL, neo4j.NoAuth())
	if err != nil {
		return scq.GeneratedQuestion{}, fmt.Errorf("connect to kg instance %q: %w", subject, err)
	}
	defer driver.Close(ctx)

	store := kg.New(driver)

	chat, err := llm.NewFromConfig(cfg.Service.LLM)
	if err != nil {
		return scq.GeneratedQuestion{}, fmt.Errorf("build llm provider: %w", err)
	}

	ranker, err := buildRanker(rankerName, store)
	if err != nil {
		return scq.GeneratedQuestion{}, err
	}

	var opts scq.GeneratorOpts
	if cfg.Service.SCQ.EvaluatorLoop {
		opts.Evaluator = scq.NewEvaluator(chat)
	}
	generator := scq.NewGenerator(store, ranker, chat, opts)

	criteria := scq.QuestionCriteria{
		QuestionID: uuid.NewString(),
		Subject:    subject,
		Document:   document,
		Difficulty: difficulty,
	}
	if section != "" {
		criteria.Section = strings.Split(section, "/")
	}

	return generator.Generate(ctx, criteria)
}

func buildRanker(name string, store *kg.GraphStore) (rank.Ranker, error) {
	switch name {
	case "simple", "":
		return rank.NewSimpleRanker(store), nil
	case "weighted":
		return rank.NewWeightedRanker(store, rank.WeightedRankerOpts{}), nil
	case "wastemanagement":
		return rank.NewWasteManagementRanker(store, rank.DefaultKeyword), nil
	default:
		return nil, fmt.Errorf("gen_scq: unknown ranker %q", name)
	}
}
