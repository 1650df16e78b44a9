// Command ingest is the CLI front-end for the PDF ingest pipeline (spec
// §6's `ingest -subject_name S -file_path F [-toc T]`): it opens the named
// subject's knowledge-graph instance through the orchestrator, runs the
// file through the pipeline in engine/ingest, and prints the completion
// summary as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mfshiu/wastepro/engine/config"
	"github.com/mfshiu/wastepro/engine/extract"
	"github.com/mfshiu/wastepro/engine/fileservice"
	"github.com/mfshiu/wastepro/engine/ingest"
	"github.com/mfshiu/wastepro/engine/kg"
	"github.com/mfshiu/wastepro/engine/kgctl"
	"github.com/mfshiu/wastepro/engine/llm"
	"github.com/mfshiu/wastepro/engine/logging"
	"github.com/mfshiu/wastepro/engine/pdfx"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func main() {
	var (
		subjectName = flag.String("subject_name", "", "KG subject name to ingest into (required)")
		filePath    = flag.String("file_path", "", "path to the PDF file to ingest (required)")
		tocPath     = flag.String("toc", "", "optional path to a JSON table-of-contents file (list of pdfx.Chapter)")
		configPath  = flag.String("config", "", "path to wastepro.toml (default: WASTEPRO_CONFIG_PATH or ./wastepro.toml)")
	)
	flag.Parse()

	if *subjectName == "" || *filePath == "" {
		fmt.Fprintln(os.Stderr, "usage: ingest -subject_name S -file_path F [-toc T]")
		os.Exit(2)
	}

	if err := run(*subjectName, *filePath, *tocPath, *configPath); err != nil {
		fmt.Fprintln(os.Stderr, "ingest:", err)
		os.Exit(1)
	}
}

func run(subjectName, filePath, tocPath, configPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read %s: %w", filePath, err)
	}

	var toc []pdfx.Chapter
	if tocPath != "" {
		tocData, err := os.ReadFile(tocPath)
		if err != nil {
			return fmt.Errorf("read toc %s: %w", tocPath, err)
		}
		if err := json.Unmarshal(tocData, &toc); err != nil {
			return fmt.Errorf("parse toc %s: %w", tocPath, err)
		}
	}

	kgClient, err := kgctl.Dial(cfg.Service.KG.Hostname)
	if err != nil {
		return fmt.Errorf("dial kg orchestrator: %w", err)
	}
	defer kgClient.Close()

	instance, err := kgClient.Open(ctx, subjectName)
	if err != nil {
		return fmt.Errorf("open kg instance %q: %w", subjectName, err)
	}

	driver, err := neo4j.NewDriverWithContext(instance.BoltURL, neo4j.NoAuth())
	if err != nil {
		return fmt.Errorf("connect to kg instance %q: %w", subjectName, err)
	}
	defer driver.Close(ctx)

	chat, err := llm.NewFromConfig(cfg.Service.LLM)
	if err != nil {
		return fmt.Errorf("build llm provider: %w", err)
	}

	deps := ingest.Deps{
		Files:     fileservice.New(cfg.Service.File.HomeDirectory),
		KG:        kg.New(driver),
		Extractor: extract.NewExtractor(chat),
		Logger:    log,
	}

	req := ingest.UploadRequest{
		Content:  content,
		Filename: filepath.Base(filePath),
		KGName:   subjectName,
		TOC:      toc,
	}

	completion, err := ingest.Run(ctx, deps, req)
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}

	out, err := json.MarshalIndent(completion, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal completion: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
