package main

import (
	"context"
	"flag"
	"log"

	"recruiter-crm/internal/config"
	"recruiter-crm/internal/ingest"
	"recruiter-crm/internal/llm"
	"recruiter-crm/internal/scoring"
	"recruiter-crm/internal/storage"
)

// Operator tool: run the scoring sweep for one posting from the command line,
// e.g. after an interrupted sweep left rows on the failure sentinel.
func main() {
	var postingID int64
	var variantFlag string
	flag.Int64Var(&postingID, "posting", 0, "Posting ID to score")
	flag.StringVar(&variantFlag, "variant", "standard", "Rubric variant: standard or strict")
	flag.Parse()

	if postingID == 0 {
		log.Fatal("-posting is required")
	}

	variant, err := scoring.ParseVariant(variantFlag)
	if err != nil {
		log.Fatal(err)
	}

	cfg := config.LoadConfig()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	if cfg.LLMProvider == "" || cfg.LLMProvider == "none" {
		log.Fatal("LLM_PROVIDER must be set (e.g. openai|ollama|groq) and configured")
	}

	log.Printf("Connecting to DB...")
	db, err := storage.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer db.Close()

	log.Printf("Creating LLM service (provider=%s, model=%s)", cfg.LLMProvider, cfg.LLMModel)
	llmSvc := llm.NewService(cfg.LLMProvider, cfg.LLMAPIKey, cfg.LLMModel)

	scheduler := ingest.NewScheduler(db, scoring.NewScorer(llmSvc))

	summary, err := scheduler.Run(context.Background(), postingID, variant, func(done, total int) {
		log.Printf("Progress: %d of %d processed", done, total)
	})
	if err != nil {
		log.Fatalf("scoring sweep failed: %v", err)
	}

	if summary.AllAnalyzed {
		log.Printf("Posting %d: all applications already analyzed", postingID)
		return
	}
	log.Printf("Posting %d: %d scored, %d failed of %d", postingID, summary.Scored, summary.Failed, summary.Total)
}
