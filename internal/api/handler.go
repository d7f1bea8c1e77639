package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"recruiter-crm/internal/config"
	"recruiter-crm/internal/cv"
	"recruiter-crm/internal/ingest"
	"recruiter-crm/internal/llm"
	"recruiter-crm/internal/scoring"
	"recruiter-crm/internal/storage"
)

type API struct {
	db        *storage.DB
	pipeline  *ingest.Pipeline
	scheduler *ingest.Scheduler
}

func NewAPI(db *storage.DB, cfg *config.Config) *API {
	// Initialize LLM service (if configured)
	var llmSvc llm.Generator
	if cfg.LLMProvider != "" && cfg.LLMProvider != "none" {
		llmSvc = llm.NewService(cfg.LLMProvider, cfg.LLMAPIKey, cfg.LLMModel)
	} else {
		log.Println("Warning: LLM provider not configured; field extraction and scoring disabled")
	}

	parser := cv.NewParser(cfg.OCRLanguage)
	fields := cv.NewFieldExtractor(llmSvc)
	scorer := scoring.NewScorer(llmSvc)

	return &API{
		db:        db,
		pipeline:  ingest.NewPipeline(db, parser, fields, cfg.IngestWindow, cfg.UploadsDir),
		scheduler: ingest.NewScheduler(db, scorer),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: Failed to encode JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}
