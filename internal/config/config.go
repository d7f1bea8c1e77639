package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	Port        string

	// LLM Configuration
	LLMProvider string // "openai", "groq", "ollama" or "none"
	LLMModel    string // "gpt-4o-mini", "gpt-4o", "llama-3.3-70b-versatile"
	LLMAPIKey   string // OpenAI or Groq API key

	// Ingestion
	UploadsDir   string
	IngestWindow int    // files processed concurrently per batch window
	OCRLanguage  string // tesseract language code for scanned CVs
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
		log.Println("Attempting to load from parent directory...")
		err = godotenv.Load("../../.env")
		if err != nil {
			log.Println("Warning: Could not load .env file, using environment variables")
		}
	}

	llmProvider := os.Getenv("LLM_PROVIDER")
	if llmProvider == "" {
		llmProvider = "openai" // default
	}

	llmModel := os.Getenv("LLM_MODEL")
	if llmModel == "" {
		llmModel = "gpt-4o-mini" // default model
	}

	// Get API key based on provider
	llmAPIKey := ""
	if llmProvider == "openai" {
		llmAPIKey = os.Getenv("OPENAI_API_KEY")
	} else if llmProvider == "groq" {
		llmAPIKey = os.Getenv("GROQ_API_KEY")
	}

	uploadsDir := os.Getenv("UPLOADS_DIR")
	if uploadsDir == "" {
		uploadsDir = "./uploads"
	}

	ocrLang := os.Getenv("OCR_LANGUAGE")
	if ocrLang == "" {
		ocrLang = "spa"
	}

	window := 15
	if v := os.Getenv("INGEST_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			window = n
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		Port:         port,
		LLMProvider:  llmProvider,
		LLMModel:     llmModel,
		LLMAPIKey:    llmAPIKey,
		UploadsDir:   uploadsDir,
		IngestWindow: window,
		OCRLanguage:  ocrLang,
	}
}
