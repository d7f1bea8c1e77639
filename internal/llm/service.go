package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"recruiter-crm/pkg/httpx"
)

type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderOllama Provider = "ollama"
	ProviderGroq   Provider = "groq"
	ProviderNone   Provider = "none"
)

// Generator is the single entry point the pipeline components depend on:
// a free-text prompt in, a JSON-parseable string payload (or an error) out.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Service struct {
	provider Provider
	apiKey   string
	model    string
	client   *httpx.Client
}

func NewService(provider, apiKey, model string) *Service {
	return &Service{
		provider: Provider(provider),
		apiKey:   apiKey,
		model:    model,
		client:   httpx.NewClient(120 * time.Second),
	}
}

// Generate sends a prompt to the configured LLM and returns the raw response.
func (s *Service) Generate(ctx context.Context, prompt string) (string, error) {
	switch s.provider {
	case ProviderOpenAI:
		return s.callChatCompletions(ctx, "https://api.openai.com/v1/chat/completions", prompt)
	case ProviderGroq:
		return s.callChatCompletions(ctx, "https://api.groq.com/openai/v1/chat/completions", prompt)
	case ProviderOllama:
		return s.callOllama(ctx, prompt)
	case ProviderNone:
		return "", fmt.Errorf("LLM provider not configured")
	default:
		return "", fmt.Errorf("unknown provider: %s", s.provider)
	}
}

// callChatCompletions covers OpenAI and Groq, which share the wire format.
func (s *Service) callChatCompletions(ctx context.Context, url, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model": s.model,
		"messages": []map[string]string{
			{
				"role":    "system",
				"content": "You are a recruiting assistant. Return only valid JSON.",
			},
			{
				"role":    "user",
				"content": prompt,
			},
		},
		"temperature": 0.1,
		"response_format": map[string]string{
			"type": "json_object",
		},
	}

	jsonData, _ := json.Marshal(reqBody)

	resp, err := s.client.PostJSON(ctx, url, jsonData, map[string]string{
		"Authorization": "Bearer " + s.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("LLM request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("LLM API error: %d", resp.StatusCode)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	if result.Error.Message != "" {
		return "", fmt.Errorf("LLM error: %s", result.Error.Message)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}

	return result.Choices[0].Message.Content, nil
}

func (s *Service) callOllama(ctx context.Context, prompt string) (string, error) {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = "http://localhost:11434"
	}

	reqBody := map[string]interface{}{
		"model":  s.model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}

	jsonData, _ := json.Marshal(reqBody)

	resp, err := s.client.PostJSON(ctx, host+"/api/generate", jsonData, nil)
	if err != nil {
		return "", fmt.Errorf("Ollama connection failed (is Ollama running?): %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Response string `json:"response"`
		Error    string `json:"error"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	if result.Error != "" {
		return "", fmt.Errorf("Ollama error: %s", result.Error)
	}

	return result.Response, nil
}
