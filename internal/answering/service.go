package answering

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/lehigh-university-libraries/docvqa/internal/gemini"
	"github.com/lehigh-university-libraries/docvqa/internal/ollama"
	"github.com/lehigh-university-libraries/docvqa/internal/openai"
	"github.com/lehigh-university-libraries/docvqa/internal/providers"
)

// NoAnswer is returned when the model produced nothing usable.
const NoAnswer = "Could not parse answer."

// Service answers document questions with a vision LLM.
type Service struct {
	provider     providers.Provider
	ProviderName string
	Model        string
	Temperature  float64
}

// NewService builds a service for the named provider. Empty arguments fall
// back to DOCVQA_PROVIDER (default ollama) and the provider's default model.
func NewService(providerName, model string) (*Service, error) {
	if providerName == "" {
		providerName = os.Getenv("DOCVQA_PROVIDER")
		if providerName == "" {
			providerName = "ollama"
		}
	}

	var p providers.Provider
	switch providerName {
	case "ollama":
		p = ollama.New()
	case "openai":
		p = openai.New()
	case "gemini":
		p = gemini.New()
	default:
		return nil, fmt.Errorf("unsupported provider: %s", providerName)
	}

	return NewServiceWith(p, providerName, model), nil
}

// NewServiceWith wraps an existing provider.
func NewServiceWith(p providers.Provider, providerName, model string) *Service {
	if model == "" {
		model = DefaultModel(providerName)
	}
	return &Service{
		provider:     p,
		ProviderName: providerName,
		Model:        model,
		Temperature:  0.0,
	}
}

// DefaultModel returns the model used when none is given.
func DefaultModel(provider string) string {
	switch provider {
	case "openai":
		return envOr("OPENAI_MODEL", "gpt-4o")
	case "ollama":
		return envOr("OLLAMA_MODEL", "qwen2.5vl:7b")
	case "gemini":
		return envOr("GEMINI_MODEL", "gemini-1.5-flash")
	default:
		return ""
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Answer asks the configured model question about the image.
func (s *Service) Answer(ctx context.Context, image []byte, mimeType, question string) (string, error) {
	slog.DebugContext(ctx, "Sending question to provider", "provider", s.ProviderName, "model", s.Model)

	raw, err := s.provider.Answer(ctx, providers.Request{
		Image:       image,
		MimeType:    mimeType,
		Prompt:      BuildPrompt(question),
		Model:       s.Model,
		Temperature: s.Temperature,
	})
	if err != nil {
		return "", err
	}

	answer := CleanAnswer(raw)
	slog.InfoContext(ctx, "Inference successful", "provider", s.ProviderName, "model", s.Model, "answer", truncate(answer, 50))
	return answer, nil
}

// BuildPrompt is the document question answering prompt.
func BuildPrompt(question string) string {
	return fmt.Sprintf(`You are answering a question about the document shown in the image.

INSTRUCTIONS:
1. Read the document carefully, including tables, forms, headers and handwriting
2. Answer with the shortest span of text from the document that answers the question
3. Copy values (numbers, dates, names) exactly as they appear
4. Do not explain your answer or repeat the question

Question: %s`, question)
}

// CleanAnswer strips the wrapping models tend to add around short answers.
func CleanAnswer(raw string) string {
	answer := strings.TrimSpace(raw)
	answer = strings.TrimPrefix(answer, "```text")
	answer = strings.TrimPrefix(answer, "```")
	answer = strings.TrimSuffix(answer, "```")
	answer = strings.TrimSpace(answer)

	for _, prefix := range []string{"Answer:", "answer:", "ANSWER:"} {
		answer = strings.TrimSpace(strings.TrimPrefix(answer, prefix))
	}

	if len(answer) >= 2 && answer[0] == '"' && answer[len(answer)-1] == '"' {
		answer = answer[1 : len(answer)-1]
	}

	if answer == "" {
		return NoAnswer
	}
	return answer
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
