// Package llm wraps the Gemini API for the language tasks the recommender
// needs: query embeddings, reader-profile inference, and translation.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	defaultChatModelName      = "gemini-1.5-flash-latest"
	defaultEmbeddingModelName = "text-embedding-004"

	profileSystemInstruction = "You classify who a book request is for. " +
		"Given a user's query, respond with exactly one word: child, teen, adult, or technical. " +
		"If you cannot tell, respond with: unknown. Respond with the single word only."
)

type Service struct {
	client *genai.Client
}

func NewService(ctx context.Context, apiKey string) (*Service, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Service{client: client}, nil
}

func (s *Service) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Embed returns the embedding vector for the given text.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	em := s.client.EmbeddingModel(defaultEmbeddingModelName)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embedding request failed: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("no embedding data received from gemini")
	}
	return res.Embedding.Values, nil
}

// InferProfile asks the model who the query's book is for. The raw tag is
// returned as-is; the caller matches it against the known profiles and treats
// anything else as unknown.
func (s *Service) InferProfile(ctx context.Context, query string) (string, error) {
	model := s.client.GenerativeModel(defaultChatModelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(profileSystemInstruction)},
	}
	temp := float32(0.0)
	maxTokens := int32(5)
	model.GenerationConfig = genai.GenerationConfig{
		MaxOutputTokens: &maxTokens,
		Temperature:     &temp,
	}

	resp, err := model.GenerateContent(ctx, genai.Text(fmt.Sprintf("Query: %q", query)))
	if err != nil {
		return "", fmt.Errorf("gemini profile inference failed: %w", err)
	}
	tag := collectText(resp)
	if tag == "" {
		return "", fmt.Errorf("gemini returned an empty profile tag")
	}
	return strings.ToLower(strings.Trim(tag, "\"'\n\r\t .")), nil
}

// Translate renders text into the target language, returning only the
// translated text.
func (s *Service) Translate(ctx context.Context, text, targetLang string) (string, error) {
	model := s.client.GenerativeModel(defaultChatModelName)

	var prompt string
	if strings.EqualFold(targetLang, "romanian") {
		prompt = fmt.Sprintf("Translate the following text to Romanian, preserving meaning and style. Only return the translated text.\n\n%s", text)
	} else {
		prompt = fmt.Sprintf("Translate the following text to English, preserving meaning and style. Only return the translated text.\n\n%s", text)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini translation request failed: %w", err)
	}
	translated := collectText(resp)
	if translated == "" {
		return "", fmt.Errorf("gemini returned an empty translation")
	}
	return translated, nil
}

// collectText joins the text parts of the first candidate, if any.
func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(b.String())
}
