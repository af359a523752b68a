package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-1.5-flash"

// Compile-time interface check
var _ Generator = (*Gemini)(nil)

// ContentModel is the part of *genai.GenerativeModel the generator uses.
type ContentModel interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Gemini generates posts with the Google Gemini API.
type Gemini struct {
	client *genai.Client
	model  ContentModel
	name   string
}

// NewGemini creates a Gemini client. Close releases it.
func NewGemini(ctx context.Context, apiKey, model string, temperature float64) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	m := client.GenerativeModel(model)
	if temperature > 0 {
		m.SetTemperature(float32(temperature))
	}
	return &Gemini{client: client, model: m, name: model}, nil
}

// Generate sends prompt as a single text part and joins the text parts of
// the first candidate.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini generation failed: %w", ErrEmptyCompletion)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	text, err := cleanCompletion(sb.String())
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	return text, nil
}

// Name returns "gemini/<model>".
func (g *Gemini) Name() string {
	return "gemini/" + g.name
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}
