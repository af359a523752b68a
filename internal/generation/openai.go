package generation

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// Compile-time interface check
var _ Generator = (*OpenAI)(nil)

// CompletionsService defines the interface for making chat completion calls.
// This abstraction enables testing without calling the real OpenAI API.
type CompletionsService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAI generates posts with OpenAI chat completions.
type OpenAI struct {
	completions CompletionsService
	model       openai.ChatModel
	temperature float64
}

// NewOpenAI creates a generator for the given model. baseURL may be empty.
func NewOpenAI(apiKey, model, baseURL string, temperature float64) *OpenAI {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	client := openai.NewClient(opts...)
	return &OpenAI{
		completions: client.Chat.Completions,
		model:       openai.ChatModel(model),
		temperature: temperature,
	}
}

// Generate sends prompt as a single user message.
func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		}),
		Model: openai.F(o.model),
	}
	if o.temperature > 0 {
		params.Temperature = openai.F(o.temperature)
	}

	resp, err := o.completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai completion failed: %w", ErrEmptyCompletion)
	}

	text, err := cleanCompletion(resp.Choices[0].Message.Content)
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	return text, nil
}

// Name returns "openai/<model>".
func (o *OpenAI) Name() string {
	return "openai/" + string(o.model)
}
