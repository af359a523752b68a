package generation

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hyperengineering/voices/internal/config"
)

// NewFromConfig builds the configured provider wrapped in a courtesy pacer.
// The returned closer releases provider resources and is never nil.
func NewFromConfig(ctx context.Context, cfg config.GenerationConfig) (Generator, io.Closer, error) {
	var (
		g      Generator
		closer io.Closer = nopCloser{}
	)
	switch cfg.Provider {
	case config.ProviderOpenAI, "":
		g = NewOpenAI(cfg.OpenAIKey, cfg.Model, cfg.BaseURL, cfg.Temperature)
	case config.ProviderGemini:
		gem, err := NewGemini(ctx, cfg.GeminiKey, cfg.Model, cfg.Temperature)
		if err != nil {
			return nil, nil, err
		}
		g, closer = gem, gem
	default:
		return nil, nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
	return NewPaced(g, time.Duration(cfg.CourtesyDelay)), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
