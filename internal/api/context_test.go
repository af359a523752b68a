package api

import (
	"context"
	"errors"
	"testing"
)

func TestWithTopicID_RoundTrip(t *testing.T) {
	ctx := WithTopicID(context.Background(), "sleep-anxiety")

	got, err := TopicIDFromContext(ctx)
	if err != nil {
		t.Fatalf("TopicIDFromContext returned error: %v", err)
	}
	if got != "sleep-anxiety" {
		t.Errorf("got %q, want sleep-anxiety", got)
	}
}

func TestTopicIDFromContext_Missing(t *testing.T) {
	for name, ctx := range map[string]context.Context{
		"absent": context.Background(),
		"empty":  WithTopicID(context.Background(), ""),
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := TopicIDFromContext(ctx); !errors.Is(err, ErrNoTopicInContext) {
				t.Errorf("error = %v, want ErrNoTopicInContext", err)
			}
		})
	}
}

func TestMustTopicIDFromContext_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustTopicIDFromContext did not panic")
		}
	}()

	MustTopicIDFromContext(context.Background())
}
