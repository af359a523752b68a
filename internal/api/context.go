package api

import (
	"context"
	"errors"
)

type topicIDContextKey struct{}

// ErrNoTopicInContext indicates no topic ID was found in the context.
var ErrNoTopicInContext = errors.New("no topic in context")

// WithTopicID returns a new context with the validated topic ID attached.
func WithTopicID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, topicIDContextKey{}, id)
}

// TopicIDFromContext extracts the topic ID from the context.
func TopicIDFromContext(ctx context.Context) (string, error) {
	id, ok := ctx.Value(topicIDContextKey{}).(string)
	if !ok || id == "" {
		return "", ErrNoTopicInContext
	}
	return id, nil
}

// MustTopicIDFromContext extracts the topic ID or panics.
// Use only on routes behind TopicMiddleware.
func MustTopicIDFromContext(ctx context.Context) string {
	id, err := TopicIDFromContext(ctx)
	if err != nil {
		panic("topic not in context: middleware misconfiguration")
	}
	return id
}
