package store

import (
	"context"
	"time"

	"github.com/hyperengineering/voices/internal/types"
)

// PostStore defines the persistence contract for generated posts.
type PostStore interface {
	SavePosts(ctx context.Context, topicID string, posts []types.GeneratedPost, meta RecordMeta) (SaveResult, error)
	ReplaceSynthetic(ctx context.Context, topicID string, posts []types.GeneratedPost, meta RecordMeta) (SaveResult, error)
	CountPosts(ctx context.Context, topicID string) (int64, error)
	CountSynthetic(ctx context.Context, topicID string) (int64, error)
	ListPosts(ctx context.Context, topicID string) ([]types.StoredPost, error)
	GetPost(ctx context.Context, id string) (*types.StoredPost, error)
	DeletePosts(ctx context.Context, topicID string) (int64, error)
	DeleteSynthetic(ctx context.Context, topicID string) (int64, error)
	ListTopics(ctx context.Context) ([]types.TopicCounts, error)
	Close() error
}

// RecordMeta is written alongside every post of one SavePosts call.
// A zero BatchID is replaced by a new ULID and a zero GeneratedAt by the
// current time.
type RecordMeta struct {
	BatchID     string
	Author      string
	Synthetic   bool
	GeneratedAt time.Time
}

// SaveResult reports what SavePosts or ReplaceSynthetic wrote.
type SaveResult struct {
	BatchID  string   `json:"batchId"`
	Saved    int      `json:"saved"`
	Replaced int64    `json:"replaced,omitempty"`
	IDs      []string `json:"ids"`
}
