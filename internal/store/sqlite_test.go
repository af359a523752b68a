package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	_ "modernc.org/sqlite"

	"github.com/hyperengineering/voices/internal/types"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func samplePosts(contents ...string) []types.GeneratedPost {
	posts := make([]types.GeneratedPost, 0, len(contents))
	for _, c := range contents {
		posts = append(posts, types.NewGeneratedPost(c,
			[]types.PatternType{types.PatternTimelineReality},
			[]string{"Specific numbers", "Peer voice"},
		))
	}
	return posts
}

func TestStore_NewSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestStore_NewSQLiteStore_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSQLiteStore(dir + "/nested/data/voices.db")
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer s.Close()
}

func TestStore_SavePosts(t *testing.T) {
	// Given: an empty store
	s := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// When: a batch of two synthetic posts is saved
	result, err := s.SavePosts(ctx, "sleep-anxiety", samplePosts("first post text", "second post"), RecordMeta{
		Author:      "community-voices",
		Synthetic:   true,
		GeneratedAt: at,
	})
	if err != nil {
		t.Fatalf("SavePosts() error = %v", err)
	}

	// Then: each post gets an ID and shares one generated batch ID
	if result.Saved != 2 || len(result.IDs) != 2 {
		t.Fatalf("SavePosts() = %+v, want 2 saved", result)
	}
	if result.BatchID == "" {
		t.Error("expected a generated batch ID")
	}
	if result.IDs[0] == result.IDs[1] {
		t.Error("expected distinct post IDs")
	}

	// And: the stored records carry the metadata and zeroed engagement counters
	got, err := s.ListPosts(ctx, "sleep-anxiety")
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	want := []types.StoredPost{
		{
			ID: result.IDs[0], TopicID: "sleep-anxiety", BatchID: result.BatchID, Position: 0,
			Content: "first post text", PatternsUsed: []string{"timeline-reality"}, WordCount: 3,
			AuthenticityMarkers: []string{"Specific numbers", "Peer voice"},
			Author:              "community-voices", Synthetic: true, GeneratedAt: at,
		},
		{
			ID: result.IDs[1], TopicID: "sleep-anxiety", BatchID: result.BatchID, Position: 1,
			Content: "second post", PatternsUsed: []string{"timeline-reality"}, WordCount: 2,
			AuthenticityMarkers: []string{"Specific numbers", "Peer voice"},
			Author:              "community-voices", Synthetic: true, GeneratedAt: at,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListPosts() mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_SavePosts_KeepsExplicitBatchID(t *testing.T) {
	s := newTestStore(t)

	result, err := s.SavePosts(context.Background(), "grief", samplePosts("a"), RecordMeta{BatchID: "batch-7"})
	if err != nil {
		t.Fatal(err)
	}
	if result.BatchID != "batch-7" {
		t.Errorf("BatchID = %q, want batch-7", result.BatchID)
	}
}

func TestStore_SavePosts_EmptyBatch(t *testing.T) {
	s := newTestStore(t)

	result, err := s.SavePosts(context.Background(), "grief", nil, RecordMeta{})
	if err != nil {
		t.Fatalf("SavePosts(nil) error = %v", err)
	}
	if result.Saved != 0 || result.IDs == nil {
		t.Errorf("SavePosts(nil) = %+v, want zero saved with non-nil IDs", result)
	}
}

func TestStore_SavePosts_RequiresTopic(t *testing.T) {
	s := newTestStore(t)

	_, err := s.SavePosts(context.Background(), "  ", samplePosts("a"), RecordMeta{})
	if !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("SavePosts() error = %v, want ErrInvalidTopic", err)
	}
}

func TestStore_PositionsContinueAcrossBatches(t *testing.T) {
	// Given: a topic with one saved batch
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.SavePosts(ctx, "fitness-101", samplePosts("one", "two"), RecordMeta{}); err != nil {
		t.Fatal(err)
	}

	// When: a second batch is saved
	if _, err := s.SavePosts(ctx, "fitness-101", samplePosts("three"), RecordMeta{}); err != nil {
		t.Fatal(err)
	}

	// Then: posts are listed in insertion order
	posts, err := s.ListPosts(ctx, "fitness-101")
	if err != nil {
		t.Fatal(err)
	}
	var contents []string
	for _, p := range posts {
		contents = append(contents, p.Content)
	}
	if diff := cmp.Diff([]string{"one", "two", "three"}, contents); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if posts[2].Position != 2 {
		t.Errorf("third post position = %d, want 2", posts[2].Position)
	}
}

func TestStore_Counts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.SavePosts(ctx, "sleep", samplePosts("a", "b", "c"), RecordMeta{Synthetic: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SavePosts(ctx, "sleep", samplePosts("real"), RecordMeta{Synthetic: false}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SavePosts(ctx, "other", samplePosts("x"), RecordMeta{Synthetic: true}); err != nil {
		t.Fatal(err)
	}

	// Reads are idempotent.
	for i := 0; i < 2; i++ {
		total, err := s.CountPosts(ctx, "sleep")
		if err != nil {
			t.Fatal(err)
		}
		synthetic, err := s.CountSynthetic(ctx, "sleep")
		if err != nil {
			t.Fatal(err)
		}
		if total != 4 || synthetic != 3 {
			t.Errorf("counts = (%d, %d), want (4, 3)", total, synthetic)
		}
	}

	topics, err := s.ListTopics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []types.TopicCounts{
		{TopicID: "other", Total: 1, Synthetic: 1},
		{TopicID: "sleep", Total: 4, Synthetic: 3},
	}
	if diff := cmp.Diff(want, topics); diff != "" {
		t.Errorf("ListTopics() mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_CountUnknownTopicIsZero(t *testing.T) {
	s := newTestStore(t)

	n, err := s.CountPosts(context.Background(), "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("CountPosts() = %d, want 0", n)
	}
}

func TestStore_DeletePosts(t *testing.T) {
	// Given: two topics with posts
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.SavePosts(ctx, "sleep", samplePosts("a", "b"), RecordMeta{Synthetic: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SavePosts(ctx, "other", samplePosts("x"), RecordMeta{Synthetic: true}); err != nil {
		t.Fatal(err)
	}

	// When: one topic is deleted
	deleted, err := s.DeletePosts(ctx, "sleep")
	if err != nil {
		t.Fatalf("DeletePosts() error = %v", err)
	}

	// Then: only that topic's posts are gone
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}
	if n, _ := s.CountPosts(ctx, "sleep"); n != 0 {
		t.Errorf("sleep count = %d, want 0", n)
	}
	if n, _ := s.CountPosts(ctx, "other"); n != 1 {
		t.Errorf("other count = %d, want 1", n)
	}

	// And: deleting again removes nothing
	again, err := s.DeletePosts(ctx, "sleep")
	if err != nil || again != 0 {
		t.Errorf("second DeletePosts() = (%d, %v), want (0, nil)", again, err)
	}
}

func TestStore_DeleteSyntheticKeepsRealPosts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.SavePosts(ctx, "sleep", samplePosts("a", "b"), RecordMeta{Synthetic: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SavePosts(ctx, "sleep", samplePosts("real"), RecordMeta{Synthetic: false}); err != nil {
		t.Fatal(err)
	}

	deleted, err := s.DeleteSynthetic(ctx, "sleep")
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}
	posts, _ := s.ListPosts(ctx, "sleep")
	if len(posts) != 1 || posts[0].Content != "real" {
		t.Errorf("remaining posts = %+v, want only the real post", posts)
	}
}

func TestStore_ReplaceSynthetic(t *testing.T) {
	// Given: a topic with two synthetic posts and one real post
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.SavePosts(ctx, "sleep", samplePosts("a", "b"), RecordMeta{Synthetic: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SavePosts(ctx, "sleep", samplePosts("real"), RecordMeta{Synthetic: false}); err != nil {
		t.Fatal(err)
	}

	// When: the synthetic posts are replaced
	result, err := s.ReplaceSynthetic(ctx, "sleep", samplePosts("new"), RecordMeta{Synthetic: true})
	if err != nil {
		t.Fatalf("ReplaceSynthetic() error = %v", err)
	}

	// Then: the real post stays ahead of the new one
	if result.Replaced != 2 || result.Saved != 1 {
		t.Errorf("ReplaceSynthetic() = %+v, want 2 replaced and 1 saved", result)
	}
	posts, _ := s.ListPosts(ctx, "sleep")
	var contents []string
	for _, p := range posts {
		contents = append(contents, p.Content)
	}
	if diff := cmp.Diff([]string{"real", "new"}, contents); diff != "" {
		t.Errorf("stored posts mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_ReplaceSynthetic_FailedInsertKeepsOldPosts(t *testing.T) {
	// Given: two synthetic posts and a table that rejects one content value
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.SavePosts(ctx, "sleep", samplePosts("a", "b"), RecordMeta{Synthetic: true}); err != nil {
		t.Fatal(err)
	}
	_, err := s.db.ExecContext(ctx, `
		CREATE TRIGGER reject_post BEFORE INSERT ON posts
		WHEN NEW.content = 'rejected'
		BEGIN SELECT RAISE(ABORT, 'disk full'); END`)
	if err != nil {
		t.Fatal(err)
	}

	// When: a replacement fails on its second insert
	_, err = s.ReplaceSynthetic(ctx, "sleep", samplePosts("fresh", "rejected"), RecordMeta{Synthetic: true})

	// Then: the error surfaces and the old posts are still there
	if err == nil {
		t.Fatal("ReplaceSynthetic() error = nil, want insert failure")
	}
	n, err := s.CountSynthetic(ctx, "sleep")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("CountSynthetic() = %d, want 2", n)
	}
}

func TestStore_GetPost(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	result, err := s.SavePosts(ctx, "sleep", samplePosts("hello there"), RecordMeta{Author: "a"})
	if err != nil {
		t.Fatal(err)
	}

	post, err := s.GetPost(ctx, result.IDs[0])
	if err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}
	if post.Content != "hello there" || post.TopicID != "sleep" {
		t.Errorf("GetPost() = %+v", post)
	}

	if _, err := s.GetPost(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPost(missing) error = %v, want ErrNotFound", err)
	}
}

func TestStore_ListPosts_EmptyIsNonNil(t *testing.T) {
	s := newTestStore(t)

	posts, err := s.ListPosts(context.Background(), "empty")
	if err != nil {
		t.Fatal(err)
	}
	if posts == nil || len(posts) != 0 {
		t.Errorf("ListPosts() = %v, want empty non-nil slice", posts)
	}
}

func TestStore_ConcurrentSaves(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.SavePosts(ctx, "busy", samplePosts("p1", "p2"), RecordMeta{Synthetic: true})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent SavePosts() error = %v", err)
		}
	}
	n, err := s.CountPosts(ctx, "busy")
	if err != nil {
		t.Fatal(err)
	}
	if n != 16 {
		t.Errorf("CountPosts() = %d, want 16", n)
	}
}
