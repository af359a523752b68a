package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/hyperengineering/voices/internal/types"
)

// SQLiteStore is the SQLite-backed post store.
type SQLiteStore struct {
	db *sql.DB
}

var _ PostStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens the database at dbPath, applies pragmas and runs
// migrations. ":memory:" opens a private in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if _, err := RunMigrations(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SavePosts appends posts to a topic in one transaction. Positions continue
// from the topic's current maximum so ListPosts returns insertion order.
func (s *SQLiteStore) SavePosts(ctx context.Context, topicID string, posts []types.GeneratedPost, meta RecordMeta) (SaveResult, error) {
	return s.savePosts(ctx, topicID, posts, meta, false)
}

// ReplaceSynthetic deletes the topic's synthetic posts and saves posts in
// the same transaction. On error the existing posts are left untouched.
func (s *SQLiteStore) ReplaceSynthetic(ctx context.Context, topicID string, posts []types.GeneratedPost, meta RecordMeta) (SaveResult, error) {
	return s.savePosts(ctx, topicID, posts, meta, true)
}

func (s *SQLiteStore) savePosts(ctx context.Context, topicID string, posts []types.GeneratedPost, meta RecordMeta, replace bool) (SaveResult, error) {
	if strings.TrimSpace(topicID) == "" {
		return SaveResult{}, ErrInvalidTopic
	}
	if meta.BatchID == "" {
		meta.BatchID = ulid.Make().String()
	}
	if meta.GeneratedAt.IsZero() {
		meta.GeneratedAt = time.Now().UTC()
	}
	result := SaveResult{BatchID: meta.BatchID, IDs: []string{}}
	if len(posts) == 0 && !replace {
		return result, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SaveResult{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if replace {
		res, err := tx.ExecContext(ctx, "DELETE FROM posts WHERE topic_id = ? AND synthetic = 1", topicID)
		if err != nil {
			return SaveResult{}, fmt.Errorf("delete synthetic posts: %w", err)
		}
		if result.Replaced, err = res.RowsAffected(); err != nil {
			return SaveResult{}, fmt.Errorf("rows affected: %w", err)
		}
	}

	var next int
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position), -1) + 1 FROM posts WHERE topic_id = ?", topicID,
	).Scan(&next)
	if err != nil {
		return SaveResult{}, fmt.Errorf("read next position: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO posts (
			id, topic_id, batch_id, position, content, patterns_used, word_count,
			authenticity_markers, author, synthetic, likes, replies, views, generated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, 0, ?)
	`)
	if err != nil {
		return SaveResult{}, fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	generatedAt := meta.GeneratedAt.UTC().Format(time.RFC3339)
	for i, post := range posts {
		patterns, err := marshalStrings(post.Metadata.PatternsUsed)
		if err != nil {
			return SaveResult{}, fmt.Errorf("marshal patterns: %w", err)
		}
		markers, err := marshalStrings(post.Metadata.AuthenticityMarkers)
		if err != nil {
			return SaveResult{}, fmt.Errorf("marshal markers: %w", err)
		}

		id := ulid.Make().String()
		_, err = stmt.ExecContext(ctx,
			id,
			topicID,
			meta.BatchID,
			next+i,
			post.Content,
			patterns,
			post.Metadata.WordCount,
			markers,
			meta.Author,
			meta.Synthetic,
			generatedAt,
		)
		if err != nil {
			return SaveResult{}, fmt.Errorf("insert post: %w", err)
		}
		result.IDs = append(result.IDs, id)
	}

	if err := tx.Commit(); err != nil {
		return SaveResult{}, fmt.Errorf("commit transaction: %w", err)
	}

	result.Saved = len(result.IDs)
	slog.Debug("posts saved",
		"component", "store",
		"action", "save_posts",
		"topic_id", topicID,
		"batch_id", meta.BatchID,
		"saved", result.Saved,
		"replaced", result.Replaced,
	)
	return result, nil
}

// CountPosts returns the number of posts stored for a topic.
func (s *SQLiteStore) CountPosts(ctx context.Context, topicID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts WHERE topic_id = ?", topicID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return count, nil
}

// CountSynthetic returns the number of pipeline-generated posts for a topic.
func (s *SQLiteStore) CountSynthetic(ctx context.Context, topicID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM posts WHERE topic_id = ? AND synthetic = 1", topicID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count synthetic posts: %w", err)
	}
	return count, nil
}

const postColumns = `id, topic_id, batch_id, position, content, patterns_used, word_count,
	authenticity_markers, author, synthetic, likes, replies, views, generated_at`

// ListPosts returns a topic's posts in insertion order.
func (s *SQLiteStore) ListPosts(ctx context.Context, topicID string) ([]types.StoredPost, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+postColumns+" FROM posts WHERE topic_id = ? ORDER BY position", topicID,
	)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []types.StoredPost{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return posts, nil
}

// GetPost retrieves one post by ID.
func (s *SQLiteStore) GetPost(ctx context.Context, id string) (*types.StoredPost, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+postColumns+" FROM posts WHERE id = ?", id)

	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan row: %w", err)
	}
	return post, nil
}

// DeletePosts removes every post of a topic and returns how many were removed.
func (s *SQLiteStore) DeletePosts(ctx context.Context, topicID string) (int64, error) {
	return s.deleteWhere(ctx, "delete_posts", "DELETE FROM posts WHERE topic_id = ?", topicID)
}

// DeleteSynthetic removes only pipeline-generated posts of a topic.
func (s *SQLiteStore) DeleteSynthetic(ctx context.Context, topicID string) (int64, error) {
	return s.deleteWhere(ctx, "delete_synthetic", "DELETE FROM posts WHERE topic_id = ? AND synthetic = 1", topicID)
}

func (s *SQLiteStore) deleteWhere(ctx context.Context, action, query, topicID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, topicID)
	if err != nil {
		return 0, fmt.Errorf("delete posts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	slog.Info("posts deleted",
		"component", "store",
		"action", action,
		"topic_id", topicID,
		"deleted", n,
	)
	return n, nil
}

// ListTopics returns per-topic counts ordered by topic ID.
func (s *SQLiteStore) ListTopics(ctx context.Context) ([]types.TopicCounts, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT topic_id, COUNT(*), SUM(CASE WHEN synthetic = 1 THEN 1 ELSE 0 END)
		FROM posts
		GROUP BY topic_id
		ORDER BY topic_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query topics: %w", err)
	}
	defer rows.Close()

	topics := []types.TopicCounts{}
	for rows.Next() {
		var tc types.TopicCounts
		if err := rows.Scan(&tc.TopicID, &tc.Total, &tc.Synthetic); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		topics = append(topics, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return topics, nil
}

func scanPost(scanner interface{ Scan(...any) error }) (*types.StoredPost, error) {
	var (
		post        types.StoredPost
		patterns    string
		markers     string
		generatedAt string
	)
	err := scanner.Scan(
		&post.ID,
		&post.TopicID,
		&post.BatchID,
		&post.Position,
		&post.Content,
		&patterns,
		&post.WordCount,
		&markers,
		&post.Author,
		&post.Synthetic,
		&post.Likes,
		&post.Replies,
		&post.Views,
		&generatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(patterns), &post.PatternsUsed); err != nil {
		return nil, fmt.Errorf("decode patterns_used: %w", err)
	}
	if err := json.Unmarshal([]byte(markers), &post.AuthenticityMarkers); err != nil {
		return nil, fmt.Errorf("decode authenticity_markers: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, generatedAt); err == nil {
		post.GeneratedAt = t
	} else {
		slog.Warn("posts: failed to parse generated_at", "value", generatedAt, "error", err)
	}
	return &post, nil
}

func marshalStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
