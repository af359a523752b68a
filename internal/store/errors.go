package store

import "errors"

var (
	// ErrNotFound is returned by GetPost for an unknown ID.
	ErrNotFound = errors.New("post not found")
	// ErrInvalidTopic is returned by SavePosts for a blank topic ID.
	ErrInvalidTopic = errors.New("topic id is required")
)
