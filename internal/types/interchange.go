package types

import (
	"encoding/json"
	"fmt"
	"io"
)

// EncodePosts writes posts as an indented JSON array.
// A nil slice is written as [].
func EncodePosts(w io.Writer, posts []GeneratedPost) error {
	if posts == nil {
		posts = []GeneratedPost{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(posts); err != nil {
		return fmt.Errorf("encode posts: %w", err)
	}
	return nil
}

// DecodePosts reads a JSON array of posts.
// Unknown fields and unknown pattern names are rejected.
func DecodePosts(r io.Reader) ([]GeneratedPost, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var posts []GeneratedPost
	if err := dec.Decode(&posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	if posts == nil {
		posts = []GeneratedPost{}
	}
	return posts, nil
}
