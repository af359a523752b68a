package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/voices/internal/artifact"
	"github.com/hyperengineering/voices/internal/authenticity"
	"github.com/hyperengineering/voices/internal/batch"
	"github.com/hyperengineering/voices/internal/catalog"
	"github.com/hyperengineering/voices/internal/pipeline"
	"github.com/hyperengineering/voices/internal/quota"
	"github.com/hyperengineering/voices/internal/store"
	"github.com/hyperengineering/voices/internal/types"
	"github.com/hyperengineering/voices/internal/validation"
	"github.com/hyperengineering/voices/internal/variety"
)

// BatchGenerator runs and persists one topic batch. Implemented by *batch.Service.
type BatchGenerator interface {
	Generate(ctx context.Context, req batch.Request) (*batch.Report, error)
}

// Options holds the Handler dependencies.
type Options struct {
	Store     store.PostStore
	Batches   BatchGenerator
	Catalog   *catalog.Catalog
	Variety   *variety.Validator
	Uploader  artifact.Uploader
	APIKey    string
	Version   string
	Generator string
	// DeleteRate is the number of DELETE requests allowed per minute.
	DeleteRate int
	// BatchTimeout bounds one batch request. Zero means no bound.
	BatchTimeout time.Duration
}

// Handler implements the API handlers
type Handler struct {
	store     store.PostStore
	batches   BatchGenerator
	catalog   *catalog.Catalog
	variety   *variety.Validator
	uploader  artifact.Uploader
	apiKey    string
	version   string
	generator string
	deletes   *RateLimiter

	batchTimeout time.Duration
}

// NewHandler creates a Handler. A nil Uploader is replaced by a NoopUploader.
func NewHandler(opts Options) *Handler {
	uploader := opts.Uploader
	if uploader == nil {
		uploader = &artifact.NoopUploader{}
	}
	return &Handler{
		store:     opts.Store,
		batches:   opts.Batches,
		catalog:   opts.Catalog,
		variety:   opts.Variety,
		uploader:  uploader,
		apiKey:    opts.APIKey,
		version:   opts.Version,
		generator: opts.Generator,
		deletes:   NewRateLimiter(opts.DeleteRate),

		batchTimeout: opts.BatchTimeout,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "component", "api", "error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return false
	}
	return true
}

// Health handles GET /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Generator: h.generator,
	})
}

// AuthenticityRequest is the body of POST /api/v1/authenticity.
type AuthenticityRequest struct {
	Content string `json:"content"`
}

// Authenticity handles POST /api/v1/authenticity
func (h *Handler) Authenticity(w http.ResponseWriter, r *http.Request) {
	var req AuthenticityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidateContent("content", req.Content); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	writeJSON(w, http.StatusOK, authenticity.Assess(req.Content))
}

// VarietyRequest is the body of POST /api/v1/variety.
type VarietyRequest struct {
	Posts []string `json:"posts"`
}

// Variety handles POST /api/v1/variety
func (h *Handler) Variety(w http.ResponseWriter, r *http.Request) {
	var req VarietyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidatePostBatch("posts", req.Posts); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	writeJSON(w, http.StatusOK, h.variety.Validate(req.Posts))
}

// Quota handles GET /api/v1/quota?category=&total=
func (h *Handler) Quota(w http.ResponseWriter, r *http.Request) {
	var c validation.Collector
	category := types.TopicCategory(r.URL.Query().Get("category"))
	c.Add(validation.ValidateEnum("category", string(category), h.categoryNames()))

	total, err := strconv.Atoi(r.URL.Query().Get("total"))
	if err != nil {
		c.Add(&validation.ValidationError{Field: "total", Message: "must be an integer"})
	} else {
		c.Add(validation.ValidateRange("total", total, validation.MinBatchCount, validation.MaxBatchCount))
	}
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", c.Errors())
		return
	}

	quotas, err := quota.ForCategory(h.catalog, category, total)
	if err != nil {
		MapError(w, r, err)
		return
	}
	if quotas == nil {
		quotas = []types.PatternQuota{}
	}
	writeJSON(w, http.StatusOK, quotas)
}

// ListTopics handles GET /api/v1/topics
func (h *Handler) ListTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.store.ListTopics(r.Context())
	if err != nil {
		slog.Error("list topics failed", "component", "api", "error", err)
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, topics)
}

// ListPosts handles GET /api/v1/topics/{topicID}/posts
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	topicID := MustTopicIDFromContext(r.Context())

	posts, err := h.store.ListPosts(r.Context(), topicID)
	if err != nil {
		slog.Error("list posts failed", "component", "api", "topic_id", topicID, "error", err)
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// CountPosts handles GET /api/v1/topics/{topicID}/posts/count
func (h *Handler) CountPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	topicID := MustTopicIDFromContext(ctx)

	total, err := h.store.CountPosts(ctx, topicID)
	if err != nil {
		MapError(w, r, err)
		return
	}
	synthetic, err := h.store.CountSynthetic(ctx, topicID)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.TopicCounts{TopicID: topicID, Total: total, Synthetic: synthetic})
}

// GetPost handles GET /api/v1/topics/{topicID}/posts/{postID}
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	topicID := MustTopicIDFromContext(r.Context())
	postID := chi.URLParam(r, "postID")
	if verr := validation.ValidateULID("postId", postID); verr != nil {
		WriteProblemWithErrors(w, r, "Invalid post ID", []validation.ValidationError{*verr})
		return
	}

	post, err := h.store.GetPost(r.Context(), postID)
	if err == nil && post.TopicID != topicID {
		err = store.ErrNotFound
	}
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// DeleteResponse is the body returned by DELETE /api/v1/topics/{topicID}/posts.
type DeleteResponse struct {
	TopicID string `json:"topicId"`
	Deleted int64  `json:"deleted"`
}

// DeletePosts handles DELETE /api/v1/topics/{topicID}/posts.
// With ?synthetic=true only pipeline-generated posts are removed.
func (h *Handler) DeletePosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	topicID := MustTopicIDFromContext(ctx)

	syntheticOnly, err := parseBoolParam(r, "synthetic")
	if err != nil {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{
			{Field: "synthetic", Message: "must be true or false"},
		})
		return
	}

	var deleted int64
	if syntheticOnly {
		deleted, err = h.store.DeleteSynthetic(ctx, topicID)
	} else {
		deleted, err = h.store.DeletePosts(ctx, topicID)
	}
	if err != nil {
		slog.Error("delete posts failed", "component", "api", "topic_id", topicID, "error", err)
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{TopicID: topicID, Deleted: deleted})
}

// CreateBatch handles POST /api/v1/topics/{topicID}/batches.
// With ?replace=true existing synthetic posts are replaced.
func (h *Handler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	topicID := MustTopicIDFromContext(r.Context())

	var topic types.Topic
	if !decodeJSON(w, r, &topic) {
		return
	}
	topic.ID = topicID
	if errs := validation.ValidateTopic(topic, h.catalog.CategoryNames(), false); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}
	replace, err := parseBoolParam(r, "replace")
	if err != nil {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{
			{Field: "replace", Message: "must be true or false"},
		})
		return
	}

	ctx := r.Context()
	if h.batchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.batchTimeout)
		defer cancel()
	}

	report, err := h.batches.Generate(ctx, batch.Request{Topic: topic, Replace: replace})
	if err != nil {
		slog.Error("batch failed",
			"component", "api",
			"action", "create_batch",
			"topic_id", topicID,
			"error", err,
		)
		if report != nil && errors.Is(err, pipeline.ErrGenerationExhausted) {
			WriteProblem(w, r, http.StatusBadGateway, fmt.Sprintf(
				"Generation exhausted after %d of %d posts; %d saved in batch %s",
				len(report.Posts), report.Requested, report.Saved, report.BatchID,
			))
			return
		}
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

// BatchURLResponse is the body returned by GET .../batches/{batchID}/url.
type BatchURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// BatchURL handles GET /api/v1/topics/{topicID}/batches/{batchID}/url and
// returns a download link for an exported batch.
func (h *Handler) BatchURL(w http.ResponseWriter, r *http.Request) {
	topicID := MustTopicIDFromContext(r.Context())
	batchID := chi.URLParam(r, "batchID")
	if verr := validation.ValidateULID("batchId", batchID); verr != nil {
		WriteProblemWithErrors(w, r, "Invalid batch ID", []validation.ValidationError{*verr})
		return
	}

	url, expiry, err := h.uploader.PresignedURL(r.Context(), topicID, batchID)
	if err != nil {
		if !errors.Is(err, artifact.ErrNotConfigured) {
			slog.Error("presign failed", "component", "api", "topic_id", topicID, "error", err)
		}
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BatchURLResponse{URL: url, ExpiresAt: expiry.UTC()})
}

func (h *Handler) categoryNames() []string {
	cats := h.catalog.CategoryNames()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	return names
}

func parseBoolParam(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}
