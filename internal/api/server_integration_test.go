//go:build integration

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/hyperengineering/voices/internal/batch"
	"github.com/hyperengineering/voices/internal/catalog"
	"github.com/hyperengineering/voices/internal/pipeline"
	"github.com/hyperengineering/voices/internal/prompt"
	"github.com/hyperengineering/voices/internal/store"
	"github.com/hyperengineering/voices/internal/types"
	"github.com/hyperengineering/voices/internal/variety"
)

// scriptedGenerator answers prompts from a list, repeating the last entry.
type scriptedGenerator struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	calls   int
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.calls
	g.calls++
	if i >= len(g.replies) {
		i = len(g.replies) - 1
	}
	var err error
	if i < len(g.errs) {
		err = g.errs[i]
	}
	return g.replies[i], err
}

func (g *scriptedGenerator) Name() string { return "scripted" }

// setupPipelineEnv wires the real pipeline, batch service and store behind
// the router, with gen standing in for the generation service.
func setupPipelineEnv(t *testing.T, gen *scriptedGenerator) (http.Handler, *store.SQLiteStore) {
	t.Helper()
	captureLogs(t)

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	cat := catalog.MustDefault()
	v := variety.New(variety.DefaultThresholds())
	orch := pipeline.NewOrchestrator(gen, prompt.NewBuilder(cat), 3)
	svc := batch.NewService(pipeline.NewCoordinator(cat, orch), s, v, "community-voices")

	h := NewHandler(Options{
		Store:     s,
		Batches:   svc,
		Catalog:   cat,
		Variety:   v,
		APIKey:    testAPIKey,
		Version:   "test",
		Generator: gen.Name(),
	})
	return NewRouter(h), s
}

func (e *testEnv) withRouter(r http.Handler) *testEnv {
	e.router = r
	return e
}

const storyReply = "Month 2 of trying to sleep without the TV on. Honestly the first week I was up at 3am every night. " +
	"My roommate Sam talked me into a boring audiobook and I hated admitting it worked. Still rough some nights."

func TestServer_BatchThenListAndReplace(t *testing.T) {
	// Given: a pipeline whose generator always answers with one story
	router, s := setupPipelineEnv(t, &scriptedGenerator{replies: []string{storyReply}})
	env := (&testEnv{store: s}).withRouter(router)
	body := types.Topic{Title: "Sleep anxiety", Category: types.CategoryMentalHealth, Count: 4}

	// When: a batch is created
	w := env.do(t, http.MethodPost, "/api/v1/topics/sleep-anxiety/batches", body)

	// Then: every slot produced a saved post
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	report := decodeBody[batch.Report](t, w)
	if report.Saved != 4 || len(report.Outcomes) != 4 {
		t.Fatalf("report = %+v", report)
	}
	// The same story four times repeats its details.
	if report.Variety.Passed {
		t.Error("expected identical posts to fail the variety check")
	}

	posts := decodeBody[[]types.StoredPost](t, env.do(t, http.MethodGet, "/api/v1/topics/sleep-anxiety/posts", nil))
	if len(posts) != 4 {
		t.Fatalf("stored posts = %d, want 4", len(posts))
	}
	for i, p := range posts {
		if p.BatchID != report.BatchID || p.Position != i || !p.Synthetic || p.Author != "community-voices" {
			t.Errorf("post %d = %+v", i, p)
		}
	}

	// And: a replacing batch leaves only the new posts
	w = env.do(t, http.MethodPost, "/api/v1/topics/sleep-anxiety/batches?replace=true", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("replace status = %d", w.Code)
	}
	replaced := decodeBody[batch.Report](t, w)
	if replaced.Replaced != 4 {
		t.Errorf("replaced = %d, want 4", replaced.Replaced)
	}
	counts := decodeBody[types.TopicCounts](t, env.do(t, http.MethodGet, "/api/v1/topics/sleep-anxiety/posts/count", nil))
	if counts.Total != 4 {
		t.Errorf("total after replace = %d, want 4", counts.Total)
	}
}

func TestServer_ExhaustionKeepsEarlierPosts(t *testing.T) {
	// Given: a generator that answers twice, then fails every call
	gen := &scriptedGenerator{
		replies: []string{storyReply, storyReply, ""},
		errs:    []error{nil, nil, errors.New("upstream 503")},
	}
	router, s := setupPipelineEnv(t, gen)
	env := (&testEnv{store: s}).withRouter(router)

	// When: a three-post batch is requested. Each answered attempt is the
	// only scored one of its slot until retries run out.
	w := env.do(t, http.MethodPost, "/api/v1/topics/grief/batches",
		types.Topic{Title: "Grief", Category: types.CategoryLifeTransition, Count: 3})

	// Then: 502, with the posts produced before exhaustion saved
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502: %s", w.Code, w.Body.String())
	}
	p := decodeBody[Problem](t, w)
	if !strings.Contains(p.Detail, "saved in batch") {
		t.Errorf("detail = %q", p.Detail)
	}
	n, err := s.CountPosts(context.Background(), "grief")
	if err != nil {
		t.Fatal(err)
	}
	if n == 0 || n >= 3 {
		t.Errorf("saved = %d, want a partial batch", n)
	}
}
