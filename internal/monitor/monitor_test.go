package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/qepting91/brand-monitor/internal/config"
	"github.com/qepting91/brand-monitor/internal/domain"
	"github.com/qepting91/brand-monitor/internal/state"
)

// stubCollector serves canned results keyed by query label.
type stubCollector struct {
	posts       map[string][]domain.Post
	searchErrs  map[string]error
	comments    map[string][]domain.Comment
	commentErrs map[string]error

	commentCalls []string
}

func (s *stubCollector) Search(ctx context.Context, q domain.Query, window string, limit int) ([]domain.Post, error) {
	if err := s.searchErrs[q.Label]; err != nil {
		return nil, err
	}
	return s.posts[q.Label], nil
}

func (s *stubCollector) FetchComments(ctx context.Context, postID, subreddit string) ([]domain.Comment, error) {
	s.commentCalls = append(s.commentCalls, postID)
	if err := s.commentErrs[postID]; err != nil {
		return nil, err
	}
	return s.comments[postID], nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Brand.Name = "WidgetCo"
	cfg.Brand.Industry = "widgets"
	cfg.Brand.Aliases = []string{"widgetco"}
	cfg.Competitors.Names = []string{"gadgetinc"}
	cfg.Subreddits.HighValue = []string{"sysadmin"}
	cfg.Keywords.Relevance = []string{"widget"}
	cfg.Queries.Daily = []domain.Query{{Label: "q1", Query: `"widgetco"`}}
	cfg.Settings = config.Settings{
		UserAgent:           "test",
		RateDelaySeconds:    0,
		MaxResultsPerQuery:  25,
		MaxCommentsToFetch:  15,
		MinCommentsForFetch: 5,
		MaxSeenIDs:          5000,
	}
	return cfg
}

func newTestRunner(t *testing.T, cfg *config.Config, col domain.Collector) (*Runner, string) {
	t.Helper()
	statePath := filepath.Join(t.TempDir(), "monitor_state.json")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := New(cfg, col, statePath, log)
	r.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	return r, statePath
}

func TestRunEndToEnd(t *testing.T) {
	// Item X: high-value channel plus brand mention. Item Y: neither.
	col := &stubCollector{
		posts: map[string][]domain.Post{
			"q1": {
				{ID: "x", Title: "Pricing thread", Subreddit: "sysadmin", SelfText: "widgetco pricing is rough", NumComments: 2},
				{ID: "y", Title: "Off topic", Subreddit: "random", SelfText: "nothing to see"},
			},
		},
	}
	r, statePath := newTestRunner(t, testConfig(), col)

	sum, err := r.Run(context.Background(), "daily")
	if err != nil {
		t.Fatalf("Run(): %v", err)
	}

	if len(sum.Posts) != 1 || sum.Posts[0].Post.ID != "x" {
		t.Fatalf("expected only post x to be reported, got %+v", sum.Posts)
	}
	if sum.Posts[0].Priority != domain.PriorityUrgent {
		t.Errorf("post x priority = %v, want URGENT", sum.Posts[0].Priority)
	}
	if sum.Posts[0].QueryLabel != "q1" {
		t.Errorf("query label = %q", sum.Posts[0].QueryLabel)
	}
	if !sum.HasUrgent || sum.UrgentCount != 1 || sum.HighCount != 0 {
		t.Errorf("counts wrong: %+v", sum)
	}

	// The irrelevant post's id is tracked too.
	st, err := state.Load(statePath)
	if err != nil {
		t.Fatal(err)
	}
	if !st.Seen("x") || !st.Seen("y") {
		t.Errorf("seen set missing fetched ids: %v", st.IDs())
	}
	if !st.LastRun.Equal(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("LastRun = %v", st.LastRun)
	}
}

func TestRunIsIdempotentAcrossRuns(t *testing.T) {
	col := &stubCollector{
		posts: map[string][]domain.Post{
			"q1": {
				{ID: "a", Title: "widget talk", Subreddit: "sysadmin"},
				{ID: "b", Title: "widgetco rocks", Subreddit: "random", SelfText: "widgetco"},
			},
		},
	}
	r, _ := newTestRunner(t, testConfig(), col)

	first, err := r.Run(context.Background(), "daily")
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Posts) != 2 {
		t.Fatalf("first run reported %d posts, want 2", len(first.Posts))
	}

	// Unchanged upstream: second run reports nothing new.
	second, err := r.Run(context.Background(), "daily")
	if err != nil {
		t.Fatal(err)
	}
	if len(second.Posts) != 0 {
		t.Errorf("second run reported %d posts, want 0", len(second.Posts))
	}
	if second.HasUrgent {
		t.Error("second run flagged urgent with no new posts")
	}
}

func TestRunWithinRunDedupKeepsFirstQueryLabel(t *testing.T) {
	cfg := testConfig()
	cfg.Queries.Daily = []domain.Query{
		{Label: "first", Query: "widget"},
		{Label: "second", Query: "widgetco"},
	}
	shared := domain.Post{ID: "dup", Title: "widget question", Subreddit: "sysadmin"}
	col := &stubCollector{
		posts: map[string][]domain.Post{
			"first":  {shared},
			"second": {shared},
		},
	}
	r, _ := newTestRunner(t, cfg, col)

	sum, err := r.Run(context.Background(), "daily")
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(sum.Posts))
	}
	if sum.Posts[0].QueryLabel != "first" {
		t.Errorf("query label = %q, want first occurrence retained", sum.Posts[0].QueryLabel)
	}
}

func TestRunGracefulDegradation(t *testing.T) {
	cfg := testConfig()
	cfg.Queries.Daily = []domain.Query{
		{Label: "broken", Query: "a"},
		{Label: "healthy", Query: "b"},
	}
	col := &stubCollector{
		searchErrs: map[string]error{"broken": errors.New("timeout")},
		posts: map[string][]domain.Post{
			"healthy": {{ID: "ok", Title: "widget news", Subreddit: "sysadmin"}},
		},
	}
	r, _ := newTestRunner(t, cfg, col)

	sum, err := r.Run(context.Background(), "daily")
	if err != nil {
		t.Fatalf("run aborted on single query failure: %v", err)
	}
	if len(sum.Posts) != 1 || sum.Posts[0].Post.ID != "ok" {
		t.Errorf("healthy query results missing: %+v", sum.Posts)
	}
}

func TestRunDeepFetchBudget(t *testing.T) {
	cfg := testConfig()
	cfg.Settings.MaxCommentsToFetch = 3
	cfg.Settings.MinCommentsForFetch = 5

	var posts []domain.Post
	for i := 0; i < 10; i++ {
		numComments := 2
		if i < 6 {
			numComments = 10 + i // 6 eligible, increasing engagement
		}
		posts = append(posts, domain.Post{
			ID:          fmt.Sprintf("p%d", i),
			Title:       "widget thread",
			Subreddit:   "sysadmin",
			Score:       i,
			NumComments: numComments,
		})
	}
	col := &stubCollector{posts: map[string][]domain.Post{"q1": posts}}
	r, _ := newTestRunner(t, cfg, col)

	sum, err := r.Run(context.Background(), "daily")
	if err != nil {
		t.Fatal(err)
	}

	// Top 3 by engagement among the eligible: p5, p4, p3.
	want := []string{"p5", "p4", "p3"}
	if diff := cmp.Diff(want, col.commentCalls); diff != "" {
		t.Errorf("comment fetch targets (-want +got):\n%s", diff)
	}
	if len(sum.Comments) != 3 {
		t.Errorf("summary holds %d comment sets, want 3", len(sum.Comments))
	}
}

func TestRunReclassifiesWithComments(t *testing.T) {
	cfg := testConfig()
	col := &stubCollector{
		posts: map[string][]domain.Post{
			"q1": {{ID: "p", Title: "widget question", Subreddit: "sysadmin", NumComments: 10}},
		},
		comments: map[string][]domain.Comment{
			"p": {
				{ID: "c1", Author: "alice", Body: "try widgetco, it worked for us", Score: 8},
			},
		},
	}
	r, _ := newTestRunner(t, cfg, col)

	sum, err := r.Run(context.Background(), "daily")
	if err != nil {
		t.Fatal(err)
	}

	if sum.Posts[0].Priority != domain.PriorityUrgent {
		t.Errorf("priority after reclassification = %v, want URGENT", sum.Posts[0].Priority)
	}
	findings := sum.Findings["p"]
	if len(findings) != 1 || findings[0].Author != "alice" {
		t.Errorf("findings = %+v", findings)
	}
	if diff := cmp.Diff([]string{"widgetco"}, findings[0].BrandMentions); diff != "" {
		t.Errorf("brand mentions (-want +got):\n%s", diff)
	}
}

// Two posts with identical text can end with different priorities when
// only one crosses the comment-fetch threshold. Known asymmetry,
// preserved deliberately: the no-comment classification sticks for
// posts that never get their thread pulled.
func TestRunClassificationAsymmetry(t *testing.T) {
	cfg := testConfig()
	cfg.Settings.MinCommentsForFetch = 5
	col := &stubCollector{
		posts: map[string][]domain.Post{
			"q1": {
				{ID: "fetched", Title: "widget question", Subreddit: "sysadmin", NumComments: 10},
				{ID: "skipped", Title: "widget question", Subreddit: "sysadmin", NumComments: 2},
			},
		},
		comments: map[string][]domain.Comment{
			"fetched": {{ID: "c", Author: "a", Body: "widgetco mention", Score: 1}},
			"skipped": {{ID: "c", Author: "a", Body: "widgetco mention", Score: 1}},
		},
	}
	r, _ := newTestRunner(t, cfg, col)

	sum, err := r.Run(context.Background(), "daily")
	if err != nil {
		t.Fatal(err)
	}

	byID := make(map[string]domain.Priority)
	for _, p := range sum.Posts {
		byID[p.Post.ID] = p.Priority
	}
	if byID["fetched"] != domain.PriorityUrgent {
		t.Errorf("deep-fetched post = %v, want URGENT", byID["fetched"])
	}
	if byID["skipped"] != domain.PriorityMedium {
		t.Errorf("skipped post = %v, want MEDIUM (no-comment classification retained)", byID["skipped"])
	}
}

func TestRunCommentFetchFailureDoesNotAbort(t *testing.T) {
	cfg := testConfig()
	col := &stubCollector{
		posts: map[string][]domain.Post{
			"q1": {
				{ID: "bad", Title: "widget a", Subreddit: "sysadmin", NumComments: 50},
				{ID: "good", Title: "widget b", Subreddit: "sysadmin", NumComments: 20},
			},
		},
		commentErrs: map[string]error{"bad": errors.New("timeout")},
		comments: map[string][]domain.Comment{
			"good": {{ID: "c", Author: "a", Body: "fine", Score: 1}},
		},
	}
	r, _ := newTestRunner(t, cfg, col)

	sum, err := r.Run(context.Background(), "daily")
	if err != nil {
		t.Fatalf("run aborted on comment fetch failure: %v", err)
	}
	if _, ok := sum.Comments["bad"]; ok {
		t.Error("failed fetch produced a comment set")
	}
	if len(sum.Comments["good"]) != 1 {
		t.Errorf("successful fetch missing: %+v", sum.Comments)
	}
}

func TestRunTrimsSeenSet(t *testing.T) {
	cfg := testConfig()
	cfg.Settings.MaxSeenIDs = 3

	var posts []domain.Post
	for i := 0; i < 5; i++ {
		posts = append(posts, domain.Post{ID: fmt.Sprintf("p%d", i), Title: "off topic", Subreddit: "random"})
	}
	col := &stubCollector{posts: map[string][]domain.Post{"q1": posts}}
	r, statePath := newTestRunner(t, cfg, col)

	if _, err := r.Run(context.Background(), "daily"); err != nil {
		t.Fatal(err)
	}

	st, err := state.Load(statePath)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"p2", "p3", "p4"}, st.IDs()); diff != "" {
		t.Errorf("trimmed seen set (-want +got):\n%s", diff)
	}
}

func TestRunCorruptStateIsFatal(t *testing.T) {
	col := &stubCollector{}
	r, statePath := newTestRunner(t, testConfig(), col)

	if err := os.WriteFile(statePath, []byte("{corrupt"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Run(context.Background(), "daily"); err == nil {
		t.Fatal("expected error for corrupt state file")
	}
}

func TestSummaryRoundtrip(t *testing.T) {
	sum := &Summary{
		Mode:      "daily",
		Timestamp: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		Posts: []domain.Classified{
			{Post: domain.Post{ID: "x", Title: "t"}, Priority: domain.PriorityUrgent, QueryLabel: "q1"},
		},
		Comments:    map[string][]domain.Comment{"x": {{ID: "c", Author: "a", Body: "b", Score: 1}}},
		Findings:    map[string][]domain.Finding{},
		UrgentCount: 1,
		HasUrgent:   true,
	}

	path := filepath.Join(t.TempDir(), "summary.json")
	if err := sum.WriteFile(path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := ParseSummary(data)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(sum, parsed); diff != "" {
		t.Errorf("summary roundtrip (-want +got):\n%s", diff)
	}
}
