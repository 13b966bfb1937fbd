// Package monitor drives one end-to-end incremental monitoring run:
// search, dedup against the seen set, relevance filter, priority
// classification, selective comment fetch, and state persistence.
package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/qepting91/brand-monitor/internal/classify"
	"github.com/qepting91/brand-monitor/internal/config"
	"github.com/qepting91/brand-monitor/internal/domain"
	"github.com/qepting91/brand-monitor/internal/state"
)

// Runner executes monitoring runs. Construct with New; the zero value
// is not usable.
type Runner struct {
	cfg       *config.Config
	collector domain.Collector
	statePath string
	log       *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

func New(cfg *config.Config, col domain.Collector, statePath string, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		cfg:       cfg,
		collector: col,
		statePath: statePath,
		log:       log,
		now:       time.Now,
	}
}

// Run performs one monitoring run in the given mode ("daily",
// "weekly", or "all"). Per-query fetch failures are logged and
// absorbed; only structural failures (unreadable or unwritable state)
// return an error. State is loaded once at the start and saved exactly
// once after all fetch and classify work completes.
func (r *Runner) Run(ctx context.Context, mode string) (*Summary, error) {
	runTime := r.now().UTC()
	r.log.Info("starting monitor run", "mode", mode, "time", runTime.Format(time.RFC3339))

	st, err := state.Load(r.statePath)
	if err != nil {
		return nil, err
	}
	r.log.Info("state loaded", "seen_posts", st.Len())

	queries := r.cfg.QueriesFor(mode)
	window := r.cfg.TimeWindow(mode)

	// Search fan-out, sequential, in configured order. One failed query
	// must not prevent the others from running.
	type fetched struct {
		post  domain.Post
		label string
	}
	var all []fetched
	for _, q := range queries {
		posts, err := r.collector.Search(ctx, q, window, r.cfg.Settings.MaxResultsPerQuery)
		if err != nil {
			r.log.Error("search failed", "query", q.Label, "err", err)
			continue
		}
		r.log.Info("search complete", "query", q.Label, "posts", len(posts))
		for _, p := range posts {
			all = append(all, fetched{post: p, label: q.Label})
		}
	}

	// Within-run dedup: a post returned by multiple queries keeps the
	// first-seen copy and its query label.
	unique := make(map[string]bool, len(all))
	var allPosts []fetched
	for _, f := range all {
		if unique[f.post.ID] {
			continue
		}
		unique[f.post.ID] = true
		allPosts = append(allPosts, f)
	}
	r.log.Info("unique posts from search", "count", len(allPosts))

	aliases := r.cfg.LowerAliases()
	competitors := r.cfg.LowerCompetitors()
	keywords := r.cfg.LowerKeywords()
	highValue := r.cfg.HighValueSet()

	// Cross-run dedup, then relevance, then the initial no-comment
	// classification.
	var newPosts []domain.Classified
	for _, f := range allPosts {
		if st.Seen(f.post.ID) {
			continue
		}
		if !classify.IsRelevant(f.post, highValue, keywords) {
			continue
		}
		newPosts = append(newPosts, domain.Classified{
			Post:       f.post,
			Priority:   classify.Priority(f.post, aliases, competitors, nil),
			QueryLabel: f.label,
		})
	}
	r.log.Info("relevant new posts", "count", len(newPosts))

	classify.Sort(newPosts)

	// Selective comment fetch for high-engagement posts, best first.
	selected := classify.SelectForComments(newPosts, r.cfg.Settings.MinCommentsForFetch, r.cfg.Settings.MaxCommentsToFetch)
	r.log.Info("fetching comments", "posts", len(selected))

	comments := make(map[string][]domain.Comment)
	findings := make(map[string][]domain.Finding)
	selectedIdx := make(map[string]int, len(selected))
	for i := range newPosts {
		selectedIdx[newPosts[i].Post.ID] = i
	}

	for _, sel := range selected {
		cs, err := r.collector.FetchComments(ctx, sel.Post.ID, sel.Post.Subreddit)
		if err != nil {
			r.log.Error("comment fetch failed", "post", sel.Post.ID, "err", err)
			continue
		}
		comments[sel.Post.ID] = cs

		// Re-classify with comment context: a brand mention that only
		// surfaces in the discussion upgrades the post. Posts that were
		// not selected keep their no-comment classification.
		if i, ok := selectedIdx[sel.Post.ID]; ok {
			newPosts[i].Priority = classify.Priority(sel.Post, aliases, competitors, cs)
		}

		if fs := classify.ScanComments(cs, aliases, competitors); len(fs) > 0 {
			findings[sel.Post.ID] = fs
			r.log.Info("brand mentions found in thread", "post", sel.Post.ID, "mentions", len(fs))
		}
	}

	// The seen set is updated with every post returned by search this
	// run, relevant or not. A post that was irrelevant today must not
	// be re-evaluated tomorrow just because it keeps appearing.
	for _, f := range allPosts {
		st.Add(f.post.ID)
	}
	st.Trim(r.cfg.Settings.MaxSeenIDs)
	st.LastRun = runTime

	if err := st.Save(r.statePath); err != nil {
		return nil, err
	}
	r.log.Info("state saved", "seen_posts", st.Len())

	sum := &Summary{
		Mode:      mode,
		Timestamp: runTime,
		Posts:     newPosts,
		Comments:  comments,
		Findings:  findings,
	}
	for _, p := range newPosts {
		switch p.Priority {
		case domain.PriorityUrgent:
			sum.UrgentCount++
		case domain.PriorityHigh:
			sum.HighCount++
		}
	}
	sum.HasUrgent = sum.UrgentCount > 0

	r.log.Info("run complete", "new_posts", len(newPosts), "urgent", sum.UrgentCount, "high", sum.HighCount)
	return sum, nil
}
