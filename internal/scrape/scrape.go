// Package scrape runs the one-shot deep scraper used to collect
// baseline data before incremental monitoring takes over.
package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/qepting91/brand-monitor/internal/config"
	"github.com/qepting91/brand-monitor/internal/domain"
	"github.com/qepting91/brand-monitor/internal/storage"
)

// commentFetchCap bounds how many top posts get their threads pulled.
const commentFetchCap = 30

// commentWorkers bounds concurrent comment fetches. The collector's
// shared limiter still enforces the per-platform call spacing, so this
// only overlaps waiting, it never exceeds the rate budget.
const commentWorkers = 2

// Result summarizes a completed scrape.
type Result struct {
	TotalPosts        int
	PostsWithComments int
	QueriesRun        int
}

// Run executes all configured scrape queries, archives the unique
// posts as NDJSON, fetches comments for the top posts by engagement,
// and writes a human-readable summary.
func Run(ctx context.Context, cfg *config.Config, col domain.Collector, dataDir string, log *slog.Logger) (*Result, error) {
	if log == nil {
		log = slog.Default()
	}
	queries := cfg.Queries.Scrape
	if len(queries) == 0 {
		log.Warn("no scrape queries configured")
		return &Result{}, nil
	}

	// Group queries by label prefix for organized output
	// (e.g. "brand_general" -> "brand").
	groups := make(map[string][]domain.Query)
	var groupOrder []string
	for _, q := range queries {
		prefix := q.Label
		if i := strings.Index(q.Label, "_"); i > 0 {
			prefix = q.Label[:i]
		}
		if _, ok := groups[prefix]; !ok {
			groupOrder = append(groupOrder, prefix)
		}
		groups[prefix] = append(groups[prefix], q)
	}

	archive := make(chan storage.Record, 100)
	var writerWg sync.WaitGroup
	writer := &storage.WriterService{FilePath: filepath.Join(dataDir, "reddit_raw_data.ndjson")}
	writerWg.Add(1)
	go writer.Start(&writerWg, archive)

	seen := make(map[string]bool)
	grouped := make(map[string][]domain.Post)
	var allPosts []storage.Record

	for _, group := range groupOrder {
		log.Info("scraping group", "group", group)
		for _, q := range groups[group] {
			posts, err := col.Search(ctx, q, "year", cfg.Settings.MaxResultsPerQuery)
			if err != nil {
				log.Error("scrape query failed", "query", q.Label, "err", err)
				continue
			}
			// Retry all-time if the year window came back empty.
			if len(posts) == 0 {
				posts, err = col.Search(ctx, q, "all", cfg.Settings.MaxResultsPerQuery)
				if err != nil {
					log.Error("scrape retry failed", "query", q.Label, "err", err)
					continue
				}
			}
			for _, p := range posts {
				if seen[p.ID] {
					continue
				}
				seen[p.ID] = true
				grouped[group] = append(grouped[group], p)
				rec := storage.Record{Post: p, Group: group}
				allPosts = append(allPosts, rec)
				archive <- rec
			}
		}
		log.Info("group complete", "group", group, "unique_posts", len(grouped[group]))
	}
	close(archive)
	writerWg.Wait()

	// Fetch comments for the top posts by engagement. Bounded worker
	// fan-out; results land in an indexed slice so no locking is needed.
	sort.SliceStable(allPosts, func(i, j int) bool {
		return allPosts[i].Engagement() > allPosts[j].Engagement()
	})
	top := allPosts
	if len(top) > commentFetchCap {
		top = top[:commentFetchCap]
	}

	fetched := make([][]domain.Comment, len(top))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(commentWorkers)
	for i, rec := range top {
		i, rec := i, rec
		g.Go(func() error {
			comments, err := col.FetchComments(gctx, rec.ID, rec.Subreddit)
			if err != nil {
				log.Error("comment fetch failed", "post", rec.ID, "err", err)
				return nil
			}
			fetched[i] = comments
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	comments := make(map[string][]domain.Comment, len(top))
	for i, rec := range top {
		if fetched[i] != nil {
			comments[rec.ID] = fetched[i]
		}
	}
	log.Info("comment fetch complete", "posts", len(comments))

	if err := writeSummary(dataDir, groupOrder, grouped, comments); err != nil {
		return nil, err
	}

	return &Result{
		TotalPosts:        len(seen),
		PostsWithComments: len(comments),
		QueriesRun:        len(queries),
	}, nil
}

// writeSummary renders the plain-text overview of collected data.
func writeSummary(dataDir string, groupOrder []string, grouped map[string][]domain.Post, comments map[string][]domain.Comment) error {
	var b strings.Builder
	rule := strings.Repeat("=", 60)

	b.WriteString("REDDIT BRAND INTELLIGENCE - RAW DATA SUMMARY\n")
	b.WriteString(rule + "\n\n")

	for _, group := range groupOrder {
		posts := grouped[group]
		fmt.Fprintf(&b, "\n%s\nGROUP: %s (%d unique posts)\n%s\n\n",
			rule, strings.ToUpper(group), len(posts), rule)

		byScore := append([]domain.Post(nil), posts...)
		sort.SliceStable(byScore, func(i, j int) bool { return byScore[i].Score > byScore[j].Score })

		for _, p := range byScore {
			fmt.Fprintf(&b, "[%d pts | %d comments] r/%s\n", p.Score, p.NumComments, p.Subreddit)
			fmt.Fprintf(&b, "  Title: %s\n", p.Title)
			fmt.Fprintf(&b, "  Author: u/%s\n", p.Author)
			fmt.Fprintf(&b, "  URL: %s\n", p.URL)
			if p.SelfText != "" {
				text := strings.ReplaceAll(clip(p.SelfText, 300), "\n", "\n    ")
				fmt.Fprintf(&b, "  Text: %s\n", text)
			}
			b.WriteString("\n")

			if cs, ok := comments[p.ID]; ok {
				capped := cs
				if len(capped) > 10 {
					capped = capped[:10]
				}
				for _, c := range capped {
					body := strings.ReplaceAll(clip(c.Body, 200), "\n", "\n      ")
					fmt.Fprintf(&b, "    [%d pts] u/%s: %s\n", c.Score, c.Author, body)
				}
				b.WriteString("\n")
			}
		}
	}

	return os.WriteFile(filepath.Join(dataDir, "reddit_summary.txt"), []byte(b.String()), 0644)
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
