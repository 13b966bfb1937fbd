// Package report renders a monitoring run into a human-readable
// markdown digest, and converts it to HTML for email delivery.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/qepting91/brand-monitor/internal/domain"
	"github.com/qepting91/brand-monitor/internal/monitor"
)

// Generate produces the markdown report for a run.
func Generate(sum *monitor.Summary, brandName string) string {
	var b strings.Builder
	w := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	w("# Reddit Monitor Report — %s", sum.Timestamp.Format("2006-01-02 15:04 UTC"))
	w("")

	writeDateRange(w, sum.Posts)
	w("")
	w("**Mode:** %s | **New posts found:** %d", sum.Mode, len(sum.Posts))
	w("")

	var urgent, high, medium []domain.Classified
	for _, p := range sum.Posts {
		switch p.Priority {
		case domain.PriorityUrgent:
			urgent = append(urgent, p)
		case domain.PriorityHigh:
			high = append(high, p)
		default:
			medium = append(medium, p)
		}
	}

	var parts []string
	if len(urgent) > 0 {
		parts = append(parts, fmt.Sprintf("**%d URGENT** (%s mentions)", len(urgent), brandName))
	}
	parts = append(parts,
		fmt.Sprintf("**%d HIGH**", len(high)),
		fmt.Sprintf("**%d MEDIUM**", len(medium)))
	w("%s", strings.Join(parts, " | "))
	w("")
	w("---")
	w("")

	if len(urgent) > 0 {
		w("## URGENT — %s Mentions", brandName)
		w("")
		for _, p := range urgent {
			writePostBlock(w, p, sum)
		}
		w("---")
		w("")
	}

	if len(high) > 0 {
		w("## HIGH — Competitor / Industry")
		w("")
		for _, p := range byEngagement(high) {
			writePostBlock(w, p, sum)
		}
		w("---")
		w("")
	}

	if len(medium) > 0 {
		w("## MEDIUM — General")
		w("")
		for _, p := range byEngagement(medium) {
			writePostBlock(w, p, sum)
		}
	}

	writeFindingsSummary(w, sum)

	if len(sum.Posts) == 0 {
		w("No new posts found since last run. All clear.")
		w("")
	}

	return b.String()
}

func writeDateRange(w func(string, ...any), posts []domain.Classified) {
	if len(posts) == 0 {
		w("**No posts found**")
		return
	}
	earliest, latest := posts[0].Post.CreatedUTC, posts[0].Post.CreatedUTC
	for _, p := range posts[1:] {
		if p.Post.CreatedUTC < earliest {
			earliest = p.Post.CreatedUTC
		}
		if p.Post.CreatedUTC > latest {
			latest = p.Post.CreatedUTC
		}
	}
	day := func(ts float64) string {
		return time.Unix(int64(ts), 0).UTC().Format("Jan 02, 2006")
	}
	w("**Posts from: %s – %s | %d posts analyzed**", day(earliest), day(latest), len(posts))
}

func writePostBlock(w func(string, ...any), p domain.Classified, sum *monitor.Summary) {
	w("### [%s] %s", p.Priority, p.Post.Title)
	w("")
	w("- **Subreddit:** r/%s | **Score:** %d | **Comments:** %d | **Author:** u/%s",
		p.Post.Subreddit, p.Post.Score, p.Post.NumComments, p.Post.Author)
	posted := time.Unix(int64(p.Post.CreatedUTC), 0).UTC().Format("2006-01-02")
	w("- **Posted:** %s | **Link:** %s", posted, p.Post.URL)
	label := p.QueryLabel
	if label == "" {
		label = "unknown"
	}
	w("- **Query:** %s", label)
	w("")

	if p.Post.SelfText != "" {
		w("> %s", clip(p.Post.SelfText, 400))
		w("")
	}

	if comments := sum.Comments[p.Post.ID]; len(comments) > 0 {
		w("**Top comments:**")
		for _, c := range topComments(comments, 5) {
			w("- [%dpts] u/%s: %s", c.Score, c.Author, strings.ReplaceAll(clip(c.Body, 200), "\n", " "))
		}
		w("")
	}

	if findings := sum.Findings[p.Post.ID]; len(findings) > 0 {
		w("**Brand mentions in thread:**")
		for _, f := range findings {
			mentions := strings.Join(append(append([]string(nil), f.BrandMentions...), f.CompetitorMentions...), ", ")
			w("- u/%s (%dpts): %s", f.Author, f.Score, mentions)
		}
		w("")
	}
}

func writeFindingsSummary(w func(string, ...any), sum *monitor.Summary) {
	// Stable order over map iteration.
	var ids []string
	for id := range sum.Findings {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var wrote bool
	for _, id := range ids {
		for _, f := range sum.Findings[id] {
			if !wrote {
				w("---")
				w("")
				w("## Brand Mentions in Comments")
				w("")
				wrote = true
			}
			mentions := strings.Join(append(append([]string(nil), f.BrandMentions...), f.CompetitorMentions...), ", ")
			w("- **u/%s** (%dpts) mentioned: %s", f.Author, f.Score, mentions)
			w("  > %s", clip(f.Excerpt, 200))
			w("")
		}
	}
}

// byEngagement returns a copy sorted by descending score+comments.
func byEngagement(posts []domain.Classified) []domain.Classified {
	sorted := append([]domain.Classified(nil), posts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Post.Engagement() > sorted[j].Post.Engagement()
	})
	return sorted
}

func topComments(comments []domain.Comment, n int) []domain.Comment {
	sorted := append([]domain.Comment(nil), comments...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
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

// Write renders the report and writes the dated file plus latest.md.
// The dated file is appended so multiple runs on one day stack up with
// separators; latest.md always holds only the most recent run.
func Write(reportsDir string, sum *monitor.Summary, brandName string) (string, error) {
	md := Generate(sum, brandName)

	if err := os.MkdirAll(reportsDir, 0755); err != nil {
		return "", err
	}

	datedPath := filepath.Join(reportsDir, sum.Timestamp.Format("2006-01-02")+".md")
	f, err := os.OpenFile(datedPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return "", err
	}
	if info, err := f.Stat(); err == nil && info.Size() > 0 {
		if _, err := f.WriteString("\n\n---\n\n"); err != nil {
			f.Close()
			return "", err
		}
	}
	if _, err := f.WriteString(md); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	latestPath := filepath.Join(reportsDir, "latest.md")
	if err := os.WriteFile(latestPath, []byte(md), 0644); err != nil {
		return "", err
	}
	return datedPath, nil
}
