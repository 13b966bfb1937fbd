// Package classify holds the relevance filter and priority policy.
// Everything here is a pure function over case-folded substring
// matching: same inputs, same answer.
package classify

import (
	"sort"
	"strings"

	"github.com/qepting91/brand-monitor/internal/domain"
)

// excerptLen bounds the comment excerpt kept with a finding.
const excerptLen = 300

// IsRelevant reports whether a post is worth keeping. A post passes if
// its subreddit is in the high-value set, or its title+body contains
// any relevance keyword. The filter favors recall; false positives are
// acceptable.
func IsRelevant(p domain.Post, highValueSubs map[string]bool, keywords []string) bool {
	if highValueSubs[strings.ToLower(p.Subreddit)] {
		return true
	}
	text := strings.ToLower(p.Title + " " + p.SelfText)
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Priority classifies a post: URGENT on a brand alias in the title+body
// or (when supplied) in any comment, HIGH on a competitor name, else
// MEDIUM. Alias and competitor lists must already be lowercase.
func Priority(p domain.Post, brandAliases, competitors []string, comments []domain.Comment) domain.Priority {
	text := strings.ToLower(p.Title + " " + p.SelfText)

	for _, brand := range brandAliases {
		if strings.Contains(text, brand) {
			return domain.PriorityUrgent
		}
	}

	if len(comments) > 0 {
		var b strings.Builder
		for _, c := range comments {
			b.WriteString(strings.ToLower(c.Body))
			b.WriteString(" ")
		}
		commentText := b.String()
		for _, brand := range brandAliases {
			if strings.Contains(commentText, brand) {
				return domain.PriorityUrgent
			}
		}
	}

	for _, comp := range competitors {
		if strings.Contains(text, comp) {
			return domain.PriorityHigh
		}
	}

	return domain.PriorityMedium
}

// ScanComments collects per-comment brand and competitor mentions.
// Presentation data for the report, not part of priority policy.
func ScanComments(comments []domain.Comment, brandAliases, competitors []string) []domain.Finding {
	var findings []domain.Finding
	for _, c := range comments {
		body := strings.ToLower(c.Body)

		var brands, comps []string
		for _, b := range brandAliases {
			if strings.Contains(body, b) {
				brands = append(brands, b)
			}
		}
		for _, comp := range competitors {
			if strings.Contains(body, comp) {
				comps = append(comps, comp)
			}
		}

		if len(brands) > 0 || len(comps) > 0 {
			findings = append(findings, domain.Finding{
				Author:             c.Author,
				Score:              c.Score,
				BrandMentions:      brands,
				CompetitorMentions: comps,
				Excerpt:            excerpt(c.Body),
			})
		}
	}
	return findings
}

// Sort orders posts by priority rank, breaking ties by descending
// engagement. Stable so equal posts keep their fetch order.
func Sort(posts []domain.Classified) {
	sort.SliceStable(posts, func(i, j int) bool {
		ri, rj := posts[i].Priority.Rank(), posts[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return posts[i].Post.Engagement() > posts[j].Post.Engagement()
	})
}

// SelectForComments picks which posts get the expensive comment fetch:
// those with more than minComments comments, capped at maxFetch, in
// sorted order so the most important eligible posts go first.
func SelectForComments(posts []domain.Classified, minComments, maxFetch int) []domain.Classified {
	var eligible []domain.Classified
	for _, p := range posts {
		if p.Post.NumComments > minComments {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) > maxFetch {
		eligible = eligible[:maxFetch]
	}
	return eligible
}

func excerpt(s string) string {
	if len(s) <= excerptLen {
		return s
	}
	runes := []rune(s)
	if len(runes) <= excerptLen {
		return s
	}
	return string(runes[:excerptLen])
}
