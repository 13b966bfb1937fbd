package domain

import "context"

// Priority is the severity tier assigned to a post.
type Priority string

const (
	PriorityUrgent Priority = "URGENT"
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
)

// Rank returns the sort rank for a priority (URGENT first).
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	default:
		return 2
	}
}

// Post is the clean data structure for a fetched submission.
// Immutable once fetched; pipeline annotations live on Classified.
type Post struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Subreddit   string  `json:"subreddit"`
	Author      string  `json:"author"`
	SelfText    string  `json:"selftext"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
}

// Engagement is the combined activity signal used as a sort tiebreak.
func (p Post) Engagement() int {
	return p.Score + p.NumComments
}

// Comment is a single comment fetched from a post's discussion thread.
type Comment struct {
	ID     string `json:"id"`
	Author string `json:"author"`
	Body   string `json:"body"`
	Score  int    `json:"score"`
}

// Classified pairs a fetched post with the annotations the pipeline
// derives for it. The post itself is never mutated.
type Classified struct {
	Post       Post     `json:"post"`
	Priority   Priority `json:"priority"`
	QueryLabel string   `json:"query_label"`
}

// Query is a configured search to run against Reddit.
type Query struct {
	Label     string `yaml:"label" json:"label"`
	Query     string `yaml:"query" json:"query"`
	Subreddit string `yaml:"subreddit,omitempty" json:"subreddit,omitempty"`
}

// Finding records a brand or competitor mention inside a comment.
type Finding struct {
	Author             string   `json:"author"`
	Score              int      `json:"score"`
	BrandMentions      []string `json:"brand_mentions"`
	CompetitorMentions []string `json:"competitor_mentions"`
	Excerpt            string   `json:"excerpt"`
}

// Collector defines the interface for data fetching.
type Collector interface {
	// Search runs one configured query. window is a Reddit time filter
	// ("week", "month", "year", "all").
	Search(ctx context.Context, q Query, window string, limit int) ([]Post, error)

	// FetchComments retrieves the flattened comment tree for a post.
	FetchComments(ctx context.Context, postID, subreddit string) ([]Comment, error)
}
