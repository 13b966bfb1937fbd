package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/qepting91/brand-monitor/internal/domain"
	"golang.org/x/time/rate"
)

// maxBodyLen bounds post and comment body text. Downstream analysis
// prompts budget on this limit.
const maxBodyLen = 1000

type PublicClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	baseURL    string
}

type searchResponse struct {
	Data struct {
		Children []struct {
			Data struct {
				ID          string  `json:"id"`
				Title       string  `json:"title"`
				Subreddit   string  `json:"subreddit"`
				Author      string  `json:"author"`
				SelfText    string  `json:"selftext"`
				Permalink   string  `json:"permalink"`
				Score       int     `json:"score"`
				NumComments int     `json:"num_comments"`
				CreatedUTC  float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// commentNode is one node of Reddit's nested comment listing. Data is
// kept raw so unrecognized kinds can be skipped without failing the
// whole decode.
type commentNode struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type commentData struct {
	ID      string          `json:"id"`
	Author  string          `json:"author"`
	Body    string          `json:"body"`
	Score   int             `json:"score"`
	Replies json.RawMessage `json:"replies"`
}

type listingData struct {
	Children []commentNode `json:"children"`
}

func NewPublicClient(userAgent string, rateDelay time.Duration) (*PublicClient, error) {
	if rateDelay <= 0 {
		rateDelay = 2 * time.Second
	}
	return &PublicClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		// Public JSON limit: one request per rateDelay, shared across
		// all callers of this client.
		limiter:   rate.NewLimiter(rate.Every(rateDelay), 1),
		userAgent: userAgent,
		baseURL:   "https://old.reddit.com",
	}, nil
}

// Search runs one search query against the public JSON endpoint.
func (pc *PublicClient) Search(ctx context.Context, q domain.Query, window string, limit int) ([]domain.Post, error) {
	params := url.Values{}
	params.Set("q", q.Query)
	params.Set("sort", "new")
	params.Set("t", window)
	params.Set("limit", strconv.Itoa(limit))

	endpoint := pc.baseURL + "/search.json"
	if q.Subreddit != "" {
		params.Set("restrict_sr", "on")
		endpoint = fmt.Sprintf("%s/r/%s/search.json", pc.baseURL, q.Subreddit)
	}

	var resp searchResponse
	if err := pc.getJSON(ctx, endpoint+"?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	var posts []domain.Post
	for _, child := range resp.Data.Children {
		d := child.Data
		posts = append(posts, domain.Post{
			ID:          d.ID,
			Title:       d.Title,
			Subreddit:   d.Subreddit,
			Author:      d.Author,
			SelfText:    truncate(d.SelfText, maxBodyLen),
			URL:         "https://reddit.com" + d.Permalink,
			Permalink:   d.Permalink,
			Score:       d.Score,
			NumComments: d.NumComments,
			CreatedUTC:  d.CreatedUTC,
		})
	}
	return posts, nil
}

// FetchComments retrieves and flattens the comment tree for a post.
func (pc *PublicClient) FetchComments(ctx context.Context, postID, subreddit string) ([]domain.Comment, error) {
	endpoint := fmt.Sprintf("%s/r/%s/comments/%s.json?limit=50", pc.baseURL, subreddit, postID)

	// The thread endpoint returns a two-element array: the post listing
	// and the comment listing.
	var listings []commentNode
	if err := pc.getJSON(ctx, endpoint, &listings); err != nil {
		return nil, err
	}
	if len(listings) < 2 {
		return nil, nil
	}

	var comments []domain.Comment
	walkComments(listings[1], &comments)
	return comments, nil
}

// walkComments does a depth-first traversal of the nested comment
// structure. Kinds other than "t1" (comment) and "Listing" (container)
// are treated as leaves and skipped.
func walkComments(node commentNode, out *[]domain.Comment) {
	switch node.Kind {
	case "t1":
		var cd commentData
		if err := json.Unmarshal(node.Data, &cd); err != nil {
			return
		}
		*out = append(*out, domain.Comment{
			ID:     cd.ID,
			Author: cd.Author,
			Body:   truncate(cd.Body, maxBodyLen),
			Score:  cd.Score,
		})
		// Replies is either a nested listing or an empty string.
		var replies commentNode
		if err := json.Unmarshal(cd.Replies, &replies); err == nil {
			walkComments(replies, out)
		}
	case "Listing":
		var ld listingData
		if err := json.Unmarshal(node.Data, &ld); err != nil {
			return
		}
		for _, child := range ld.Children {
			walkComments(child, out)
		}
	}
}

func (pc *PublicClient) getJSON(ctx context.Context, url string, v any) error {
	if err := pc.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", pc.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := pc.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return fmt.Errorf("reddit public access status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// truncate shortens s to max runes. Rune-aware slicing avoids breaking
// UTF-8 sequences.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
