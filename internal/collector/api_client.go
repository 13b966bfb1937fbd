package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/loganintech/go-reddit/v2/reddit"
	"github.com/qepting91/brand-monitor/internal/domain"
	"golang.org/x/time/rate"
)

// APIClient uses the authenticated Reddit API. Preferred when
// credentials are available; the rate budget is more generous than the
// public JSON endpoints.
type APIClient struct {
	client  *reddit.Client
	limiter *rate.Limiter
}

func NewAPIClient(id, secret, user, pass, userAgent string) (*APIClient, error) {
	creds := reddit.Credentials{ID: id, Secret: secret, Username: user, Password: pass}

	client, err := reddit.NewClient(creds, reddit.WithUserAgent(userAgent))
	if err != nil {
		return nil, err
	}

	// API rate limit: ~60 reqs/min (safe buffer)
	limiter := rate.NewLimiter(rate.Every(1*time.Second), 1)

	return &APIClient{client: client, limiter: limiter}, nil
}

func (ac *APIClient) Search(ctx context.Context, q domain.Query, window string, limit int) ([]domain.Post, error) {
	if err := ac.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	opts := &reddit.ListPostSearchOptions{
		ListPostOptions: reddit.ListPostOptions{
			ListOptions: reddit.ListOptions{Limit: limit},
			Time:        window,
		},
		Sort: "new",
	}

	posts, _, err := ac.client.Subreddit.SearchPosts(ctx, q.Query, q.Subreddit, opts)
	if err != nil {
		return nil, fmt.Errorf("authenticated api error: %w", err)
	}

	var result []domain.Post
	for _, p := range posts {
		result = append(result, domain.Post{
			ID:          p.ID,
			Title:       p.Title,
			Subreddit:   p.SubredditName,
			Author:      p.Author,
			SelfText:    truncate(p.Body, maxBodyLen),
			URL:         "https://reddit.com" + p.Permalink,
			Permalink:   p.Permalink,
			Score:       p.Score,
			NumComments: p.NumberOfComments,
			CreatedUTC:  float64(p.Created.Time.Unix()),
		})
	}
	return result, nil
}

func (ac *APIClient) FetchComments(ctx context.Context, postID, subreddit string) ([]domain.Comment, error) {
	if err := ac.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	pc, _, err := ac.client.Post.Get(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("authenticated api error: %w", err)
	}

	var comments []domain.Comment
	flattenComments(pc.Comments, &comments)
	return comments, nil
}

func flattenComments(nodes []*reddit.Comment, out *[]domain.Comment) {
	for _, c := range nodes {
		if c == nil {
			continue
		}
		*out = append(*out, domain.Comment{
			ID:     c.ID,
			Author: c.Author,
			Body:   truncate(c.Body, maxBodyLen),
			Score:  c.Score,
		})
		flattenComments(c.Replies.Comments, out)
	}
}
