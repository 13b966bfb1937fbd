package collector

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/qepting91/brand-monitor/internal/domain"
)

// MockClient implements domain.Collector but returns fake data
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (mc *MockClient) Search(ctx context.Context, q domain.Query, window string, limit int) ([]domain.Post, error) {
	// Simulate network latency
	time.Sleep(200 * time.Millisecond)

	var posts []domain.Post
	for i := 0; i < limit; i++ {
		posts = append(posts, domain.Post{
			ID:          fmt.Sprintf("mock_%s_%d", q.Label, i),
			Title:       fmt.Sprintf("[%s] Simulated discussion thread #%d", q.Label, i),
			Subreddit:   "smallbusiness",
			Author:      "simulated_user",
			SelfText:    fmt.Sprintf("Simulated body text matching query %q.", q.Query),
			URL:         "http://localhost/mock-url",
			Score:       rand.Intn(500),
			NumComments: rand.Intn(50),
			CreatedUTC:  float64(time.Now().Unix()),
		})
	}
	return posts, nil
}

func (mc *MockClient) FetchComments(ctx context.Context, postID, subreddit string) ([]domain.Comment, error) {
	var comments []domain.Comment
	for i := 0; i < 5; i++ {
		comments = append(comments, domain.Comment{
			ID:     fmt.Sprintf("%s_c%d", postID, i),
			Author: "simulated_commenter",
			Body:   "Simulated comment body.",
			Score:  rand.Intn(100),
		})
	}
	return comments, nil
}
