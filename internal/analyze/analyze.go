// Package analyze sends collected posts to the Anthropic API for a
// strategic brand intelligence report.
package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/qepting91/brand-monitor/internal/config"
	"github.com/qepting91/brand-monitor/internal/domain"
)

const defaultAPIURL = "https://api.anthropic.com/v1/messages"

// promptPostCap limits how many posts go into the prompt. Combined
// with the 1000-char body truncation at fetch time this bounds the
// context size.
const promptPostCap = 50

// Client calls the Anthropic Messages API.
type Client struct {
	apiKey     string
	model      string
	apiURL     string
	httpClient *http.Client
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:     apiKey,
		model:      model,
		apiURL:     defaultAPIURL,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// Available reports whether the client is configured with an API key.
func (c *Client) Available() bool {
	return c.apiKey != ""
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Run builds the analysis prompt from the collected posts and comments
// and returns the model's markdown report.
func (c *Client) Run(ctx context.Context, cfg *config.Config, posts []domain.Classified, comments map[string][]domain.Comment) (string, error) {
	if !c.Available() {
		return "", fmt.Errorf("ANTHROPIC_API_KEY is required for brand intelligence analysis")
	}

	prompt := buildPrompt(cfg, posts, comments)

	body, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: 8000,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("analysis request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic api error (status %d): %s", resp.StatusCode, respBody)
	}

	var result messagesResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("parse analysis response: %w", err)
	}

	var text strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("analysis response contained no text")
	}
	return text.String(), nil
}

func buildPrompt(cfg *config.Config, posts []domain.Classified, comments map[string][]domain.Comment) string {
	brandName := cfg.Brand.Name

	capped := posts
	if len(capped) > promptPostCap {
		capped = capped[:promptPostCap]
	}

	var entries []string
	for _, p := range capped {
		var e strings.Builder
		fmt.Fprintf(&e, "[%s] r/%s | %dpts | %d comments\n", p.Priority, p.Post.Subreddit, p.Post.Score, p.Post.NumComments)
		fmt.Fprintf(&e, "Title: %s\n", p.Post.Title)
		if p.Post.SelfText != "" {
			fmt.Fprintf(&e, "Text: %s\n", clip(p.Post.SelfText, 500))
		}
		if digest := commentDigest(comments[p.Post.ID]); digest != "" {
			fmt.Fprintf(&e, "Top comments: %s\n", clip(digest, 800))
		}
		entries = append(entries, e.String())
	}

	return fmt.Sprintf(`You are a brand intelligence analyst. Analyze these Reddit posts and comments about %[1]s and its competitors in the %[2]s space.

Competitors to track: %[3]s

## Reddit Posts & Comments

%[4]s

## Required Output

Produce a structured brand intelligence report in markdown with these sections:

1. **%[1]s Brand Perception** — What users say (strengths, weaknesses, sentiment). Use a table format with quotes.

2. **Competitive Landscape** — Table of competitors with: mentions count, core strengths (from Reddit), core weaknesses, position vs %[1]s.

3. **Market Insights** — What buyers in this market need, with Reddit evidence and implications for %[1]s. Table format.

4. **Pain Points & Opportunities** — Common frustrations across the market and how %[1]s can capitalize. Include strategic opportunities.

5. **Recommendation Patterns** — Who gets recommended in which situations and why. Table format.

6. **Key Threats** — Competitors gaining mindshare, with evidence and potential impact.

7. **Actionable Recommendations** — Specific, prioritized actions for %[1]s across messaging, pricing, support, product, and community. Table format.

8. **Quote Bank** — Key Reddit quotes with source and insight. Table format.

9. **Summary** — 4-5 bullet executive summary with strategic focus areas.

Be specific. Use actual quotes and usernames from the data. Be direct about weaknesses — this is an internal report, not marketing copy.`,
		brandName, cfg.Brand.Industry, strings.Join(cfg.Competitors.Names, ", "),
		strings.Join(entries, "\n---\n"))
}

// commentDigest formats the top five comments by score for the prompt.
func commentDigest(comments []domain.Comment) string {
	if len(comments) == 0 {
		return ""
	}
	sorted := append([]domain.Comment(nil), comments...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	if len(sorted) > 5 {
		sorted = sorted[:5]
	}
	var parts []string
	for _, c := range sorted {
		parts = append(parts, fmt.Sprintf("u/%s (%dpts): %s", c.Author, c.Score, clip(c.Body, 200)))
	}
	return strings.Join(parts, " | ")
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
