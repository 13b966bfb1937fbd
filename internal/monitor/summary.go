package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/qepting91/brand-monitor/internal/domain"
)

// Summary is the structured result of one monitoring run, consumed by
// the report renderer and the CLI.
type Summary struct {
	Mode      string    `json:"run_mode"`
	Timestamp time.Time `json:"timestamp"`

	// Posts are the relevant new posts, sorted by priority then
	// engagement, with final priorities applied.
	Posts []domain.Classified `json:"posts"`

	// Comments holds fetched discussion threads, keyed by post ID.
	Comments map[string][]domain.Comment `json:"posts_with_comments"`

	// Findings holds per-comment brand mention findings, keyed by post ID.
	Findings map[string][]domain.Finding `json:"brand_findings"`

	UrgentCount int  `json:"urgent_count"`
	HighCount   int  `json:"high_count"`
	HasUrgent   bool `json:"has_urgent"`
}

// NewPostCount returns the number of relevant new posts in the run.
func (s *Summary) NewPostCount() int {
	return len(s.Posts)
}

// summaryFile adds the derived count to the serialized form.
type summaryFile struct {
	NewPostCount int `json:"new_post_count"`
	*Summary
}

// ParseSummary decodes a previously written run summary, for
// re-analysis without a fresh fetch.
func ParseSummary(data []byte) (*Summary, error) {
	sf := summaryFile{Summary: &Summary{}}
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse run summary: %w", err)
	}
	return sf.Summary, nil
}

// WriteFile writes the machine-readable run summary, e.g. for CI jobs
// that gate on has_urgent.
func (s *Summary) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(summaryFile{NewPostCount: len(s.Posts), Summary: s}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
