package analyze

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Usage tracks analysis runs per calendar month so the CLI can nudge
// when the configured free-run allowance is exhausted. Purely
// informational, never blocks a run.
type Usage struct {
	path   string
	counts map[string]int
}

// LoadUsage reads the usage file, tolerating a missing or unreadable
// file as zero usage.
func LoadUsage(path string) *Usage {
	u := &Usage{path: path, counts: make(map[string]int)}
	data, err := os.ReadFile(path)
	if err != nil {
		return u
	}
	var counts map[string]int
	if err := json.Unmarshal(data, &counts); err == nil {
		u.counts = counts
	}
	return u
}

func monthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// ThisMonth returns the number of runs recorded this month.
func (u *Usage) ThisMonth() int {
	return u.counts[monthKey(time.Now())]
}

// Record increments this month's count and persists it.
func (u *Usage) Record() error {
	u.counts[monthKey(time.Now())]++
	if err := os.MkdirAll(filepath.Dir(u.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(u.counts, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(u.path, data, 0644)
}
