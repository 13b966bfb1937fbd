package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/qepting91/brand-monitor/internal/domain"
)

// Record is one archived scrape result: the post plus the query group
// that produced it.
type Record struct {
	domain.Post
	Group string `json:"group"`
}

// WriterService serializes archive writes behind a single goroutine so
// concurrent scrape workers never interleave lines.
type WriterService struct {
	FilePath string
}

func (w *WriterService) Start(wg *sync.WaitGroup, input <-chan Record) {
	defer wg.Done()

	if err := os.MkdirAll(filepath.Dir(w.FilePath), 0755); err != nil {
		return
	}
	f, err := os.OpenFile(w.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	enc := json.NewEncoder(f)

	for rec := range input {
		// Write as NDJSON
		enc.Encode(rec)
	}
}

// Load reads the NDJSON archive back, skipping malformed lines.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []Record
	dec := json.NewDecoder(f)
	for dec.More() {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			break
		}
		records = append(records, rec)
	}
	return records, nil
}
