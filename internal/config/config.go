// Package config loads the monitor configuration. Only three fields
// are required: brand.name, brand.industry, and competitors.names.
// Everything else (aliases, subreddits, keywords, queries, settings)
// is derived from those three when missing, so an existing full config
// file keeps working unchanged.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/qepting91/brand-monitor/internal/domain"
	"gopkg.in/yaml.v3"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

type Config struct {
	Brand       Brand       `yaml:"brand"`
	Competitors Competitors `yaml:"competitors"`
	Subreddits  Subreddits  `yaml:"subreddits"`
	Keywords    Keywords    `yaml:"keywords"`
	Queries     Queries     `yaml:"queries"`
	Settings    Settings    `yaml:"settings"`
	Analysis    Analysis    `yaml:"analysis"`
}

type Brand struct {
	Name     string   `yaml:"name"`
	Industry string   `yaml:"industry"`
	Aliases  []string `yaml:"aliases"`
}

type Competitors struct {
	Names []string `yaml:"names"`
}

type Subreddits struct {
	HighValue []string `yaml:"high_value"`
}

type Keywords struct {
	Relevance  []string `yaml:"relevance"`
	Geographic []string `yaml:"geographic"`
}

type Queries struct {
	Daily  []domain.Query `yaml:"daily"`
	Weekly []domain.Query `yaml:"weekly"`
	Scrape []domain.Query `yaml:"scrape"`
}

type Settings struct {
	UserAgent           string `yaml:"user_agent"`
	RateDelaySeconds    int    `yaml:"rate_delay"`
	MaxResultsPerQuery  int    `yaml:"max_results_per_query"`
	MaxCommentsToFetch  int    `yaml:"max_comments_to_fetch"`
	MinCommentsForFetch int    `yaml:"min_comments_for_fetch"`
	MaxSeenIDs          int    `yaml:"max_seen_ids"`
}

type Analysis struct {
	Model            string `yaml:"model"`
	FreeRunsPerMonth int    `yaml:"free_runs_per_month"`
}

// RateDelay returns the inter-call delay as a duration.
func (s Settings) RateDelay() time.Duration {
	return time.Duration(s.RateDelaySeconds) * time.Second
}

// Load reads and validates the YAML configuration file, then fills in
// derived defaults for anything optional that is missing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s (copy config.example.yaml and fill in your settings)", path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.populateDefaults()
	return &cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.Brand.Name == "" {
		missing = append(missing, "brand.name")
	}
	if c.Brand.Industry == "" {
		missing = append(missing, "brand.industry")
	}
	if len(c.Competitors.Names) == 0 {
		missing = append(missing, "competitors.names")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config is missing required field(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) populateDefaults() {
	if len(c.Brand.Aliases) == 0 {
		c.Brand.Aliases = deriveAliases(c.Brand.Name)
	}
	if len(c.Subreddits.HighValue) == 0 {
		c.Subreddits.HighValue = deriveSubreddits(c.Brand.Industry)
	}
	if len(c.Keywords.Relevance) == 0 {
		c.Keywords.Relevance = deriveRelevanceKeywords(c.Brand.Industry)
	}
	if len(c.Queries.Daily) == 0 && len(c.Queries.Weekly) == 0 && len(c.Queries.Scrape) == 0 {
		c.Queries = deriveQueries(c.Brand.Name, c.Brand.Industry, c.Competitors.Names)
	}

	if c.Settings.UserAgent == "" {
		c.Settings.UserAgent = defaultUserAgent
	}
	if c.Settings.RateDelaySeconds == 0 {
		c.Settings.RateDelaySeconds = 2
	}
	if c.Settings.MaxResultsPerQuery == 0 {
		c.Settings.MaxResultsPerQuery = 25
	}
	if c.Settings.MaxCommentsToFetch == 0 {
		c.Settings.MaxCommentsToFetch = 15
	}
	if c.Settings.MinCommentsForFetch == 0 {
		c.Settings.MinCommentsForFetch = 5
	}
	if c.Settings.MaxSeenIDs == 0 {
		c.Settings.MaxSeenIDs = 5000
	}

	if c.Analysis.Model == "" {
		c.Analysis.Model = "claude-sonnet-4-20250514"
	}
	if c.Analysis.FreeRunsPerMonth == 0 {
		c.Analysis.FreeRunsPerMonth = 6
	}
}

// QueriesFor returns the query set for a run mode. Daily runs only the
// high-priority queries; weekly and all add the supplementary set.
func (c *Config) QueriesFor(mode string) []domain.Query {
	queries := append([]domain.Query(nil), c.Queries.Daily...)
	if mode == "weekly" || mode == "all" {
		queries = append(queries, c.Queries.Weekly...)
	}
	return queries
}

// TimeWindow returns the Reddit time filter for a run mode.
func (c *Config) TimeWindow(mode string) string {
	if mode == "daily" {
		return "week"
	}
	return "month"
}

// HighValueSet returns the high-value subreddits as a lowercase set.
func (c *Config) HighValueSet() map[string]bool {
	set := make(map[string]bool, len(c.Subreddits.HighValue))
	for _, s := range c.Subreddits.HighValue {
		set[strings.ToLower(s)] = true
	}
	return set
}

// LowerAliases returns the brand aliases lowercased for matching.
func (c *Config) LowerAliases() []string {
	return lowerAll(c.Brand.Aliases)
}

// LowerCompetitors returns the competitor names lowercased for matching.
func (c *Config) LowerCompetitors() []string {
	return lowerAll(c.Competitors.Names)
}

// LowerKeywords returns the relevance keywords lowercased for matching.
func (c *Config) LowerKeywords() []string {
	return lowerAll(c.Keywords.Relevance)
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
