package collector

import (
	"fmt"
	"os"
	"time"

	"github.com/qepting91/brand-monitor/internal/domain"
)

// NewCollector selects the correct implementation based on COLLECTOR_MODE.
// The public JSON client is the default; it needs no credentials.
func NewCollector(userAgent string, rateDelay time.Duration) (domain.Collector, error) {
	mode := os.Getenv("COLLECTOR_MODE")
	if mode == "" {
		mode = "public"
	}

	switch mode {
	case "api":
		return NewAPIClient(
			os.Getenv("REDDIT_CLIENT_ID"),
			os.Getenv("REDDIT_CLIENT_SECRET"),
			os.Getenv("REDDIT_USERNAME"),
			os.Getenv("REDDIT_PASSWORD"),
			userAgent,
		)
	case "public":
		if userAgent == "" {
			return nil, fmt.Errorf("a user agent is required for public mode")
		}
		return NewPublicClient(userAgent, rateDelay)
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown COLLECTOR_MODE: %s (use 'api', 'public', or 'mock')", mode)
	}
}
