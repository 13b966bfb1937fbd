package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/qepting91/brand-monitor/internal/domain"
)

var (
	industrySplit = regexp.MustCompile(`[/,&]+`)
	labelClean    = regexp.MustCompile(`[^a-z0-9]+`)
)

// deriveAliases generates brand aliases from the brand name: lowercase
// form, no-spaces form, and .com form.
func deriveAliases(brandName string) []string {
	lower := strings.ToLower(brandName)
	noSpaces := strings.ReplaceAll(lower, " ", "")

	aliases := []string{lower}
	if noSpaces != lower {
		aliases = append(aliases, noSpaces)
	}
	return append(aliases, noSpaces+".com")
}

// industrySubMap maps well-known industry terms to relevant subreddits.
var industrySubMap = []struct {
	term string
	subs []string
}{
	{"hr", []string{"humanresources"}},
	{"human resources", []string{"humanresources"}},
	{"payroll", []string{"payroll", "bookkeeping", "accounting"}},
	{"finance", []string{"personalfinancecanada", "personalfinance", "accounting"}},
	{"accounting", []string{"accounting", "bookkeeping"}},
	{"tax", []string{"tax", "cantax"}},
	{"marketing", []string{"marketing", "digitalmarketing", "socialmedia"}},
	{"sales", []string{"sales"}},
	{"crm", []string{"sales", "crm"}},
	{"ecommerce", []string{"ecommerce", "shopify"}},
	{"devops", []string{"devops", "sysadmin"}},
	{"software", []string{"sysadmin"}},
	{"legal", []string{"legaladvice"}},
	{"real estate", []string{"realestate", "commercialrealestate"}},
	{"healthcare", []string{"healthcare"}},
	{"education", []string{"edtech"}},
	{"recruiting", []string{"recruiting", "humanresources"}},
}

// deriveSubreddits returns a reasonable subreddit set for an industry.
func deriveSubreddits(industry string) []string {
	subs := []string{"smallbusiness", "entrepreneur", "startup", "startups", "saas"}
	have := make(map[string]bool, len(subs))
	for _, s := range subs {
		have[s] = true
	}

	industryLower := strings.ToLower(industry)
	for _, entry := range industrySubMap {
		if !strings.Contains(industryLower, entry.term) {
			continue
		}
		for _, s := range entry.subs {
			if !have[s] {
				have[s] = true
				subs = append(subs, s)
			}
		}
	}
	return subs
}

// deriveRelevanceKeywords splits the industry into terms and adds
// common variants plus generic business terms.
func deriveRelevanceKeywords(industry string) []string {
	var keywords []string
	for _, term := range industrySplit.Split(strings.ToLower(industry), -1) {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		keywords = append(keywords, term, term+" software")
	}
	keywords = append(keywords, "small business", "startup", "recommend", "best")

	seen := make(map[string]bool, len(keywords))
	var unique []string
	for _, kw := range keywords {
		if !seen[kw] {
			seen[kw] = true
			unique = append(unique, kw)
		}
	}
	return unique
}

// deriveQueries auto-generates the daily, weekly, and scrape query
// sets from brand name, industry, and competitor list.
func deriveQueries(brandName, industry string, competitors []string) Queries {
	brandNoSpace := strings.ReplaceAll(brandName, " ", "")
	brandDotCom := strings.ToLower(brandNoSpace) + ".com"

	var industryTerms []string
	for _, t := range industrySplit.Split(industry, -1) {
		if t = strings.TrimSpace(t); t != "" {
			industryTerms = append(industryTerms, t)
		}
	}
	industrySlug := strings.ToLower(strings.Join(industryTerms, " "))

	// Top competitors for OR-chains; capped so queries stay short.
	topComps := competitors
	if len(topComps) > 4 {
		topComps = topComps[:4]
	}
	quoted := make([]string, len(topComps))
	for i, c := range topComps {
		quoted[i] = fmt.Sprintf("%q", titleCase(c))
	}
	compOr := strings.Join(quoted, " OR ")

	year := time.Now().UTC().Year()

	daily := []domain.Query{
		{Label: "brand_direct", Query: fmt.Sprintf("%q OR %q OR %q", brandName, brandNoSpace, brandDotCom)},
		{Label: "industry_recommend", Query: fmt.Sprintf("%s software recommend OR best", industrySlug)},
		{Label: "competitor_mentions", Query: fmt.Sprintf("%s %s", compOr, industrySlug)},
	}

	weekly := []domain.Query{
		{Label: "switching_platforms", Query: fmt.Sprintf("switching OR migrating %s software", industrySlug)},
		{Label: "comparison_threads", Query: fmt.Sprintf("%s vs recommend", industrySlug)},
		{Label: fmt.Sprintf("best_%d", year), Query: fmt.Sprintf("best %s software %d", industrySlug, year)},
	}

	firstTerm := "software"
	if len(industryTerms) > 0 {
		firstTerm = strings.ToLower(industryTerms[0])
	}
	scrape := []domain.Query{
		{Label: "brand_general", Query: fmt.Sprintf("%q", brandName)},
		{Label: "brand_domain", Query: fmt.Sprintf("%q OR %q", brandNoSpace, brandDotCom)},
		{Label: "best_" + labelSlug(firstTerm), Query: fmt.Sprintf("best %s software", industrySlug)},
		{Label: "recommend", Query: fmt.Sprintf("%s software recommendation", industrySlug)},
	}
	for _, comp := range topComps {
		scrape = append(scrape, domain.Query{
			Label: labelSlug(comp),
			Query: fmt.Sprintf("%q %s", titleCase(comp), industrySlug),
		})
	}

	return Queries{Daily: daily, Weekly: weekly, Scrape: scrape}
}

func labelSlug(s string) string {
	return strings.Trim(labelClean.ReplaceAllString(strings.ToLower(s), "_"), "_")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
