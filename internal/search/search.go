// Package search finds candidate websites for a named company and re-ranks
// them by likely officialness.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/leadmatch/leadmatch/internal/llm"
	"github.com/leadmatch/leadmatch/internal/model"
	"github.com/leadmatch/leadmatch/pkg/jina"
)

// Provider is the external web-search collaborator. Ordering of the raw
// hits is not guaranteed.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error)
}

// maxSnippetChars bounds the preview text kept per result.
const maxSnippetChars = 300

// rankTimeout bounds the re-ranking completion call.
const rankTimeout = 30 * time.Second

// excludedDomains lists non-company domains dropped from results:
// social networks, wikis, news aggregators, and data brokers.
var excludedDomains = []string{
	"wikipedia.org", "facebook.com", "twitter.com",
	"instagram.com", "youtube.com", "linkedin.com/posts",
	"reddit.com", "quora.com", "news.", "blog.",
	"crunchbase.com", "bloomberg.com", "pitchbook.com",
}

var domainPattern = regexp.MustCompile(`https?://(?:www\.)?([^/]+)`)

// Engine searches for a company's official website.
type Engine struct {
	provider Provider
	llm      llm.Client
}

// NewEngine creates a search engine over the given provider. The completion
// client is used only for re-ranking and may be nil to skip it.
func NewEngine(provider Provider, completer llm.Client) *Engine {
	return &Engine{provider: provider, llm: completer}
}

// Find searches for the official website of a company and returns up to
// maxResults candidates, deny-list filtered, deduplicated by domain, and
// re-ranked most-likely-official-first. A failed search yields an empty
// list, not an error: the caller treats zero results as "not found".
func (e *Engine) Find(ctx context.Context, companyName string, maxResults int) []model.SearchResult {
	query := fmt.Sprintf("%s official website", companyName)
	log := zap.L().With(zap.String("company", companyName))
	log.Info("search: querying", zap.String("query", query))

	// Over-fetch to compensate for deny-list filtering and dedup.
	raw, err := e.provider.Search(ctx, query, maxResults*3)
	if err != nil {
		log.Warn("search: provider failed", zap.Error(err))
		return []model.SearchResult{}
	}

	results := filterResults(raw, maxResults)

	if len(results) > 0 && e.llm != nil {
		results = e.rankByRelevance(ctx, results, companyName)
	}

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	log.Info("search: found candidates", zap.Int("count", len(results)))
	return results
}

// filterResults drops deny-listed URLs, dedupes by domain (first seen wins),
// truncates snippets, and keeps the first maxResults.
func filterResults(raw []model.SearchResult, maxResults int) []model.SearchResult {
	filtered := make([]model.SearchResult, 0, maxResults)
	seen := make(map[string]bool)

	for _, r := range raw {
		if r.URL == "" || !isCompanyPage(r.URL) {
			continue
		}
		domain := ExtractDomain(r.URL)
		if seen[domain] {
			continue
		}
		seen[domain] = true

		filtered = append(filtered, model.SearchResult{
			URL:     r.URL,
			Title:   r.Title,
			Snippet: truncateRunes(r.Snippet, maxSnippetChars),
			Domain:  domain,
		})
		if len(filtered) >= maxResults {
			break
		}
	}
	return filtered
}

// truncateRunes cuts s to at most n runes. Counting runes instead of bytes
// keeps a multibyte character from being split at the boundary.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// isCompanyPage rejects URLs on the deny-list of non-company domains.
func isCompanyPage(url string) bool {
	lower := strings.ToLower(url)
	for _, excluded := range excludedDomains {
		if strings.Contains(lower, excluded) {
			return false
		}
	}
	return true
}

// ExtractDomain pulls the registrable host out of a URL, dropping a leading
// www. Falls back to the raw input when the URL has no recognizable form.
func ExtractDomain(url string) string {
	m := domainPattern.FindStringSubmatch(url)
	if len(m) > 1 {
		return m[1]
	}
	return url
}

const rankPromptTemplate = `Identify the official website for the company "%s" from the search results below.

Search Results:
%s

Rank them in order of likelihood (most likely official site first).
Return a JSON array of URLs.
Example: ["https://official-site.com", "https://other-site.com"]

Return ONLY the valid JSON array.`

// rankByRelevance asks the completion service to order candidates by
// likelihood of being the official site. Any failure is non-fatal: the
// unranked list is returned unchanged.
func (e *Engine) rankByRelevance(ctx context.Context, results []model.SearchResult, companyName string) []model.SearchResult {
	type hit struct {
		URL     string `json:"url"`
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
	}
	hits := make([]hit, len(results))
	for i, r := range results {
		hits[i] = hit{URL: r.URL, Title: r.Title, Snippet: r.Snippet}
	}
	encoded, err := json.MarshalIndent(hits, "", "  ")
	if err != nil {
		return results
	}

	rankCtx, cancel := context.WithTimeout(ctx, rankTimeout)
	defer cancel()

	reply, err := e.llm.Complete(rankCtx, llm.Request{
		Prompt:      fmt.Sprintf(rankPromptTemplate, companyName, string(encoded)),
		Temperature: 0.1,
		MaxTokens:   500,
	})
	if err != nil {
		zap.L().Warn("search: ranking failed, keeping provider order", zap.Error(err))
		return results
	}

	var rankedURLs []string
	if err := json.Unmarshal([]byte(llm.CleanJSON(reply)), &rankedURLs); err != nil {
		zap.L().Warn("search: unparseable ranking reply, keeping provider order", zap.Error(err))
		return results
	}

	byURL := make(map[string]model.SearchResult, len(results))
	for _, r := range results {
		byURL[r.URL] = r
	}

	ranked := make([]model.SearchResult, 0, len(results))
	taken := make(map[string]bool, len(results))
	for _, u := range rankedURLs {
		if r, ok := byURL[u]; ok && !taken[u] {
			ranked = append(ranked, r)
			taken[u] = true
		}
	}
	// Results the model omitted keep their original relative order at the end.
	for _, r := range results {
		if !taken[r.URL] {
			ranked = append(ranked, r)
		}
	}
	return ranked
}

// JinaProvider adapts the Jina Search API to the Provider interface.
type JinaProvider struct {
	api jina.Client
}

// NewJinaProvider creates a Provider backed by Jina Search.
func NewJinaProvider(api jina.Client) *JinaProvider {
	return &JinaProvider{api: api}
}

// Search issues the query and maps raw hits into SearchResults. Domains are
// filled in later by the engine's filter pass.
func (p *JinaProvider) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	resp, err := p.api.Search(ctx, query, jina.WithLimit(limit))
	if err != nil {
		return nil, err
	}
	out := make([]model.SearchResult, 0, len(resp.Data))
	for _, d := range resp.Data {
		out = append(out, model.SearchResult{
			URL:     d.URL,
			Title:   d.Title,
			Snippet: d.Description,
		})
	}
	return out, nil
}
