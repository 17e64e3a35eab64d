// Package fetch retrieves the text content of company websites. The local
// HTTP fetcher is tried first; sites that reject it fall through to the Jina
// Reader fetcher when one is configured.
package fetch

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/leadmatch/leadmatch/pkg/jina"
)

// MaxContentChars bounds fetched text to keep downstream prompts within the
// model's context budget. Truncation is a plain prefix cut.
const MaxContentChars = 15000

// ErrUnreachable is returned when a page cannot be fetched: connection
// failure, timeout, or a non-2xx status. Fetches are not retried here;
// callers re-invoke the phase if they want another attempt.
var ErrUnreachable = eris.New("fetch: unreachable")

// Fetcher retrieves the readable text of a single URL.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, targetURL string) (string, error)
}

// Chain tries fetchers in priority order, returning the first success.
type Chain struct {
	fetchers []Fetcher
}

// NewChain creates a Chain. Fetchers are tried in the order given.
func NewChain(fetchers ...Fetcher) *Chain {
	return &Chain{fetchers: fetchers}
}

// Fetch normalizes the URL and tries each fetcher in order. All failures
// collapse to ErrUnreachable with the last cause attached.
func (c *Chain) Fetch(ctx context.Context, targetURL string) (string, error) {
	targetURL = NormalizeURL(targetURL)

	var lastErr error
	for _, f := range c.fetchers {
		text, err := f.Fetch(ctx, targetURL)
		if err == nil && text != "" {
			return text, nil
		}
		if err != nil {
			zap.L().Debug("fetch: fetcher failed, trying next",
				zap.String("fetcher", f.Name()),
				zap.String("url", targetURL),
				zap.Error(err),
			)
			lastErr = err
		}
	}
	if lastErr != nil {
		return "", eris.Wrap(ErrUnreachable, lastErr.Error())
	}
	return "", eris.Wrapf(ErrUnreachable, "no fetcher configured for %s", targetURL)
}

// NormalizeURL prepends https:// to scheme-less URLs. URLs that already
// carry a scheme pass through unchanged, so the function is idempotent.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "https://" + raw
}

// Truncate cuts text to at most MaxContentChars characters. Characters mean
// runes here, so a multibyte character is never split at the boundary.
func Truncate(text string) string {
	if len(text) <= MaxContentChars {
		return text
	}
	count := 0
	for i := range text {
		if count == MaxContentChars {
			return text[:i]
		}
		count++
	}
	return text
}

// collapseLines trims every line and drops the empty ones, joining the rest
// with single newlines.
func collapseLines(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// JinaFetcher fetches pages through the Jina Reader API. Used as a fallback
// for sites that block plain HTTP clients.
type JinaFetcher struct {
	api jina.Client
}

// NewJinaFetcher creates a JinaFetcher.
func NewJinaFetcher(api jina.Client) *JinaFetcher {
	return &JinaFetcher{api: api}
}

func (j *JinaFetcher) Name() string { return "jina_reader" }

// Fetch reads the URL via Jina Reader and returns cleaned, truncated text.
func (j *JinaFetcher) Fetch(ctx context.Context, targetURL string) (string, error) {
	resp, err := j.api.Read(ctx, targetURL)
	if err != nil {
		return "", eris.Wrap(err, "jina_reader: fetch")
	}
	text := collapseLines(resp.Data.Content)
	if text == "" {
		return "", eris.New("jina_reader: empty page")
	}
	return Truncate(text), nil
}
