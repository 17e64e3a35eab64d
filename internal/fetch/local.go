package fetch

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// browserUserAgent mimics a desktop Chrome install. Many company sites serve
// empty shells or 403s to obvious bot agents.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// maxBodyBytes caps how much HTML is read before parsing.
const maxBodyBytes = 2 * 1024 * 1024

// LocalFetcher fetches HTML via net/http and reduces it to plaintext with a
// tree-based extractor. Free, no API calls.
type LocalFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

// LocalOption configures a LocalFetcher.
type LocalOption func(*LocalFetcher)

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) LocalOption {
	return func(l *LocalFetcher) {
		l.client.Timeout = d
	}
}

// WithRateLimit throttles outbound fetches to r requests per second.
func WithRateLimit(r float64, burst int) LocalOption {
	return func(l *LocalFetcher) {
		l.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

// NewLocalFetcher creates a LocalFetcher with sensible defaults: 20s total
// timeout, redirects followed, no rate limit.
func NewLocalFetcher(opts ...LocalOption) *LocalFetcher {
	l := &LocalFetcher{
		client: &http.Client{
			Timeout: 20 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *LocalFetcher) Name() string { return "local_http" }

// Fetch performs a single GET with browser-like headers and returns cleaned,
// truncated plaintext. Any non-2xx status or transport failure is an error;
// there is no retry at this level.
func (l *LocalFetcher) Fetch(ctx context.Context, targetURL string) (string, error) {
	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "local_http: rate limit wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "local_http: create request")
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "local_http: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", eris.Errorf("local_http: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", eris.Wrap(err, "local_http: read body")
	}

	text, err := extractText(string(body))
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", eris.New("local_http: empty page")
	}

	return Truncate(text), nil
}

// extractText strips structural noise elements and returns the page text as
// newline-joined non-empty lines.
func extractText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", eris.Wrap(err, "local_http: parse html")
	}

	doc.Find("script, style, noscript, nav, header, footer, aside").Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		return collapseLines(doc.Text()), nil
	}

	// Walk block-level elements so distinct sections land on distinct lines
	// instead of running together the way Selection.Text concatenates them.
	var b strings.Builder
	emit := func(s *goquery.Selection) {
		if t := blockText(s); t != "" {
			b.WriteString(t)
			b.WriteString("\n")
		}
	}
	emit(body)
	body.Find("h1, h2, h3, h4, h5, h6, p, li, td, th, div, blockquote").Each(func(_ int, s *goquery.Selection) {
		emit(s)
	})

	text := collapseLines(b.String())
	if text == "" {
		text = collapseLines(body.Text())
	}
	return text, nil
}

// inlineTags are phrasing-level elements whose text belongs to the enclosing
// block rather than on a line of its own.
var inlineTags = map[string]bool{
	"a": true, "abbr": true, "b": true, "br": true, "code": true,
	"em": true, "i": true, "mark": true, "small": true, "span": true,
	"strong": true, "sub": true, "sup": true, "u": true,
}

// blockText returns the text of one block element as a single line. Elements
// with only inline children render whole, so markup like
// <p>We build <strong>robots</strong>.</p> keeps its full sentence. Elements
// that contain nested blocks contribute only their own text and inline runs;
// the nested blocks get their own lines from the walk.
func blockText(s *goquery.Selection) string {
	inlineOnly := true
	s.Children().Each(func(_ int, c *goquery.Selection) {
		if !inlineTags[goquery.NodeName(c)] {
			inlineOnly = false
		}
	})
	if inlineOnly {
		return strings.TrimSpace(s.Text())
	}

	var b strings.Builder
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		name := goquery.NodeName(c)
		if name == "#text" || inlineTags[name] {
			if t := strings.TrimSpace(c.Text()); t != "" {
				b.WriteString(t)
				b.WriteString(" ")
			}
		}
	})
	return strings.TrimSpace(b.String())
}
