package search

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadmatch/leadmatch/internal/llm"
	"github.com/leadmatch/leadmatch/internal/model"
)

type fakeProvider struct {
	results []model.SearchResult
	err     error
	gotQ    string
	gotN    int
}

func (f *fakeProvider) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	f.gotQ = query
	f.gotN = limit
	return f.results, f.err
}

type fakeCompleter struct {
	reply string
	err   error
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	return f.reply, f.err
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.acme.com/about", "acme.com"},
		{"https://acme.com", "acme.com"},
		{"http://sub.acme.com/x", "sub.acme.com"},
		{"not-a-url", "not-a-url"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractDomain(tt.in))
	}
}

func TestFindFiltersAndDedupes(t *testing.T) {
	provider := &fakeProvider{
		results: []model.SearchResult{
			{URL: "https://en.wikipedia.org/wiki/Acme", Title: "Acme - Wikipedia"},
			{URL: "https://www.acme.com", Title: "Acme Corp"},
			{URL: "https://acme.com/about", Title: "About Acme"},
			{URL: "https://www.facebook.com/acme", Title: "Acme | Facebook"},
			{URL: "https://acme-rivals.com", Title: "Acme Rivals", Snippet: strings.Repeat("s", 400)},
		},
	}
	e := NewEngine(provider, nil)

	results := e.Find(context.Background(), "Acme Corp", 5)

	require.Len(t, results, 2)
	assert.Equal(t, "https://www.acme.com", results[0].URL)
	assert.Equal(t, "acme.com", results[0].Domain)
	assert.Equal(t, "https://acme-rivals.com", results[1].URL)
	// Snippets are capped.
	assert.LessOrEqual(t, len(results[1].Snippet), 300)

	assert.Equal(t, "Acme Corp official website", provider.gotQ)
	assert.Equal(t, 15, provider.gotN)
}

func TestSnippetTruncationKeepsValidUTF8(t *testing.T) {
	// 299 ASCII bytes followed by multibyte runes puts the 300-byte mark
	// inside a rune; the cut must land on a rune boundary.
	snippet := strings.Repeat("s", 299) + strings.Repeat("日本語", 10)
	provider := &fakeProvider{
		results: []model.SearchResult{
			{URL: "https://acme.com", Title: "Acme", Snippet: snippet},
		},
	}
	e := NewEngine(provider, nil)

	results := e.Find(context.Background(), "Acme", 5)
	require.Len(t, results, 1)
	got := results[0].Snippet
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, maxSnippetChars, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "日"))
}

func TestFindProviderErrorYieldsEmpty(t *testing.T) {
	provider := &fakeProvider{err: errors.New("search down")}
	e := NewEngine(provider, nil)

	results := e.Find(context.Background(), "Acme", 5)
	require.NotNil(t, results)
	assert.Empty(t, results)
}

func TestFindRanksWithCompleter(t *testing.T) {
	provider := &fakeProvider{
		results: []model.SearchResult{
			{URL: "https://acme-fan.net", Title: "Fan page"},
			{URL: "https://acme.com", Title: "Acme Corp"},
		},
	}
	completer := &fakeCompleter{
		reply: "```json\n[\"https://acme.com\", \"https://acme-fan.net\"]\n```",
	}
	e := NewEngine(provider, completer)

	results := e.Find(context.Background(), "Acme", 5)
	require.Len(t, results, 2)
	assert.Equal(t, "https://acme.com", results[0].URL)
	assert.Equal(t, "https://acme-fan.net", results[1].URL)
}

func TestFindRankingFailureKeepsOrder(t *testing.T) {
	provider := &fakeProvider{
		results: []model.SearchResult{
			{URL: "https://first.com", Title: "First"},
			{URL: "https://second.com", Title: "Second"},
		},
	}
	completer := &fakeCompleter{err: errors.New("model overloaded")}
	e := NewEngine(provider, completer)

	results := e.Find(context.Background(), "Acme", 5)
	require.Len(t, results, 2)
	assert.Equal(t, "https://first.com", results[0].URL)
}

func TestFindRankingOmissionsAppended(t *testing.T) {
	provider := &fakeProvider{
		results: []model.SearchResult{
			{URL: "https://a.com", Title: "A"},
			{URL: "https://b.com", Title: "B"},
			{URL: "https://c.com", Title: "C"},
		},
	}
	// The model drops b.com and invents an unseen URL; both are tolerated.
	completer := &fakeCompleter{
		reply: `["https://c.com", "https://unknown.example"]`,
	}
	e := NewEngine(provider, completer)

	results := e.Find(context.Background(), "Acme", 5)
	require.Len(t, results, 3)
	assert.Equal(t, "https://c.com", results[0].URL)
	assert.Equal(t, "https://a.com", results[1].URL)
	assert.Equal(t, "https://b.com", results[2].URL)
}
