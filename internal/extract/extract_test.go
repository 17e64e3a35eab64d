package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadmatch/leadmatch/internal/llm"
)

type fakeCompleter struct {
	reply string
	err   error
	got   llm.Request
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.got = req
	return f.reply, f.err
}

const profileReply = "```json\n" + `{
	"name": "Acme Corp",
	"description": "Industrial equipment maker.",
	"industry": "Manufacturing",
	"size": "50-200",
	"location": "Phoenix, AZ",
	"specialties": ["anvils"],
	"services": ["custom fabrication"],
	"website": "https://model-echoed-wrong.example",
	"founded": "1952",
	"stage": "SME",
	"budget_estimate": "Unknown"
}` + "\n```"

func TestExtract(t *testing.T) {
	fake := &fakeCompleter{reply: profileReply}
	e := NewExtractor(fake)

	profile, err := e.Extract(context.Background(), "acme.com", "Acme makes anvils.")
	require.NoError(t, err)

	assert.Equal(t, "Acme Corp", profile.Name)
	assert.Equal(t, "Manufacturing", profile.Industry)
	// The scrape URL wins over whatever the model echoed, normalized.
	assert.Equal(t, "https://acme.com", profile.Website)

	assert.NotEmpty(t, fake.got.System)
	assert.Contains(t, fake.got.Prompt, "Acme makes anvils.")
	assert.InDelta(t, 0.1, fake.got.Temperature, 0.0001)
	assert.Equal(t, 2000, fake.got.MaxTokens)
}

func TestExtractMalformedReply(t *testing.T) {
	fake := &fakeCompleter{reply: "Sorry, I cannot find any company information here."}
	e := NewExtractor(fake)

	_, err := e.Extract(context.Background(), "https://acme.com", "gibberish")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedResponse))
}

func TestExtractCompletionError(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("model unavailable")}
	e := NewExtractor(fake)

	_, err := e.Extract(context.Background(), "https://acme.com", "text")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMalformedResponse))
}
