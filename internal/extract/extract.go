// Package extract turns fetched page text into a structured CompanyProfile
// via a schema-pinned generative-text call.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/leadmatch/leadmatch/internal/fetch"
	"github.com/leadmatch/leadmatch/internal/llm"
	"github.com/leadmatch/leadmatch/internal/model"
)

// ErrMalformedResponse is returned when the model reply, after fence
// stripping, is not parseable as the expected profile structure.
var ErrMalformedResponse = eris.New("extract: malformed-response")

const (
	extractTimeout     = 45 * time.Second
	extractTemperature = 0.1
	extractMaxTokens   = 2000
)

const systemPrompt = "You are an expert business analyst. Extract company information from webpage content and return structured JSON."

// extractPromptTemplate pins the exact output schema. The website field is
// pre-filled with the scrape URL; whatever the model echoes there is
// overwritten after parsing anyway.
const extractPromptTemplate = `Analyze the following webpage content and extract company information.
Return a JSON object with these exact fields:

{
    "name": "Company official name",
    "description": "Detailed company description (2-3 paragraphs)",
    "industry": "Primary industry",
    "size": "Company size (e.g., '1-10', '11-50', '50-200', 'Enterprise')",
    "location": "Headquarters location",
    "specialties": ["specialty1", "specialty2", ...],
    "services": ["service1", "service2", ...],
    "website": "%s",
    "founded": "Year founded or null",
    "mission": "Mission statement or null",
    "key_people": ["Name (Role)", "Name (Role)", ...],
    "goals": "Key business goals or strategic interests mentioned",
    "stage": "Startup|SME|Enterprise|Corporation (infer from size/history)",
    "budget_estimate": "Estimated revenue/budget range if mentioned (or 'Unknown')"
}

Infer information if not explicitly stated, but be realistic.

Website URL: %s

Page Content:
%s

Return ONLY valid JSON, no markdown or explanation.`

// Extractor produces CompanyProfiles from page text.
type Extractor struct {
	llm llm.Client
}

// NewExtractor creates an Extractor over the given completion client.
func NewExtractor(completer llm.Client) *Extractor {
	return &Extractor{llm: completer}
}

// Extract submits the page text with a strict schema prompt and parses the
// reply into a CompanyProfile. The returned profile's Website is always the
// normalized scrape URL, authoritative over whatever the model produced.
func (e *Extractor) Extract(ctx context.Context, pageURL, pageText string) (*model.CompanyProfile, error) {
	pageURL = fetch.NormalizeURL(pageURL)

	callCtx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	reply, err := e.llm.Complete(callCtx, llm.Request{
		System:      systemPrompt,
		Prompt:      fmt.Sprintf(extractPromptTemplate, pageURL, pageURL, pageText),
		Temperature: extractTemperature,
		MaxTokens:   extractMaxTokens,
	})
	if err != nil {
		return nil, eris.Wrap(err, "extract: completion call")
	}

	var profile model.CompanyProfile
	if err := json.Unmarshal([]byte(llm.CleanJSON(reply)), &profile); err != nil {
		zap.L().Debug("extract: unparseable reply", zap.String("url", pageURL), zap.Error(err))
		return nil, eris.Wrap(ErrMalformedResponse, err.Error())
	}

	profile.Website = pageURL
	zap.L().Info("extract: profile produced",
		zap.String("company", profile.Name),
		zap.String("url", pageURL),
	)
	return &profile, nil
}
