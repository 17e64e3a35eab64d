// Package compare produces a structured compatibility report between a user
// company profile and a lead company profile.
package compare

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/leadmatch/leadmatch/internal/llm"
	"github.com/leadmatch/leadmatch/internal/model"
)

const (
	compareTimeout     = 60 * time.Second
	compareTemperature = 0.2
	// The five per-category explanations are verbose by design, so the
	// output budget is generous.
	compareMaxTokens = 2500
)

const systemPrompt = "You are a strategic business consultant expert in B2B matching."

const comparePromptTemplate = `Perform a comprehensive B2B business matching analysis.

USER COMPANY (My Company):
- Name: %s
- Description: %s
- Industry: %s
- Size: %s
- Products/Services: %s
- Specialties: %s
- Goals: %s
- Stage: %s

LEAD COMPANY (Target):
- Name: %s
- Description: %s
- Industry: %s
- Size: %s
- Products/Services: %s
- Specialties: %s
- Goals: %s
- Stage: %s
- Budget Estimate: %s

Analyze the alignment and provide a JSON response with the following structure.
Crucial: for every "explanation" field, you MUST explain HOW and WHY based on the data.

{
    "match_summary": "Brief executive summary of the business match opportunity",
    "business_match_percentage": <0-100 number>,
    "company_alignment": {
        "stage_comparison": "Compare stages (e.g. Startup vs Enterprise) and what it means",
        "size_compatibility": "Analyze if the size difference is a pro or con",
        "budget_fit": "Analyze if the lead likely has budget for user services"
    },
    "key_interests_goals": "Analysis of shared or complementary goals",
    "similarities": ["Sim 1", "Sim 2", ...],
    "differences": ["Diff 1", "Diff 2", ...],
    "category_analysis": {
        "size_compatibility": {"score": <0-100>, "explanation": "HOW and WHY?"},
        "service_overlap": {"score": <0-100>, "explanation": "HOW and WHY?"},
        "specialty_match": {"score": <0-100>, "explanation": "HOW and WHY?"},
        "market_alignment": {"score": <0-100>, "explanation": "HOW and WHY?"},
        "technology_synergy": {"score": <0-100>, "explanation": "HOW and WHY?"}
    },
    "overall_opportunity": "Final verdict on the partnership/sales opportunity"
}

Return ONLY valid JSON.`

// Engine compares two company profiles.
type Engine struct {
	llm llm.Client
}

// NewEngine creates a comparison engine over the given completion client.
func NewEngine(completer llm.Client) *Engine {
	return &Engine{llm: completer}
}

// Compare analyzes user-vs-lead compatibility and always returns a report.
// Failures of the analysis call or its parse degrade the comparison payload
// to an inline error; the numeric summary then carries all-zero scores.
func (e *Engine) Compare(ctx context.Context, user, lead model.CompanyProfile) *model.ComparisonReport {
	zap.L().Info("compare: analyzing match",
		zap.String("user_company", user.Name),
		zap.String("lead_company", lead.Name),
	)

	comparison := e.analyze(ctx, user, lead)
	summary := summarize(comparison)

	report := &model.ComparisonReport{
		UserCompany:    user,
		LeadCompany:    lead,
		Comparison:     comparison,
		NumericSummary: summary,
	}

	zap.L().Info("compare: report produced",
		zap.Int("overall_score", summary.OverallScore),
		zap.Bool("degraded", comparison.Degraded()),
	)
	return report
}

// analyze runs the structured-analysis completion. On any failure the
// returned payload carries the error inline instead of propagating it.
func (e *Engine) analyze(ctx context.Context, user, lead model.CompanyProfile) model.Comparison {
	callCtx, cancel := context.WithTimeout(ctx, compareTimeout)
	defer cancel()

	reply, err := e.llm.Complete(callCtx, llm.Request{
		System:      systemPrompt,
		Prompt:      buildPrompt(user, lead),
		Temperature: compareTemperature,
		MaxTokens:   compareMaxTokens,
	})
	if err != nil {
		zap.L().Warn("compare: analysis call failed, degrading report", zap.Error(err))
		return model.Comparison{Error: err.Error()}
	}

	var comparison model.Comparison
	if err := json.Unmarshal([]byte(llm.CleanJSON(reply)), &comparison); err != nil {
		zap.L().Warn("compare: unparseable analysis reply, degrading report", zap.Error(err))
		return model.Comparison{Error: fmt.Sprintf("unparseable analysis: %s", err)}
	}
	return comparison
}

func buildPrompt(user, lead model.CompanyProfile) string {
	return fmt.Sprintf(comparePromptTemplate,
		user.Name, user.Description, user.Industry, user.Size,
		strings.Join(user.Services, ", "), strings.Join(user.Specialties, ", "),
		orNA(user.Goals), orNA(string(user.Stage)),
		lead.Name, lead.Description, lead.Industry, lead.Size,
		strings.Join(lead.Services, ", "), strings.Join(lead.Specialties, ", "),
		orNA(lead.Goals), orNA(string(lead.Stage)), orNA(lead.BudgetEstimate),
	)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// summarize reads the five category scores out of the (possibly degraded)
// comparison. Missing categories default to 0; every score is rounded to the
// nearest integer and clamped to [0,100].
func summarize(c model.Comparison) model.NumericSummary {
	scores := make(map[string]int, len(model.ScoreCategories))
	for _, key := range model.ScoreCategories {
		scores[key] = clamp(c.CategoryAnalysis[key].Score)
	}
	return model.NumericSummary{
		Scores:         scores,
		OverallScore:   clamp(c.MatchPercentage),
		Recommendation: c.Verdict,
	}
}

func clamp(score float64) int {
	n := int(math.Round(score))
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
