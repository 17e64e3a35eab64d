package model

// Score category keys produced by the comparison analysis. These are the
// exact keys of both Comparison.CategoryAnalysis and NumericSummary.Scores.
const (
	CategorySizeCompatibility = "size_compatibility"
	CategoryServiceOverlap    = "service_overlap"
	CategorySpecialtyMatch    = "specialty_match"
	CategoryMarketAlignment   = "market_alignment"
	CategoryTechnologySynergy = "technology_synergy"
)

// ScoreCategories lists the five category keys in report order.
var ScoreCategories = []string{
	CategorySizeCompatibility,
	CategoryServiceOverlap,
	CategorySpecialtyMatch,
	CategoryMarketAlignment,
	CategoryTechnologySynergy,
}

// CategoryScore is one scored compatibility dimension. The explanation is
// mandatory in the analysis prompt: the model must state how and why the
// score was assigned. Score is a float because models occasionally return
// fractional percentages; the numeric summary rounds them.
type CategoryScore struct {
	Score       float64 `json:"score" yaml:"score"`
	Explanation string  `json:"explanation" yaml:"explanation"`
}

// CompanyAlignment holds the qualitative alignment sub-analysis.
type CompanyAlignment struct {
	StageComparison   string `json:"stage_comparison" yaml:"stage_comparison"`
	SizeCompatibility string `json:"size_compatibility" yaml:"size_compatibility"`
	BudgetFit         string `json:"budget_fit" yaml:"budget_fit"`
}

// Comparison is the structured analysis returned by the generative-text
// service. When the analysis call fails the payload degrades: Error carries
// the failure message and every other field is zero.
type Comparison struct {
	MatchSummary     string                   `json:"match_summary,omitempty" yaml:"match_summary,omitempty"`
	MatchPercentage  float64                  `json:"business_match_percentage,omitempty" yaml:"business_match_percentage,omitempty"`
	Alignment        *CompanyAlignment        `json:"company_alignment,omitempty" yaml:"company_alignment,omitempty"`
	KeyInterests     string                   `json:"key_interests_goals,omitempty" yaml:"key_interests_goals,omitempty"`
	Similarities     []string                 `json:"similarities,omitempty" yaml:"similarities,omitempty"`
	Differences      []string                 `json:"differences,omitempty" yaml:"differences,omitempty"`
	CategoryAnalysis map[string]CategoryScore `json:"category_analysis,omitempty" yaml:"category_analysis,omitempty"`
	Verdict          string                   `json:"overall_opportunity,omitempty" yaml:"overall_opportunity,omitempty"`
	Error            string                   `json:"error,omitempty" yaml:"error,omitempty"`
}

// Degraded reports whether the comparison carries an inline error instead of
// a real analysis.
func (c *Comparison) Degraded() bool { return c != nil && c.Error != "" }

// NumericSummary flattens the category scores for quick consumption. Scores
// holds exactly the five category keys; missing categories default to 0.
type NumericSummary struct {
	Scores         map[string]int `json:"scores" yaml:"scores"`
	OverallScore   int            `json:"overall_score" yaml:"overall_score"`
	Recommendation string         `json:"recommendation" yaml:"recommendation"`
}

// ComparisonReport is the full output of a user-vs-lead comparison. It is
// written once by the comparison engine; SavedTo is annotated afterwards by
// whichever sink persisted it.
type ComparisonReport struct {
	UserCompany    CompanyProfile `json:"user_company" yaml:"user_company"`
	LeadCompany    CompanyProfile `json:"lead_company" yaml:"lead_company"`
	Comparison     Comparison     `json:"comparison" yaml:"comparison"`
	NumericSummary NumericSummary `json:"numeric_summary" yaml:"numeric_summary"`
	SavedTo        string         `json:"saved_to,omitempty" yaml:"saved_to,omitempty"`
}
