package model

// Stage buckets a company by maturity. The extractor instructs the model to
// infer one of these from size and history when not explicitly stated.
type Stage string

const (
	StageStartup     Stage = "Startup"
	StageSME         Stage = "SME"
	StageEnterprise  Stage = "Enterprise"
	StageCorporation Stage = "Corporation"
)

// CompanyProfile is the structured description of a company extracted from
// its website. Profiles are immutable once produced by the extractor; the
// Website field is always a normalized, scheme-prefixed absolute URL.
type CompanyProfile struct {
	Name           string   `json:"name" yaml:"name"`
	Description    string   `json:"description" yaml:"description"`
	Industry       string   `json:"industry" yaml:"industry"`
	Size           string   `json:"size" yaml:"size"`
	Location       string   `json:"location" yaml:"location"`
	Specialties    []string `json:"specialties" yaml:"specialties"`
	Services       []string `json:"services" yaml:"services"`
	Website        string   `json:"website" yaml:"website"`
	Founded        string   `json:"founded,omitempty" yaml:"founded,omitempty"`
	Mission        string   `json:"mission,omitempty" yaml:"mission,omitempty"`
	KeyPeople      []string `json:"key_people,omitempty" yaml:"key_people,omitempty"`
	Goals          string   `json:"goals,omitempty" yaml:"goals,omitempty"`
	Stage          Stage    `json:"stage,omitempty" yaml:"stage,omitempty"`
	BudgetEstimate string   `json:"budget_estimate,omitempty" yaml:"budget_estimate,omitempty"`
}

// SearchResult is one candidate website returned by a company-name search.
// Within a single search response there is at most one result per domain.
type SearchResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Domain  string `json:"domain"`
}
