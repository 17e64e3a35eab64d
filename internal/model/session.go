package model

import "time"

// Phase identifies one step of the six-stage matching workflow. Phases are
// strictly ordered; a session's CurrentPhase records the next actionable
// step, not the last completed one.
type Phase int

const (
	PhaseLeadNamed Phase = iota + 1 // lead company named
	PhaseSearch                     // URL search pending
	PhaseSelect                     // URL selection pending
	PhaseScrape                     // scrape pending
	PhaseCompare                    // comparison pending
	PhaseComplete                   // report produced
)

// String returns the phase label used in logs and API payloads.
func (p Phase) String() string {
	switch p {
	case PhaseLeadNamed:
		return "lead_named"
	case PhaseSearch:
		return "search"
	case PhaseSelect:
		return "select"
	case PhaseScrape:
		return "scrape"
	case PhaseCompare:
		return "compare"
	case PhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// WorkflowSession holds the per-caller working data of one matching
// workflow. It is created empty at phase 1; each successful phase stores its
// output and advances the phase. A failed phase leaves the session untouched
// so the step can be retried with the same inputs.
type WorkflowSession struct {
	ID               string            `json:"id"`
	CurrentPhase     Phase             `json:"current_phase"`
	LeadName         string            `json:"lead_name,omitempty"`
	SearchResults    []SearchResult    `json:"search_results,omitempty"`
	SelectedURL      string            `json:"selected_url,omitempty"`
	LeadCompany      *CompanyProfile   `json:"lead_company,omitempty"`
	ComparisonReport *ComparisonReport `json:"comparison_report,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}
