// Package workflow drives the six-phase lead matching state machine and
// owns all per-session working data.
package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/leadmatch/leadmatch/internal/compare"
	"github.com/leadmatch/leadmatch/internal/extract"
	"github.com/leadmatch/leadmatch/internal/model"
	"github.com/leadmatch/leadmatch/internal/search"
)

// defaultMaxResults caps candidates returned by the search phase.
const defaultMaxResults = 5

// Fetcher retrieves the readable text of a URL.
type Fetcher interface {
	Fetch(ctx context.Context, targetURL string) (string, error)
}

// ReportSink persists a finished report and returns a storage locator.
type ReportSink interface {
	Save(report *model.ComparisonReport) (string, error)
}

// ProfileStore records extracted company profiles. Implementations must
// treat the profile's website URL as the identity key.
type ProfileStore interface {
	SaveProfile(ctx context.Context, profile model.CompanyProfile) error
}

// Controller coordinates search, fetch, extraction, and comparison across
// isolated per-session workflows. All session mutation goes through its
// methods; there are no ambient globals.
type Controller struct {
	mu       sync.RWMutex
	sessions map[string]*model.WorkflowSession

	search    *search.Engine
	fetcher   Fetcher
	extractor *extract.Extractor
	comparer  *compare.Engine
	sink      ReportSink
	profiles  ProfileStore // optional
}

// NewController wires the workflow over its collaborators. profiles may be
// nil to skip profile persistence.
func NewController(se *search.Engine, f Fetcher, ex *extract.Extractor, ce *compare.Engine, sink ReportSink, profiles ProfileStore) *Controller {
	return &Controller{
		sessions:  make(map[string]*model.WorkflowSession),
		search:    se,
		fetcher:   f,
		extractor: ex,
		comparer:  ce,
		sink:      sink,
		profiles:  profiles,
	}
}

// session returns the live session for id, creating it at phase 1 when
// absent. Callers must hold c.mu.
func (c *Controller) session(id string) *model.WorkflowSession {
	s, ok := c.sessions[id]
	if !ok {
		now := time.Now()
		s = &model.WorkflowSession{
			ID:           id,
			CurrentPhase: model.PhaseLeadNamed,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		c.sessions[id] = s
	}
	return s
}

// Snapshot returns a copy of the session state, creating the session if it
// does not exist yet.
func (c *Controller) Snapshot(id string) model.WorkflowSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.session(id)
}

// require checks the phase precondition without otherwise mutating the
// session.
func (c *Controller) require(id string, required model.Phase) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session(id)
	if s.CurrentPhase < required {
		return &PreconditionError{Required: required, Current: s.CurrentPhase}
	}
	return nil
}

// SetLead names the lead company and opens the search phase. Downstream
// fields are cleared: a renamed lead invalidates earlier results.
func (c *Controller) SetLead(id, name string) (model.Phase, error) {
	if name == "" {
		return 0, eris.New("workflow: lead name is required")
	}
	if err := c.require(id, model.PhaseLeadNamed); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session(id)
	s.LeadName = name
	s.SearchResults = nil
	s.SelectedURL = ""
	s.LeadCompany = nil
	s.ComparisonReport = nil
	s.CurrentPhase = model.PhaseSearch
	s.UpdatedAt = time.Now()
	return s.CurrentPhase, nil
}

// Search runs candidate discovery for the session's lead name and stores
// the results. Zero candidates is a successful outcome ("not found"), not a
// failure, so the phase still advances. Re-running the search invalidates
// everything downstream of it.
func (c *Controller) Search(ctx context.Context, id string) ([]model.SearchResult, error) {
	if err := c.require(id, model.PhaseSearch); err != nil {
		return nil, err
	}

	c.mu.RLock()
	leadName := c.sessions[id].LeadName
	c.mu.RUnlock()
	if leadName == "" {
		return nil, eris.New("workflow: no lead name set")
	}

	results := c.search.Find(ctx, leadName, defaultMaxResults)

	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session(id)
	s.SearchResults = results
	s.SelectedURL = ""
	s.LeadCompany = nil
	s.ComparisonReport = nil
	s.CurrentPhase = model.PhaseSelect
	s.UpdatedAt = time.Now()
	return results, nil
}

// Select records the caller's chosen candidate URL. A new selection drops
// any previously scraped profile and report.
func (c *Controller) Select(id, url string) (model.Phase, error) {
	if url == "" {
		return 0, eris.New("workflow: url selection is required")
	}
	if err := c.require(id, model.PhaseSelect); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session(id)
	s.SelectedURL = url
	s.LeadCompany = nil
	s.ComparisonReport = nil
	s.CurrentPhase = model.PhaseScrape
	s.UpdatedAt = time.Now()
	return s.CurrentPhase, nil
}

// Scrape fetches the selected URL and extracts the lead company profile.
// On failure the session keeps its prior phase so the step can be retried
// with the same inputs.
func (c *Controller) Scrape(ctx context.Context, id string) (*model.CompanyProfile, error) {
	if err := c.require(id, model.PhaseScrape); err != nil {
		return nil, err
	}

	c.mu.RLock()
	selected := c.sessions[id].SelectedURL
	c.mu.RUnlock()
	if selected == "" {
		return nil, eris.New("workflow: no url selected")
	}

	profile, err := c.scrapeProfile(ctx, selected)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session(id)
	s.LeadCompany = profile
	s.ComparisonReport = nil
	s.CurrentPhase = model.PhaseCompare
	s.UpdatedAt = time.Now()
	return profile, nil
}

// Compare produces the match report between the caller-supplied user
// profile and the scraped lead profile, persists it, and completes the
// workflow. The comparison itself never fails for AI errors; only a missing
// lead profile surfaces here, and a sink failure merely leaves SavedTo
// empty.
func (c *Controller) Compare(ctx context.Context, id string, user model.CompanyProfile) (*model.ComparisonReport, error) {
	if err := c.require(id, model.PhaseCompare); err != nil {
		return nil, err
	}

	c.mu.RLock()
	lead := c.sessions[id].LeadCompany
	c.mu.RUnlock()
	if lead == nil {
		return nil, eris.New("workflow: missing lead company data")
	}

	report := c.comparer.Compare(ctx, user, *lead)

	if c.sink != nil {
		path, err := c.sink.Save(report)
		if err != nil {
			zap.L().Warn("workflow: report save failed", zap.Error(err))
		} else {
			report.SavedTo = path
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session(id)
	s.ComparisonReport = report
	s.CurrentPhase = model.PhaseComplete
	s.UpdatedAt = time.Now()
	return report, nil
}

// Export re-saves the session's finished report through the sink and
// returns the new file path.
func (c *Controller) Export(id string) (string, error) {
	c.mu.RLock()
	var report *model.ComparisonReport
	if s, ok := c.sessions[id]; ok {
		report = s.ComparisonReport
	}
	c.mu.RUnlock()

	if report == nil {
		return "", eris.New("workflow: no report to export")
	}
	if c.sink == nil {
		return "", eris.New("workflow: no report sink configured")
	}

	path, err := c.sink.Save(report)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	report.SavedTo = path
	c.mu.Unlock()
	return path, nil
}

// Reset clears all session fields and returns to phase 1, from any state.
func (c *Controller) Reset(id string) model.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session(id)
	*s = model.WorkflowSession{
		ID:           id,
		CurrentPhase: model.PhaseLeadNamed,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    time.Now(),
	}
	return s.CurrentPhase
}
