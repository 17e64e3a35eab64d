package main

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/leadmatch/leadmatch/internal/compare"
	"github.com/leadmatch/leadmatch/internal/extract"
	"github.com/leadmatch/leadmatch/internal/fetch"
	"github.com/leadmatch/leadmatch/internal/llm"
	"github.com/leadmatch/leadmatch/internal/report"
	"github.com/leadmatch/leadmatch/internal/search"
	"github.com/leadmatch/leadmatch/internal/store"
	"github.com/leadmatch/leadmatch/internal/workflow"
	"github.com/leadmatch/leadmatch/pkg/anthropic"
	"github.com/leadmatch/leadmatch/pkg/jina"
	"github.com/leadmatch/leadmatch/pkg/openrouter"
)

// workflowEnv bundles the wired collaborators for a command run.
type workflowEnv struct {
	Controller *workflow.Controller
	Search     *search.Engine
	Store      store.Store
}

// Close releases resources held by the environment.
func (e *workflowEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initWorkflow builds the full collaborator graph from config: LLM backend,
// Jina search provider, fetch chain, profile store, report writer, and the
// phase controller on top.
func initWorkflow() (*workflowEnv, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	completer, err := newCompleter()
	if err != nil {
		return nil, err
	}

	jn := jina.NewClient(cfg.Jina.Key,
		jina.WithBaseURL(cfg.Jina.BaseURL),
		jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL),
	)

	fetchers := []fetch.Fetcher{
		fetch.NewLocalFetcher(
			fetch.WithTimeout(time.Duration(cfg.Fetch.TimeoutSecs)*time.Second),
			fetch.WithRateLimit(cfg.Fetch.RatePerSec, cfg.Fetch.RateBurst),
		),
	}
	if cfg.Fetch.JinaFallback {
		fetchers = append(fetchers, fetch.NewJinaFetcher(jn))
	}
	chain := fetch.NewChain(fetchers...)

	st, err := newStore()
	if err != nil {
		return nil, err
	}

	engine := search.NewEngine(search.NewJinaProvider(jn), completer)
	extractor := extract.NewExtractor(completer)
	comparer := compare.NewEngine(completer)
	writer := report.NewWriter(cfg.Report.Dir, report.Format(cfg.Report.Format))

	ctrl := workflow.NewController(engine, chain, extractor, comparer, writer, st)

	return &workflowEnv{
		Controller: ctrl,
		Search:     engine,
		Store:      st,
	}, nil
}

// newCompleter selects the generative-text backend from config.
func newCompleter() (llm.Client, error) {
	switch cfg.LLM.Provider {
	case "anthropic":
		return llm.NewAnthropic(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model), nil
	case "openrouter", "":
		api := openrouter.NewClient(cfg.OpenRouter.Key,
			openrouter.WithBaseURL(cfg.OpenRouter.BaseURL),
			openrouter.WithModel(cfg.OpenRouter.Model),
			openrouter.WithReferer(cfg.OpenRouter.Referer, cfg.OpenRouter.Title),
		)
		return llm.NewOpenRouter(api, cfg.OpenRouter.Model), nil
	default:
		return nil, eris.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

// newStore selects the profile store backend from config.
func newStore() (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.Path)
	case "json", "":
		return store.NewJSON(cfg.Store.Path), nil
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
