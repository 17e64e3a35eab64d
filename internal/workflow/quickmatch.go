package workflow

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/leadmatch/leadmatch/internal/model"
)

// QuickMatch scrapes two URLs, extracts both profiles, and compares them,
// bypassing the phase machine. The two scrape-extract lookups run
// concurrently; within each lookup the calls stay sequential.
func (c *Controller) QuickMatch(ctx context.Context, userURL, leadURL string) (*model.ComparisonReport, error) {
	var user, lead *model.CompanyProfile

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := c.scrapeProfile(gctx, userURL)
		user = p
		return err
	})
	g.Go(func() error {
		p, err := c.scrapeProfile(gctx, leadURL)
		lead = p
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := c.comparer.Compare(ctx, *user, *lead)

	if c.sink != nil {
		path, err := c.sink.Save(report)
		if err != nil {
			zap.L().Warn("workflow: report save failed", zap.Error(err))
		} else {
			report.SavedTo = path
		}
	}
	return report, nil
}

// scrapeProfile runs the fetch-then-extract pair for one URL and persists
// the result when a profile store is configured.
func (c *Controller) scrapeProfile(ctx context.Context, url string) (*model.CompanyProfile, error) {
	text, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	profile, err := c.extractor.Extract(ctx, url, text)
	if err != nil {
		return nil, err
	}
	if c.profiles != nil {
		if saveErr := c.profiles.SaveProfile(ctx, *profile); saveErr != nil {
			zap.L().Warn("workflow: profile persistence failed", zap.Error(saveErr))
		}
	}
	return profile, nil
}
