// Package store persists extracted company profiles. The default backend is
// a flat JSON file; a sqlite backend is available for heavier use.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/leadmatch/leadmatch/internal/model"
)

// ErrNotFound is returned when no profile exists for the requested website.
var ErrNotFound = eris.New("store: profile not found")

// StoredProfile is a persisted profile with its record timestamp.
type StoredProfile struct {
	model.CompanyProfile `yaml:",inline"`
	AddedAt              time.Time `json:"added_at" yaml:"added_at"`
}

// Store defines profile persistence. Profiles are keyed by website URL and
// first-write-wins: saving an already-stored website is a no-op.
type Store interface {
	SaveProfile(ctx context.Context, profile model.CompanyProfile) error
	GetProfile(ctx context.Context, website string) (*StoredProfile, error)
	ListProfiles(ctx context.Context) ([]StoredProfile, error)
	Close() error
}
