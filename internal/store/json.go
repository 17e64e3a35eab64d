package store

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/leadmatch/leadmatch/internal/model"
)

// JSONStore keeps profiles in a single flat JSON file. Suited to the small
// volumes one interactive workflow produces.
type JSONStore struct {
	mu   sync.Mutex
	path string
}

// jsonData is the on-disk document shape.
type jsonData struct {
	Companies []StoredProfile `json:"companies"`
}

// NewJSON creates a JSONStore at the given path. The file is created lazily
// on the first write.
func NewJSON(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) load() (*jsonData, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &jsonData{}, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: read json file")
	}
	var data jsonData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, eris.Wrap(err, "store: parse json file")
	}
	return &data, nil
}

func (s *JSONStore) save(data *jsonData) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return eris.Wrap(err, "store: encode json file")
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return eris.Wrap(err, "store: write json file")
	}
	return nil
}

// SaveProfile appends the profile unless its website is already stored.
func (s *JSONStore) SaveProfile(_ context.Context, profile model.CompanyProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}
	for _, existing := range data.Companies {
		if existing.Website == profile.Website {
			return nil
		}
	}
	data.Companies = append(data.Companies, StoredProfile{
		CompanyProfile: profile,
		AddedAt:        time.Now(),
	})
	return s.save(data)
}

// GetProfile returns the stored profile for a website.
func (s *JSONStore) GetProfile(_ context.Context, website string) (*StoredProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range data.Companies {
		if data.Companies[i].Website == website {
			return &data.Companies[i], nil
		}
	}
	return nil, ErrNotFound
}

// ListProfiles returns all stored profiles in insertion order.
func (s *JSONStore) ListProfiles(_ context.Context) ([]StoredProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return nil, err
	}
	return data.Companies, nil
}

// Close is a no-op: every operation opens and closes the file itself.
func (s *JSONStore) Close() error { return nil }
