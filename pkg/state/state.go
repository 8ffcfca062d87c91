package state

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FileName is the state file kept next to fetched sources
const FileName = ".openblas-fetch.yaml"

// FetchState represents the saved state for a single fetched source tree
type FetchState struct {
	Version   string    `yaml:"version"`
	URL       string    `yaml:"url"`
	SHA256    string    `yaml:"sha256"`
	Path      string    `yaml:"path"`
	FetchedAt time.Time `yaml:"fetched_at"`
}

// State represents the persisted state file
type State struct {
	Fetches map[string]FetchState `yaml:"fetches"`

	path string
}

var (
	stateMu sync.Mutex
)

// GetStatePath returns the path to the state file of an output directory
func GetStatePath(dir string) string {
	return filepath.Join(dir, FileName)
}

// New returns an empty state bound to dir
func New(dir string) *State {
	return &State{
		Fetches: make(map[string]FetchState),
		path:    GetStatePath(dir),
	}
}

// Load reads the state of dir from disk, a missing file yields an empty state
func Load(dir string) (*State, error) {
	stateMu.Lock()
	defer stateMu.Unlock()

	s := New(dir)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, err
	}

	if s.Fetches == nil {
		s.Fetches = make(map[string]FetchState)
	}

	return s, nil
}

// Update loads the state of dir, applies fn and saves the result while
// holding a lock on the state file, so writers from other processes or
// goroutines are serialised. An unreadable state file is replaced.
func Update(ctx context.Context, dir string, fn func(*State)) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	lock := flock.New(GetStatePath(dir) + ".lock")

	locked, err := lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return errors.Wrap(err, "failed to acquire state lock")
	}
	if !locked {
		return errors.New("failed to acquire state lock")
	}
	defer lock.Unlock()

	s, err := Load(dir)
	if err != nil {
		s = New(dir)
	}

	fn(s)

	return s.Save()
}

// Save writes the state to disk
func (s *State) Save() error {
	stateMu.Lock()
	defer stateMu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, FileName+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), s.path)
}

// GetFetchState retrieves the saved state for a version
func (s *State) GetFetchState(version string) (FetchState, bool) {
	state, ok := s.Fetches[version]
	return state, ok
}

// SetFetchState saves the state for a version
func (s *State) SetFetchState(fetchState FetchState) {
	s.Fetches[fetchState.Version] = fetchState
}

// List returns all fetches ordered by version
func (s *State) List() []FetchState {
	out := make([]FetchState, 0, len(s.Fetches))
	for _, f := range s.Fetches {
		out = append(out, f)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Version < out[j].Version
	})

	return out
}
