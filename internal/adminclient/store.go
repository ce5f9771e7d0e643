package adminclient

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vedx/vedx-site/internal/domain"
)

// State is everything the client persists. The reset fields live only while the
// wizard is in progress; the session fields survive until logout or reset.
type State struct {
	ResetEmail string `yaml:"adminResetEmail,omitempty"`
	ResetOTP   string `yaml:"adminResetOtp,omitempty"`

	Token         string               `yaml:"adminToken,omitempty"`
	SessionExpiry time.Time            `yaml:"adminSessionExpiry,omitempty"`
	Profile       *domain.AdminProfile `yaml:"adminProfile,omitempty"`
}

type SessionStore interface {
	Load() (*State, error)
	Save(s *State) error
}

type MemoryStore struct {
	mu    sync.Mutex
	state State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	return &s, nil
}

func (m *MemoryStore) Save(s *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = *s
	return nil
}

// FileStore keeps State as YAML. A missing file is an empty state.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultStatePath()
	}
	return &FileStore{Path: path}
}

func DefaultStatePath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".vedx", "admin.yaml")
}

func (f *FileStore) Load() (*State, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &State{}, nil
		}
		return nil, err
	}

	var s State
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (f *FileStore) Save(s *State) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.Path)
}
