package presets

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// Store keeps user presets in a TOML file next to the built-in ones.
type Store struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

type presetFile struct {
	Presets []Preset `toml:"preset"`
}

// NewStore returns a store backed by path. The file is created on the first
// Create.
func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

func (s *Store) read() ([]Preset, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var f presetFile
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return f.Presets, nil
}

func (s *Store) write(list []Preset) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(presetFile{Presets: list}); err != nil {
		return fmt.Errorf("encode presets: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// User returns the saved presets in creation order.
func (s *Store) User() ([]Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// List returns the built-in presets followed by the user's.
func (s *Store) List() ([]Preset, error) {
	user, err := s.User()
	if err != nil {
		return Builtin(), err
	}
	return append(Builtin(), user...), nil
}

// Get finds a preset by ID among both sets.
func (s *Store) Get(id string) (Preset, error) {
	list, err := s.List()
	if err != nil {
		return Preset{}, err
	}
	p, err := Find(list, id)
	if err != nil {
		return Preset{}, fmt.Errorf("%w: %s", err, id)
	}
	return p, nil
}

// Create saves p as a new user preset and returns it with its ID and
// creation time filled in.
func (s *Store) Create(p Preset) (Preset, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return Preset{}, errors.New("preset name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.read()
	if err != nil {
		return Preset{}, err
	}

	now := s.now()
	p.ID = "user_" + strconv.FormatInt(now.UnixMilli(), 10)
	for _, q := range list {
		if q.ID == p.ID {
			p.ID += "_" + strconv.Itoa(len(list))
			break
		}
	}
	p.CreatedAt = now.UTC().Truncate(time.Millisecond)
	p.Builtin = false

	if err := s.write(append(list, p)); err != nil {
		return Preset{}, err
	}
	return p, nil
}

// Delete removes a user preset.
func (s *Store) Delete(id string) error {
	if _, err := Find(Builtin(), id); err == nil {
		return fmt.Errorf("%w: %s", ErrBuiltin, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.read()
	if err != nil {
		return err
	}
	out := list[:0]
	for _, p := range list {
		if p.ID != id {
			out = append(out, p)
		}
	}
	if len(out) == len(list) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.write(out)
}
