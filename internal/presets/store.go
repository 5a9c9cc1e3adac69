// Package presets keeps named, image-free snapshots of room configurations.
// The whole collection is serialized under a single key and rewritten on
// every change.
package presets

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"home-rugs-studio/internal/kv"
	"home-rugs-studio/internal/room"
)

const DefaultKey = "room_presets"

var ErrEmptyName = errors.New("preset name is empty")

type Preset struct {
	ID        string      `json:"id" yaml:"id"`
	Name      string      `json:"name" yaml:"name"`
	CreatedAt time.Time   `json:"timestamp" yaml:"timestamp"`
	Config    room.Config `json:"config" yaml:"config"`
}

type Options struct {
	Key    string
	Logger *slog.Logger
	Now    func() time.Time
	NewID  func() string
}

type Store struct {
	mu      sync.Mutex
	kv      kv.Store
	key     string
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
	presets []Preset
}

// New loads the stored collection. A missing, unreadable or corrupt value
// yields an empty set; the failure is only logged.
func New(ctx context.Context, store kv.Store, opts Options) *Store {
	key := opts.Key
	if key == "" {
		key = DefaultKey
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	s := &Store{
		kv:     store,
		key:    key,
		logger: logger,
		now:    now,
		newID:  newID,
	}
	s.presets = s.load(ctx)
	return s
}

func (s *Store) List() []Preset {
	s.mu.Lock()
	defer s.mu.Unlock()

	return clonePresets(s.presets)
}

func (s *Store) Get(id string) (Preset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.presets {
		if p.ID == id {
			return clonePreset(p), true
		}
	}
	return Preset{}, false
}

func (s *Store) Save(ctx context.Context, name string, cfg room.Config) (Preset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Preset{}, ErrEmptyName
	}

	p := Preset{
		ID:        s.newID(),
		Name:      name,
		CreatedAt: s.now(),
		Config:    cfg.WithoutImages(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(clonePresets(s.presets), p)
	s.presets = next
	s.persistLocked(ctx)
	return clonePreset(p), nil
}

// Delete removes the preset with id. Unknown ids are ignored.
func (s *Store) Delete(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Preset, 0, len(s.presets))
	for _, p := range s.presets {
		if p.ID != id {
			next = append(next, p)
		}
	}
	if len(next) == len(s.presets) {
		return
	}
	s.presets = next
	s.persistLocked(ctx)
}

// Load returns the preset's parameters combined with the image fields of
// current.
func (s *Store) Load(id string, current room.Config) (room.Config, bool) {
	p, ok := s.Get(id)
	if !ok {
		return current, false
	}
	return Apply(p, current), true
}

func Apply(p Preset, current room.Config) room.Config {
	return p.Config.WithImagesFrom(current)
}

func (s *Store) load(ctx context.Context) []Preset {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.logger.Error("presets read failed", "key", s.key, "err", err)
		return nil
	}

	var stored []Preset
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		s.logger.Error("presets decode failed", "key", s.key, "err", err)
		return nil
	}
	for i := range stored {
		stored[i].Config = stored[i].Config.WithoutImages()
	}
	return stored
}

func (s *Store) persistLocked(ctx context.Context) {
	out := s.presets
	if out == nil {
		out = []Preset{}
	}
	body, err := json.Marshal(out)
	if err != nil {
		s.logger.Error("presets encode failed", "err", err)
		return
	}
	if err := s.kv.Set(ctx, s.key, string(body)); err != nil {
		s.logger.Error("presets write failed", "key", s.key, "count", len(out), "err", err)
	}
}

func clonePresets(in []Preset) []Preset {
	out := make([]Preset, 0, len(in))
	for _, p := range in {
		out = append(out, clonePreset(p))
	}
	return out
}

func clonePreset(p Preset) Preset {
	p.Config = p.Config.WithoutImages()
	return p
}
