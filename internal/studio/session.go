package studio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"home-rugs-studio/internal/kv"
	"home-rugs-studio/internal/presets"
	"home-rugs-studio/internal/room"
)

var (
	ErrBusy            = errors.New("a generation is already running")
	ErrNoCredential    = errors.New("no usable credential")
	ErrNoImageSelected = errors.New("no image selected")
	ErrImageNotFound   = errors.New("image not found")
	ErrEmptyEdit       = errors.New("edit instruction is empty")
	ErrPresetNotFound  = errors.New("preset not found")
)

// Generator produces one image for a request. Failures caused by the API
// key wrap room.ErrCredentialInvalid.
type Generator interface {
	Generate(ctx context.Context, req room.Request) (room.Image, error)
}

type Credentials interface {
	HasCredential(ctx context.Context) (bool, error)
	SelectCredential(ctx context.Context, key string) error
}

type Options struct {
	Generator    Generator
	Credentials  Credentials
	Presets      *presets.Store
	Config       room.Config
	HistoryLimit int
	Logger       *slog.Logger
	Now          func() time.Time
	NewID        func() string
}

// Session is the single writer of State. Every mutation goes through Reduce
// while holding mu, and subscribers see the result in order.
type Session struct {
	gen     Generator
	creds   Credentials
	presets *presets.Store
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string

	mu    sync.Mutex
	state State
	subs  map[chan State]struct{}
}

func New(opts Options) *Session {
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
	store := opts.Presets
	if store == nil {
		store = presets.New(context.Background(), kv.NewMemoryStore(), presets.Options{Logger: logger})
	}
	cfg := opts.Config
	if cfg.AspectRatio == "" {
		cfg = room.Default()
	}

	return &Session{
		gen:     opts.Generator,
		creds:   opts.Credentials,
		presets: store,
		logger:  logger,
		now:     now,
		newID:   newID,
		state:   InitialState(cfg, opts.HistoryLimit),
		subs:    make(map[chan State]struct{}),
	}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel that always holds the latest state. Slow
// readers skip intermediate states. Call the returned func to unsubscribe.
func (s *Session) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, ch)
			s.mu.Unlock()
		})
	}
}

func (s *Session) dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatchLocked(a)
}

func (s *Session) dispatchLocked(a Action) State {
	s.state = Reduce(s.state, a)
	snap := s.snapshotLocked()
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return snap
}

func (s *Session) snapshotLocked() State {
	out := s.state
	out.History = append([]room.GeneratedImage{}, s.state.History...)
	return out
}

// CheckCredential asks the credential collaborator whether a key is usable.
func (s *Session) CheckCredential(ctx context.Context) State {
	s.dispatch(CredentialCheckStarted{})
	return s.recheckCredential(ctx)
}

// SelectCredential hands key to the credential collaborator and then checks
// again. Any failure on the way leaves the session in no-credential.
func (s *Session) SelectCredential(ctx context.Context, key string) error {
	s.mu.Lock()
	if s.state.Status == StatusGenerating {
		s.mu.Unlock()
		return ErrBusy
	}
	s.dispatchLocked(CredentialSelectionStarted{})
	s.mu.Unlock()

	if s.creds == nil {
		s.dispatch(CredentialChecked{Present: false})
		return ErrNoCredential
	}
	if err := s.creds.SelectCredential(ctx, key); err != nil {
		s.logger.Warn("credential selection failed", "err", err)
		s.dispatch(CredentialChecked{Present: false})
		return err
	}
	if st := s.recheckCredential(ctx); st.Status != StatusReady {
		return ErrNoCredential
	}
	return nil
}

func (s *Session) recheckCredential(ctx context.Context) State {
	present := false
	if s.creds != nil {
		ok, err := s.creds.HasCredential(ctx)
		if err != nil {
			s.logger.Warn("credential check failed", "err", err)
		}
		present = ok && err == nil
	}
	return s.dispatch(CredentialChecked{Present: present})
}

// UpdateConfig replaces the config with fn's result. An error from fn
// leaves the state untouched.
func (s *Session) UpdateConfig(fn func(room.Config) (room.Config, error)) (room.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.state.Config)
	if err != nil {
		return s.state.Config, err
	}
	return s.dispatchLocked(ConfigChanged{Config: next}).Config, nil
}

// AttachRugImages adds images up to the rug image limit; extras are dropped.
func (s *Session) AttachRugImages(images []room.Image) room.Config {
	cfg, _ := s.UpdateConfig(func(c room.Config) (room.Config, error) {
		return c.AddRugImages(images), nil
	})
	return cfg
}

func (s *Session) RemoveRugImage(idx int) (room.Config, error) {
	return s.UpdateConfig(func(c room.Config) (room.Config, error) {
		return c.RemoveRugImage(idx)
	})
}

func (s *Session) SetRoomReference(img *room.Image) room.Config {
	cfg, _ := s.UpdateConfig(func(c room.Config) (room.Config, error) {
		return c.WithRoomReference(img), nil
	})
	return cfg
}

func (s *Session) StartEdit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.Find(id); !ok {
		return fmt.Errorf("%w: %s", ErrImageNotFound, id)
	}
	s.dispatchLocked(EditStarted{ID: id})
	return nil
}

func (s *Session) SetEditPrompt(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Editing {
		return ErrNoImageSelected
	}
	s.dispatchLocked(EditPromptChanged{Text: text})
	return nil
}

func (s *Session) CancelEdit() {
	s.dispatch(EditCancelled{})
}

func (s *Session) SelectImage(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.Find(id); !ok {
		return fmt.Errorf("%w: %s", ErrImageNotFound, id)
	}
	s.dispatchLocked(ImageSelected{ID: id})
	return nil
}

func (s *Session) ClearCurrent() {
	s.dispatch(CurrentCleared{})
}

func (s *Session) DismissAlert() {
	s.dispatch(AlertDismissed{})
}

func (s *Session) Image(id string) (room.GeneratedImage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Find(id)
}

func (s *Session) Presets() []presets.Preset {
	return s.presets.List()
}

// SavePreset stores the current config, without images, under name.
func (s *Session) SavePreset(ctx context.Context, name string) (presets.Preset, error) {
	cfg := s.Snapshot().Config
	return s.presets.Save(ctx, name, cfg)
}

func (s *Session) DeletePreset(ctx context.Context, id string) {
	s.presets.Delete(ctx, id)
}

// LoadPreset applies a preset's parameters while keeping the images the
// user has already attached.
func (s *Session) LoadPreset(id string) (room.Config, error) {
	return s.UpdateConfig(func(c room.Config) (room.Config, error) {
		next, ok := s.presets.Load(id, c)
		if !ok {
			return c, fmt.Errorf("%w: %s", ErrPresetNotFound, id)
		}
		return next, nil
	})
}

// pending is a generation that has been admitted and marked in the state.
type pending struct {
	cfg     room.Config
	request room.Request
	kind    string
}

// admitLocked moves the session into generating. It must run under mu so
// that at most one request is ever admitted.
func (s *Session) admitLocked(cfg room.Config, edit string, source *room.GeneratedImage, kind string) (pending, error) {
	switch s.state.Status {
	case StatusReady:
	case StatusNoCredential, StatusCheckingCredential:
		return pending{}, ErrNoCredential
	default:
		return pending{}, ErrBusy
	}
	if s.gen == nil {
		return pending{}, errors.New("no generator configured")
	}

	req := room.BuildPrompt(cfg, edit, source)
	s.dispatchLocked(GenerationStarted{})
	return pending{cfg: cfg, request: req, kind: kind}, nil
}

func (s *Session) run(ctx context.Context, p pending) (room.GeneratedImage, error) {
	start := s.now()
	img, err := s.gen.Generate(ctx, p.request)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		credentialInvalid := errors.Is(err, room.ErrCredentialInvalid)
		s.logger.Warn("generation failed", "kind", p.kind, "credential_invalid", credentialInvalid, "err", err)
		s.dispatchLocked(GenerationFailed{Message: err.Error(), CredentialInvalid: credentialInvalid})
		if !credentialInvalid {
			s.dispatchLocked(FailureSurfaced{})
		}
		return room.GeneratedImage{}, err
	}

	generated := room.GeneratedImage{
		ID:        s.newID(),
		URL:       img.DataURL(),
		CreatedAt: s.now(),
		Config:    p.cfg,
		Data:      img.Data,
		MimeType:  img.MimeType,
	}
	s.dispatchLocked(GenerationSucceeded{Image: generated})
	s.logger.Info("generation finished",
		"kind", p.kind,
		"id", generated.ID,
		"aspect_ratio", p.cfg.AspectRatio,
		"dur_ms", s.now().Sub(start).Milliseconds(),
	)
	return generated, nil
}

// spawn runs p in the background. The request outlives the caller's
// context, matching a user-initiated action that has no cancel control.
func (s *Session) spawn(ctx context.Context, p pending) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		_, _ = s.run(ctx, p)
	}()
}

func (s *Session) prepareGenerate() (pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.admitLocked(s.state.Config, "", nil, "generate")
}

func (s *Session) prepareEdit() (pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	source, ok := s.state.Current()
	if !s.state.Editing || !ok {
		return pending{}, ErrNoImageSelected
	}
	edit := strings.TrimSpace(s.state.EditPrompt)
	if edit == "" {
		return pending{}, ErrEmptyEdit
	}
	return s.admitLocked(source.Config, edit, &source, "edit")
}

func (s *Session) prepareResize(id string, ratio room.AspectRatio) (pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, ok := s.state.Find(id)
	if !ok {
		return pending{}, fmt.Errorf("%w: %s", ErrImageNotFound, id)
	}
	cfg, err := img.Config.WithAspectRatio(ratio)
	if err != nil {
		return pending{}, err
	}
	return s.admitLocked(cfg, "", nil, "resize")
}

// Generate builds a request from the current config and waits for the
// result. It returns ErrBusy without contacting the provider when another
// generation is running.
func (s *Session) Generate(ctx context.Context) (room.GeneratedImage, error) {
	p, err := s.prepareGenerate()
	if err != nil {
		return room.GeneratedImage{}, err
	}
	return s.run(ctx, p)
}

// SubmitEdit regenerates the current image with the edit instruction.
func (s *Session) SubmitEdit(ctx context.Context) (room.GeneratedImage, error) {
	p, err := s.prepareEdit()
	if err != nil {
		return room.GeneratedImage{}, err
	}
	return s.run(ctx, p)
}

// Resize regenerates image id's config at another aspect ratio.
func (s *Session) Resize(ctx context.Context, id string, ratio room.AspectRatio) (room.GeneratedImage, error) {
	p, err := s.prepareResize(id, ratio)
	if err != nil {
		return room.GeneratedImage{}, err
	}
	return s.run(ctx, p)
}

// Trigger is the asynchronous form of Generate. Admission errors are
// returned synchronously; the outcome arrives through Subscribe.
func (s *Session) Trigger(ctx context.Context) error {
	p, err := s.prepareGenerate()
	if err != nil {
		return err
	}
	s.spawn(ctx, p)
	return nil
}

func (s *Session) TriggerEdit(ctx context.Context) error {
	p, err := s.prepareEdit()
	if err != nil {
		return err
	}
	s.spawn(ctx, p)
	return nil
}

func (s *Session) TriggerResize(ctx context.Context, id string, ratio room.AspectRatio) error {
	p, err := s.prepareResize(id, ratio)
	if err != nil {
		return err
	}
	s.spawn(ctx, p)
	return nil
}
