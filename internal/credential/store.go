package credential

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

var (
	ErrEmptyKey = errors.New("credential: key is empty")
	// ErrRejected means the verifier did not accept the key.
	ErrRejected = errors.New("credential: key rejected")
)

// Verifier checks that a key is accepted by the provider.
type Verifier interface {
	Verify(ctx context.Context, key string) error
}

type Options struct {
	// EnvKey is the key supplied by the environment, if any.
	EnvKey   string
	Verifier Verifier
	Logger   *slog.Logger
}

// Store holds the API key used for generation. A key selected at runtime
// takes precedence over the environment key.
type Store struct {
	mu       sync.RWMutex
	envKey   string
	selected string
	verifier Verifier
	logger   *slog.Logger
}

func New(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{
		envKey:   strings.TrimSpace(opts.EnvKey),
		verifier: opts.Verifier,
		logger:   logger,
	}
}

// APIKey returns the active key or "" when none is configured.
func (s *Store) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected != "" {
		return s.selected
	}
	return s.envKey
}

// HasCredential reports whether a usable key is present. Without a Verifier
// presence is enough.
func (s *Store) HasCredential(ctx context.Context) (bool, error) {
	key := s.APIKey()
	if key == "" {
		return false, nil
	}
	if s.verifier == nil {
		return true, nil
	}
	if err := s.verifier.Verify(ctx, key); err != nil {
		s.logger.Warn("credential verification failed", "err", err)
		return false, nil
	}
	return true, nil
}

// SelectCredential stores key as the active credential.
func (s *Store) SelectCredential(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	if s.verifier != nil {
		if err := s.verifier.Verify(ctx, key); err != nil {
			return fmt.Errorf("%w: %w", ErrRejected, err)
		}
	}

	s.mu.Lock()
	s.selected = key
	s.mu.Unlock()

	s.logger.Info("credential selected")
	return nil
}
