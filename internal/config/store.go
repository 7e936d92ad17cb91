package config

import (
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// Store holds the live configuration behind an atomic pointer. Readers get a
// consistent immutable snapshot without locking; a hot reload swaps the
// pointer, it never mutates a published Config.
type Store struct {
	current atomic.Pointer[Config]
}

func NewStore(cfg *Config) *Store {
	s := &Store{}
	s.current.Store(cfg)
	return s
}

// Current returns the live configuration snapshot.
func (s *Store) Current() *Config {
	return s.current.Load()
}

// Reload loads a fresh configuration from dir and swaps it in. On failure the
// previous configuration stays live and the error is returned for the caller
// to report.
func (s *Store) Reload(dir string) error {
	cfg, err := Load(dir)
	if err != nil {
		return err
	}
	s.current.Store(cfg)
	log.Info().Int("version", cfg.Version).Msg("configuration reloaded")
	return nil
}
