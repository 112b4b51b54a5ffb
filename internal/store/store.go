// Package store persists per-session UI state as JSON values under opaque
// string keys. Reads never fail: a missing or undecodable value yields the
// caller's default.
package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"fairytale-chat/internal/db"
	"fairytale-chat/internal/logger"
)

// Keys persisted for each session
const (
	KeyPersona      = "ui.selectedBot"
	KeyCustomPrompt = "ui.customPrompt"
	KeyFlavors      = "cookie.flavors"
	KeyQty          = "cookie.qty"
	KeyMilk         = "cookie.milk"
	KeyTimeline     = "ui.conversationNodes"
	KeySentiment    = "ui.emotionalState"
	KeyMessages     = "chat.messages"
)

// Backend stores raw values by scope and key. *db.DB satisfies it.
type Backend interface {
	GetValue(scope, key string) (string, error)
	SetValue(scope, key, value string) error
}

// Store reads and writes JSON values for one scope
type Store interface {
	// Load decodes the value under key into dst and reports whether it did.
	// dst is left untouched when the key is missing or corrupt.
	Load(key string, dst any) bool
	Save(key string, value any) error
}

// Scoped is a Store bound to one scope of a Backend
type Scoped struct {
	backend Backend
	scope   string
	log     *log.Logger
}

// New returns a Store for scope
func New(backend Backend, scope string) *Scoped {
	return &Scoped{
		backend: backend,
		scope:   scope,
		log:     logger.With("Store"),
	}
}

// Load implements Store
func (s *Scoped) Load(key string, dst any) bool {
	raw, err := s.backend.GetValue(s.scope, key)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			s.log.Warn("Load failed", "scope", s.scope, "key", key, "err", err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.log.Debug("Ignoring corrupt value", "scope", s.scope, "key", key, "err", err)
		return false
	}
	return true
}

// Save implements Store
func (s *Scoped) Save(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.backend.SetValue(s.scope, key, string(data)); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Get loads the value under key, returning def when it is missing or corrupt
func Get[T any](s Store, key string, def T) T {
	var v T
	if !s.Load(key, &v) {
		return def
	}
	return v
}
