// Package store persists wallet cards, app settings and the inbox list in a
// string-keyed blob store. Reads never fail: missing or malformed blobs fall
// back to their default shape.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/AlexZinkM/card-wallet/internal/blobstore"
	"github.com/AlexZinkM/card-wallet/internal/model"
	"go.uber.org/zap"
)

// Blob keys.
const (
	KeyState    = "walletState"
	KeySettings = "walletSettings"
	KeyInbox    = "walletInboxSessions"
)

var (
	ErrCardNotFound = errors.New("card not found")
	ErrEmptySeed    = errors.New("seed contains no cards")
)

// Store owns the wallet state and settings. Every mutation is written
// through to the blob store before the call returns.
type Store struct {
	blobs blobstore.Store
	log   *zap.Logger
	now   func() time.Time

	mu       sync.Mutex
	state    model.WalletState
	settings model.Settings
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) { s.log = log }
}

// New loads state and settings from blobs.
func New(blobs blobstore.Store, opts ...Option) *Store {
	s := &Store{blobs: blobs, log: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("store")
	s.state = s.loadState()
	s.settings = s.loadSettings()
	return s
}

func (s *Store) read(key string) (string, bool) {
	raw, ok, err := s.blobs.Get(key)
	if err != nil {
		s.log.Warn("failed to read blob", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return raw, ok && raw != ""
}

func (s *Store) write(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.blobs.Set(key, string(raw)); err != nil {
		s.log.Warn("failed to write blob", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *Store) loadState() model.WalletState {
	raw, ok := s.read(KeyState)
	if !ok {
		return model.WalletState{Cards: []model.Card{}}
	}
	var st model.WalletState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		s.log.Debug("malformed wallet state, starting empty", zap.Error(err))
		return model.WalletState{Cards: []model.Card{}}
	}
	if st.Cards == nil {
		st.Cards = []model.Card{}
	}
	return st
}

func (s *Store) loadSettings() model.Settings {
	raw, ok := s.read(KeySettings)
	if !ok {
		return model.Settings{}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil || m == nil {
		return model.Settings{}
	}
	out := model.Settings{AdvancedSeedOptions: true}
	if v, ok := m["hideSeedPrompt"].(bool); ok {
		out.HideSeedPrompt = v
	}
	if v, ok := m["advancedSeedOptions"].(bool); ok {
		out.AdvancedSeedOptions = v
	}
	return out
}

// saveState persists the wallet state. Caller holds mu.
func (s *Store) saveState() error {
	return s.write(KeyState, s.state)
}

// saveSettings persists the settings. Caller holds mu.
func (s *Store) saveSettings() error {
	return s.write(KeySettings, s.settings)
}

// Settings returns the current settings.
func (s *Store) Settings() model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// SkipSeed hides the seed prompt for good.
func (s *Store) SkipSeed() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.HideSeedPrompt = true
	s.settings.AdvancedSeedOptions = true
	return s.saveSettings()
}

// LoadInbox reads the persisted inbox list. Entries without an id are dropped.
func (s *Store) LoadInbox() []model.InboxEntry {
	raw, ok := s.read(KeyInbox)
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.log.Debug("malformed inbox, starting empty", zap.Error(err))
		return nil
	}

	now := model.NewTimestamp(s.now())
	out := make([]model.InboxEntry, 0, len(items))
	for _, item := range items {
		var m map[string]any
		if err := json.Unmarshal(item, &m); err != nil || m == nil {
			continue
		}
		if e, ok := inboxEntryFromMap(m, now); ok {
			out = append(out, e)
		}
	}
	return out
}

// SaveInbox persists the inbox list.
func (s *Store) SaveInbox(entries []model.InboxEntry) error {
	if entries == nil {
		entries = []model.InboxEntry{}
	}
	return s.write(KeyInbox, entries)
}

func inboxEntryFromMap(m map[string]any, now model.Timestamp) (model.InboxEntry, bool) {
	id := strings.TrimSpace(text(m["id"]))
	if id == "" {
		return model.InboxEntry{}, false
	}
	e := model.InboxEntry{
		ID:          id,
		Intent:      text(m["intent"]),
		Type:        text(m["type"]),
		Source:      text(m["source"]),
		Title:       text(m["title"]),
		ScenarioID:  text(m["scenarioId"]),
		Issuer:      text(m["issuer"]),
		AddedAt:     timestamp(m["addedAt"]),
		UpdatedAt:   timestamp(m["updatedAt"]),
		CompletedAt: timestamp(m["completedAt"]),
		ExpiredAt:   timestamp(m["expiredAt"]),
		Unread:      true,
	}
	if e.Source == "" {
		e.Source = "deeplink"
	}
	if e.AddedAt.IsZero() {
		e.AddedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = now
	}
	if v, ok := m["unread"]; ok {
		b, isBool := v.(bool)
		e.Unread = isBool && b
	}
	if si, ok := m["statusInfo"].(map[string]any); ok {
		info := &model.StatusInfo{
			Code:        text(si["code"]),
			Label:       text(si["label"]),
			Description: text(si["description"]),
		}
		if info.Code != "" {
			e.StatusInfo = info
		}
	}
	return e, true
}

func text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func timestamp(v any) model.Timestamp {
	switch t := v.(type) {
	case float64:
		return model.Timestamp(int64(t))
	case string:
		return model.ParseTimestamp(t)
	}
	return 0
}
