package store

import (
	"maps"
	"strconv"
	"time"

	"github.com/AlexZinkM/card-wallet/internal/common"
	"github.com/AlexZinkM/card-wallet/internal/model"
	"github.com/google/uuid"
)

// DefaultIssuer is used for offers that do not name an issuer.
const DefaultIssuer = "Unknown"

func cloneCard(c model.Card) model.Card {
	c.Payload = maps.Clone(c.Payload)
	return c
}

// Cards returns a copy of the stored cards.
func (s *Store) Cards() []model.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Card, len(s.state.Cards))
	for i, c := range s.state.Cards {
		out[i] = cloneCard(c)
	}
	return out
}

// Card returns the card with id.
func (s *Store) Card(id string) (model.Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return cloneCard(s.state.Cards[i]), true
	}
	return model.Card{}, false
}

// indexOf returns the position of card id. Caller holds mu.
func (s *Store) indexOf(id string) int {
	id = common.NormalizeID(id)
	for i := range s.state.Cards {
		if s.state.Cards[i].ID == id {
			return i
		}
	}
	return -1
}

// uniqueID returns want, or want with a random suffix if it is taken.
// Caller holds mu.
func (s *Store) uniqueID(want string) string {
	if s.indexOf(want) < 0 {
		return want
	}
	return want + "-" + uuid.NewString()[:8]
}

// AddFromMeta stores a card built from an offer record. fallbackType is used
// when the record has no type.
func (s *Store) AddFromMeta(meta *model.SessionMeta, fallbackType string) (model.Card, error) {
	var m model.SessionMeta
	if meta != nil {
		m = *meta
	}
	t := m.Type
	if t == "" {
		t = fallbackType
	}
	issuer := m.Issuer
	if issuer == "" {
		issuer = DefaultIssuer
	}
	payload := maps.Clone(m.Payload)
	if payload == nil {
		payload = map[string]any{}
	}
	return s.Add(model.Card{Type: t, Issuer: issuer, Payload: payload})
}

// Add stores a new card. Type is canonicalized; a missing id becomes
// TYPE-<unix ms>; issue and expiry default to now and now + one year.
func (s *Store) Add(c model.Card) (model.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c.Type = common.CanonicalType(c.Type)
	if c.ID == "" {
		c.ID = c.Type + "-" + strconv.FormatInt(now.UnixMilli(), 10)
	}
	c.ID = s.uniqueID(c.ID)
	if c.IssuedAt.IsZero() {
		c.IssuedAt = model.NewTimestamp(now)
	}
	if c.ExpiresAt.IsZero() {
		c.ExpiresAt = model.NewTimestamp(now.Add(common.CardValidityTTL))
	}
	if c.Payload == nil {
		c.Payload = map[string]any{}
	}
	s.state.Cards = append(s.state.Cards, c)

	if !s.settings.AdvancedSeedOptions {
		s.settings.AdvancedSeedOptions = true
		if err := s.saveSettings(); err != nil {
			return cloneCard(c), err
		}
	}
	return cloneCard(c), s.saveState()
}

// Remove deletes a card. Removing the last card hides the seed prompt.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return ErrCardNotFound
	}
	s.state.Cards = append(s.state.Cards[:i], s.state.Cards[i+1:]...)
	if len(s.state.Cards) == 0 {
		s.settings.HideSeedPrompt = true
		if err := s.saveSettings(); err != nil {
			return err
		}
	}
	return s.saveState()
}

// Renew resets the issue date to now and the expiry to one year later.
func (s *Store) Renew(id string) (model.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return model.Card{}, ErrCardNotFound
	}
	now := s.now()
	c := &s.state.Cards[i]
	c.IssuedAt = model.NewTimestamp(now)
	c.ExpiresAt = model.NewTimestamp(now.Add(common.CardValidityTTL))
	return cloneCard(*c), s.saveState()
}

// ToggleExpanded flips the expanded flag of a card.
func (s *Store) ToggleExpanded(id string) (model.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return model.Card{}, ErrCardNotFound
	}
	s.state.Cards[i].Expanded = !s.state.Cards[i].Expanded
	return cloneCard(s.state.Cards[i]), s.saveState()
}

// Clear removes every card and shows the seed prompt again.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = model.WalletState{Cards: []model.Card{}}
	if err := s.saveState(); err != nil {
		return err
	}
	s.settings.HideSeedPrompt = false
	return s.saveSettings()
}

// Reset clears the wallet and enables every seed option.
func (s *Store) Reset() error {
	if err := s.Clear(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = model.Settings{HideSeedPrompt: false, AdvancedSeedOptions: true}
	return s.saveSettings()
}

// Migrate canonicalizes card types and persists the state. Date strings are
// already turned into timestamps on load.
func (s *Store) Migrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Cards {
		s.state.Cards[i].Type = common.CanonicalType(s.state.Cards[i].Type)
	}
	return s.saveState()
}

// Validity reports whether a card has expired at now.
func Validity(c model.Card, now time.Time) model.CardValidity {
	if !c.ExpiresAt.IsZero() && c.ExpiresAt.Time().Before(now) {
		return model.CardExpired
	}
	return model.CardValid
}
