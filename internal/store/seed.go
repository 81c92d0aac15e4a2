package store

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/AlexZinkM/card-wallet/internal/common"
	"github.com/AlexZinkM/card-wallet/internal/model"
)

// seedFile is the layout of a seed file: named sets of entries, or a flat
// card list.
type seedFile struct {
	Sets  map[string][]seedEntry `json:"sets"`
	Cards []seedEntry            `json:"cards"`
}

// seedEntry is an inline card or a reference into the card-content file.
type seedEntry struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	TypeRef    string          `json:"typeRef"`
	ContentRef string          `json:"contentRef"`
	Issuer     string          `json:"issuer"`
	IssuedAt   model.Timestamp `json:"issuedAt"`
	ExpiresAt  model.Timestamp `json:"expiresAt"`
	Payload    map[string]any  `json:"payload"`
}

// contentItem is one entry of the card-content file.
type contentItem struct {
	Type      string          `json:"type"`
	Issuer    string          `json:"issuer"`
	IssuedAt  model.Timestamp `json:"issuedAt"`
	ExpiresAt model.Timestamp `json:"expiresAt"`
	Payload   map[string]any  `json:"payload"`
}

// selectSet picks the entries of set, else of the default set, else the flat list.
func (f seedFile) selectSet(set string) []seedEntry {
	if list, ok := f.Sets[set]; ok && set != "" {
		return list
	}
	if list, ok := f.Sets["default"]; ok {
		return list
	}
	return f.Cards
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// Seed appends the cards of a seed set. References are resolved against the
// card-content file, which is read only when needed. Returns the added cards.
func (s *Store) Seed(seedPath, contentPath, set string) ([]model.Card, error) {
	var f seedFile
	if err := readJSON(seedPath, &f); err != nil {
		return nil, err
	}

	var content map[string]contentItem
	now := s.now().UnixMilli()
	var mapped []model.Card
	for i, e := range f.selectSet(set) {
		stamp := strconv.FormatInt(now+int64(i), 10)

		if (e.TypeRef != "" || e.Type != "") && e.ContentRef != "" {
			if content == nil {
				if err := readJSON(contentPath, &content); err != nil {
					return nil, err
				}
			}
			item, ok := content[e.ContentRef]
			if !ok {
				continue
			}
			t := e.TypeRef
			if t == "" {
				t = e.Type
			}
			if t == "" {
				t = item.Type
			}
			t = common.CanonicalType(t)
			if t == "" {
				continue
			}
			mapped = append(mapped, model.Card{
				ID:        t + "-" + stamp,
				Type:      t,
				Issuer:    item.Issuer,
				IssuedAt:  item.IssuedAt,
				ExpiresAt: item.ExpiresAt,
				Payload:   nonNil(item.Payload),
			})
			continue
		}

		if e.Type == "" {
			continue
		}
		id := e.ID
		if id == "" {
			id = e.Type + "-" + stamp
		}
		mapped = append(mapped, model.Card{
			ID:        id,
			Type:      common.CanonicalType(e.Type),
			Issuer:    e.Issuer,
			IssuedAt:  e.IssuedAt,
			ExpiresAt: e.ExpiresAt,
			Payload:   nonNil(e.Payload),
		})
	}
	if len(mapped) == 0 {
		return nil, ErrEmptySeed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Card, len(mapped))
	for i := range mapped {
		mapped[i].ID = s.uniqueID(mapped[i].ID)
		s.state.Cards = append(s.state.Cards, mapped[i])
		out[i] = cloneCard(mapped[i])
	}
	s.settings.HideSeedPrompt = true
	s.settings.AdvancedSeedOptions = true
	if err := s.saveSettings(); err != nil {
		return out, err
	}
	return out, s.saveState()
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
