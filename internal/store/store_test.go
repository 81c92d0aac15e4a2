package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/AlexZinkM/card-wallet/internal/blobstore"
	"github.com/AlexZinkM/card-wallet/internal/common"
	"github.com/AlexZinkM/card-wallet/internal/model"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newStore(t *testing.T, blobs map[string]string) (*Store, *blobstore.Memory) {
	t.Helper()
	mem := blobstore.NewMemory()
	for k, v := range blobs {
		require.NoError(t, mem.Set(k, v))
	}
	return New(mem, WithClock(clock)), mem
}

func TestMalformedBlobsFallBackToDefaults(t *testing.T) {
	s, _ := newStore(t, map[string]string{
		KeyState:    "{not json",
		KeySettings: "[]",
		KeyInbox:    `{"id":"x"}`,
	})
	assert.Empty(t, s.Cards())
	assert.NotNil(t, s.Cards())
	assert.Equal(t, model.Settings{}, s.Settings())
	assert.Empty(t, s.LoadInbox())
}

func TestSettingsDefaults(t *testing.T) {
	s, _ := newStore(t, nil)
	assert.Equal(t, model.Settings{}, s.Settings())

	s, _ = newStore(t, map[string]string{KeySettings: `{"hideSeedPrompt":"yes","advancedSeedOptions":"no"}`})
	assert.Equal(t, model.Settings{HideSeedPrompt: false, AdvancedSeedOptions: true}, s.Settings())

	s, _ = newStore(t, map[string]string{KeySettings: `{"hideSeedPrompt":true,"advancedSeedOptions":false}`})
	assert.Equal(t, model.Settings{HideSeedPrompt: true, AdvancedSeedOptions: false}, s.Settings())
}

func TestInboxLoadNormalizes(t *testing.T) {
	s, _ := newStore(t, map[string]string{KeyInbox: `[
		{"id": "  a1 ", "intent": "use_card", "addedAt": 5, "unread": false, "statusInfo": {"code": "shared", "label": "Shared"}},
		{"id": 42},
		{"intent": "add_card"},
		"garbage",
		{"id": "b2", "unread": "maybe", "completedAt": "2026-01-02"}
	]`})

	entries := s.LoadInbox()
	require.Len(t, entries, 3)

	assert.Equal(t, "a1", entries[0].ID)
	assert.Equal(t, model.Timestamp(5), entries[0].AddedAt)
	assert.Equal(t, model.NewTimestamp(fixedNow), entries[0].UpdatedAt)
	assert.Equal(t, "deeplink", entries[0].Source)
	assert.False(t, entries[0].Unread)
	require.NotNil(t, entries[0].StatusInfo)
	assert.Equal(t, model.StatusShared, entries[0].StatusInfo.Code)

	assert.Equal(t, "42", entries[1].ID)
	assert.True(t, entries[1].Unread, "missing unread defaults to true")

	assert.False(t, entries[2].Unread, "non-bool unread is not unread")
	assert.False(t, entries[2].CompletedAt.IsZero())
}

func TestInboxSaveLoad(t *testing.T) {
	s, _ := newStore(t, nil)
	in := []model.InboxEntry{{
		ID: "s1", Intent: model.IntentUseCard, Source: "qr", AddedAt: 1, UpdatedAt: 2, Unread: true,
		StatusInfo: &model.StatusInfo{Code: model.StatusPendingShare, Label: "Waiting for you"},
	}}
	require.NoError(t, s.SaveInbox(in))
	if diff := cmp.Diff(in, s.LoadInbox()); diff != "" {
		t.Errorf("inbox mismatch (-want +got):\n%s", diff)
	}
}

func TestAddFromMeta(t *testing.T) {
	s, mem := newStore(t, nil)

	c, err := s.AddFromMeta(&model.SessionMeta{Type: "pid basis", Payload: map[string]any{"name": "A"}}, "GENERIC")
	require.NoError(t, err)
	assert.Equal(t, "PID_BASIS", c.Type)
	assert.Equal(t, "PID_BASIS-"+itoa(fixedNow.UnixMilli()), c.ID)
	assert.Equal(t, DefaultIssuer, c.Issuer)
	assert.Equal(t, model.NewTimestamp(fixedNow.Add(common.CardValidityTTL)), c.ExpiresAt)
	assert.True(t, s.Settings().AdvancedSeedOptions)

	// same millisecond, same type: id must stay unique
	c2, err := s.AddFromMeta(&model.SessionMeta{Type: "PID_BASIS"}, "")
	require.NoError(t, err)
	assert.NotEqual(t, c.ID, c2.ID)
	assert.True(t, strings.HasPrefix(c2.ID, c.ID+"-"))

	c3, err := s.AddFromMeta(nil, "diploma")
	require.NoError(t, err)
	assert.Equal(t, "DIPLOMA", c3.Type)
	assert.NotNil(t, c3.Payload)

	raw, ok, _ := mem.Get(KeyState)
	require.True(t, ok)
	assert.Contains(t, raw, c2.ID)
}

func TestRemoveLastCardHidesSeedPrompt(t *testing.T) {
	s, _ := newStore(t, nil)
	c, err := s.Add(model.Card{Type: "PID"})
	require.NoError(t, err)

	assert.ErrorIs(t, s.Remove("nope"), ErrCardNotFound)
	require.NoError(t, s.Remove(c.ID))
	assert.Empty(t, s.Cards())
	assert.True(t, s.Settings().HideSeedPrompt)

	require.NoError(t, s.Clear())
	assert.False(t, s.Settings().HideSeedPrompt)
}

func TestRenewAndValidity(t *testing.T) {
	s, _ := newStore(t, nil)
	c, err := s.Add(model.Card{Type: "PID", IssuedAt: 1, ExpiresAt: 2})
	require.NoError(t, err)
	assert.Equal(t, model.CardExpired, Validity(c, fixedNow))

	c, err = s.Renew(c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.NewTimestamp(fixedNow), c.IssuedAt)
	assert.Equal(t, model.CardValid, Validity(c, fixedNow))
	assert.Equal(t, model.CardValid, Validity(model.Card{}, fixedNow))

	_, err = s.Renew("nope")
	assert.ErrorIs(t, err, ErrCardNotFound)
}

func TestToggleExpanded(t *testing.T) {
	s, _ := newStore(t, nil)
	c, err := s.Add(model.Card{Type: "PID"})
	require.NoError(t, err)

	c, err = s.ToggleExpanded(c.ID)
	require.NoError(t, err)
	assert.True(t, c.Expanded)
	got, ok := s.Card(c.ID)
	require.True(t, ok)
	assert.True(t, got.Expanded)
}

func TestCardsReturnsCopies(t *testing.T) {
	s, _ := newStore(t, nil)
	_, err := s.Add(model.Card{Type: "PID", Payload: map[string]any{"name": "A"}})
	require.NoError(t, err)

	cards := s.Cards()
	cards[0].Payload["name"] = "changed"
	assert.Equal(t, "A", s.Cards()[0].Payload["name"])
}

func TestRoundTripIsStableExceptTypeCasing(t *testing.T) {
	original := `{"cards":[
		{"id":"pid-1","type":"pid basis","issuer":"RvIG","issuedAt":1700000000000,"expiresAt":"2030-01-01T00:00:00Z","expanded":true,"payload":{"name":"A","bsn":"123","tags":["x","y"],"nested":{"k":1}}},
		{"id":"income-1","type":"INCOME","issuer":"Tax","issuedAt":1700000000001,"expanded":false,"payload":{"amount":45000}}
	]}`
	s, mem := newStore(t, map[string]string{KeyState: original})
	require.NoError(t, s.Migrate())

	first, _, _ := mem.Get(KeyState)
	reloaded := New(mem, WithClock(clock))
	require.NoError(t, reloaded.Migrate())
	second, _, _ := mem.Get(KeyState)
	assert.Equal(t, first, second, "persist, reload and migrate must be byte-identical")

	var want model.WalletState
	require.NoError(t, json.Unmarshal([]byte(original), &want))
	for i := range want.Cards {
		want.Cards[i].Type = common.CanonicalType(want.Cards[i].Type)
	}
	if diff := cmp.Diff(want.Cards, reloaded.Cards()); diff != "" {
		t.Errorf("cards changed beyond type casing (-want +got):\n%s", diff)
	}
	assert.Equal(t, "PID_BASIS", reloaded.Cards()[0].Type)
}

func TestSeed(t *testing.T) {
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "seed.json")
	contentPath := filepath.Join(dir, "content.json")
	require.NoError(t, os.WriteFile(seedPath, []byte(`{
		"sets": {
			"default": [{"type": "pid", "issuer": "RvIG", "payload": {"name": "A"}}],
			"pid_income": [
				{"typeRef": "PID", "contentRef": "pid-1"},
				{"typeRef": "income statement", "contentRef": "income-1"},
				{"typeRef": "X", "contentRef": "missing"}
			]
		}
	}`), 0o600))
	require.NoError(t, os.WriteFile(contentPath, []byte(`{
		"pid-1": {"issuer": "RvIG", "issuedAt": "2024-01-01", "payload": {"name": "A"}},
		"income-1": {"issuer": "Tax", "payload": {"amount": 45000}}
	}`), 0o600))

	s, _ := newStore(t, nil)
	cards, err := s.Seed(seedPath, contentPath, "pid_income")
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "PID", cards[0].Type)
	assert.Equal(t, "INCOME_STATEMENT", cards[1].Type)
	assert.Equal(t, "INCOME_STATEMENT-"+itoa(fixedNow.UnixMilli()+1), cards[1].ID)
	assert.False(t, cards[0].IssuedAt.IsZero())
	assert.True(t, s.Settings().HideSeedPrompt)

	cards, err = s.Seed(seedPath, contentPath, "unknown")
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "PID", cards[0].Type)
	assert.Len(t, s.Cards(), 3)
}

func TestSeedEmpty(t *testing.T) {
	p := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"cards": [{"issuer": "no type"}]}`), 0o600))

	s, _ := newStore(t, nil)
	_, err := s.Seed(p, "", "")
	assert.ErrorIs(t, err, ErrEmptySeed)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
