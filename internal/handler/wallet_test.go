package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/AlexZinkM/card-wallet/internal/blobstore"
	"github.com/AlexZinkM/card-wallet/internal/catalog"
	"github.com/AlexZinkM/card-wallet/internal/model"
	"github.com/AlexZinkM/card-wallet/internal/remote"
	"github.com/AlexZinkM/card-wallet/wallet"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func walletRouter(h *WalletHandler) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/cards", h.ListCards).Methods(http.MethodGet)
	r.HandleFunc("/cards", h.ClearCards).Methods(http.MethodDelete)
	r.HandleFunc("/cards/{id}", h.GetCard).Methods(http.MethodGet)
	r.HandleFunc("/cards/{id}", h.RemoveCard).Methods(http.MethodDelete)
	r.HandleFunc("/cards/{id}/renew", h.RenewCard).Methods(http.MethodPost)
	r.HandleFunc("/cards/{id}/expand", h.ToggleCard).Methods(http.MethodPost)
	r.HandleFunc("/inbox", h.ListInbox).Methods(http.MethodGet)
	r.HandleFunc("/inbox/capture", h.Capture).Methods(http.MethodPost)
	r.HandleFunc("/inbox/{id}", h.RemoveInbox).Methods(http.MethodDelete)
	r.HandleFunc("/inbox/{id}/open", h.OpenInbox).Methods(http.MethodPost)
	r.HandleFunc("/scan", h.Scan).Methods(http.MethodPost)
	r.HandleFunc("/share", h.GetShare).Methods(http.MethodGet)
	r.HandleFunc("/share", h.LeaveShare).Methods(http.MethodDelete)
	r.HandleFunc("/share/card", h.SelectCard).Methods(http.MethodPut)
	r.HandleFunc("/share/fields", h.SetField).Methods(http.MethodPut)
	r.HandleFunc("/share/confirm", h.ConfirmShare).Methods(http.MethodPost)
	return r
}

func newWallet(t *testing.T) (*wallet.App, *remote.Memory, http.Handler) {
	t.Helper()
	rs := remote.NewMemory()
	cat := catalog.New(nil, []catalog.NamedCardType{
		{Key: "PID", Schema: model.CardTypeSchema{
			Title:  "Personal data",
			Order:  []string{"name", "bsn"},
			Labels: map[string]string{"name": "Name", "bsn": "BSN"},
		}},
	})
	settings := wallet.DefaultSettings()
	settings.MetaRetries = 1
	settings.MetaDelay = time.Millisecond
	settings.OfferRetries = 1
	settings.InboxInterval = time.Hour
	app := wallet.New(blobstore.NewMemory(), cat, rs, settings)
	t.Cleanup(app.Close)
	return app, rs, walletRouter(NewWalletHandler(app, nil))
}

func putShare(rs *remote.Memory, id string, attrs *model.AttributeSet) {
	rs.Put(remote.Session{
		ID:      id,
		Intent:  model.IntentUseCard,
		Type:    "PID",
		Request: &model.SessionMeta{Intent: model.IntentUseCard, Type: "PID", Attributes: attrs},
	})
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestWalletCards(t *testing.T) {
	app, _, h := newWallet(t)
	card, err := app.Store.Add(model.Card{Type: "pid", Issuer: "Gemeente", Payload: map[string]any{"bsn": "999", "name": "Ada", "city": "Delft"}})
	require.NoError(t, err)

	rec := do(t, h, http.MethodGet, "/cards", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cards := decode[[]model.CardView](t, rec.Body.Bytes())
	require.Len(t, cards, 1)
	assert.Equal(t, "Personal data", cards[0].Title)
	var keys []string
	for _, f := range cards[0].Fields {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"name", "bsn", "city"}, keys)

	rec = do(t, h, http.MethodPost, "/cards/"+card.ID+"/renew", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/cards/"+card.ID+"/expand", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[model.CardView](t, rec.Body.Bytes()).Expanded)

	rec = do(t, h, http.MethodDelete, "/cards/"+card.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/cards/"+card.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, h, http.MethodDelete, "/cards/"+card.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWalletShareFlow(t *testing.T) {
	app, rs, h := newWallet(t)
	_, err := app.Store.Add(model.Card{Type: "PID", Payload: map[string]any{"name": "Ada", "bsn": "999"}})
	require.NoError(t, err)
	putShare(rs, "s1", &model.AttributeSet{Required: []string{"name"}, Optional: []string{"bsn"}})

	rec := do(t, h, http.MethodPost, "/scan", model.ScanRequest{SessionID: "s1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/share", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[model.ShareView](t, rec.Body.Bytes())
	assert.Equal(t, "s1", view.SessionID)
	require.Len(t, view.Fields, 2)

	rec = do(t, h, http.MethodPut, "/share/fields", model.SetFieldRequest{Field: "bsn", Selected: true})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/share/confirm", model.ConfirmRequest{PIN: "000000"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, model.CodePINRejected, decode[model.ErrorResponse](t, rec.Body.Bytes()).Code)

	rec = do(t, h, http.MethodPost, "/share/confirm", model.ConfirmRequest{PIN: app.PIN()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[model.FlowResponse](t, rec.Body.Bytes())
	assert.Equal(t, model.OutcomeOK, out.Outcome)
	assert.ElementsMatch(t, []string{"name", "bsn"}, out.SelectedFields)

	rec = do(t, h, http.MethodPost, "/share/confirm", model.ConfirmRequest{PIN: app.PIN()})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodDelete, "/share", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodGet, "/share", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, model.CodeNoShare, decode[model.ErrorResponse](t, rec.Body.Bytes()).Code)
}

func TestWalletShareExpired(t *testing.T) {
	app, rs, h := newWallet(t)
	_, err := app.Store.Add(model.Card{Type: "PID", Payload: map[string]any{"name": "Ada"}})
	require.NoError(t, err)
	putShare(rs, "s1", nil)

	rec := do(t, h, http.MethodPost, "/scan", model.ScanRequest{SessionID: "s1"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, rs.Expire("s1"))

	rec = do(t, h, http.MethodPost, "/share/confirm", model.ConfirmRequest{PIN: app.PIN()})
	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Equal(t, model.CodeSessionExpired, decode[model.ErrorResponse](t, rec.Body.Bytes()).Code)
}

func TestWalletScanUnknown(t *testing.T) {
	_, _, h := newWallet(t)
	rec := do(t, h, http.MethodPost, "/scan", model.ScanRequest{SessionID: "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, model.CodeNoSession, decode[model.ErrorResponse](t, rec.Body.Bytes()).Code)
}

func TestWalletInbox(t *testing.T) {
	_, rs, h := newWallet(t)
	rs.Put(remote.Session{
		ID:     "o1",
		Intent: model.IntentAddCard,
		Type:   "PID",
		Offer:  &model.SessionMeta{Intent: model.IntentAddCard, Type: "PID", Payload: map[string]any{"name": "Ada"}},
	})

	rec := do(t, h, http.MethodPost, "/inbox/capture", model.CaptureRequest{URL: "http://wallet.test/?session=o1&source=mail"})
	require.Equal(t, http.StatusOK, rec.Code)
	captured := decode[model.CaptureResponse](t, rec.Body.Bytes())
	assert.True(t, captured.Captured)

	rec = do(t, h, http.MethodGet, "/inbox?unread=true&intent=ADD_CARD", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]model.InboxEntry](t, rec.Body.Bytes())
	require.Len(t, entries, 1)
	assert.Equal(t, "o1", entries[0].ID)

	rec = do(t, h, http.MethodGet, "/inbox?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodGet, "/inbox?unread=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/inbox/o1/open", model.ConfirmRequest{PIN: "1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodPost, "/inbox/o1/open", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/inbox/o1/open", model.ConfirmRequest{PIN: "123456"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[model.FlowResponse](t, rec.Body.Bytes())
	require.NotNil(t, out.Card)
	assert.Equal(t, "PID", out.Card.Type)

	rec = do(t, h, http.MethodGet, "/cards", nil)
	assert.Len(t, decode[[]model.CardView](t, rec.Body.Bytes()), 1)

	rec = do(t, h, http.MethodDelete, "/inbox/o1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodGet, "/inbox", nil)
	assert.Empty(t, decode[[]model.InboxEntry](t, rec.Body.Bytes()))

	rec = do(t, h, http.MethodDelete, "/cards", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodGet, "/cards", nil)
	assert.Empty(t, decode[[]model.CardView](t, rec.Body.Bytes()))
}
