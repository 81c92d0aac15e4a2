package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AlexZinkM/card-wallet/internal/model"
	"github.com/AlexZinkM/card-wallet/internal/remote"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionRouter(h *SessionHandler) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/sessions", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}/qr", h.QR).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}/shared", h.PutShared).Methods(http.MethodPut)
	r.HandleFunc("/sessions/{id}/response", h.PutResponse).Methods(http.MethodPut)
	r.HandleFunc("/sessions/{id}/complete", h.Complete).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/scan", h.Scan).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/expire", h.Expire).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/{field}", h.Field).Methods(http.MethodGet)
	return r
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, h http.Handler, in model.CreateSessionRequest) model.CreateSessionResponse {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/sessions", in)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out model.CreateSessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestSessionCreateUseCard(t *testing.T) {
	store := remote.NewMemory()
	h := sessionRouter(NewSessionHandler(store, "http://wallet.test/", nil))

	out := createSession(t, h, model.CreateSessionRequest{
		Intent:     "USE_CARD",
		Type:       "PID",
		Scenario:   "pid_login",
		Attributes: &model.AttributeSet{Required: []string{"name"}},
	})
	assert.NotEmpty(t, out.ID)
	assert.Contains(t, out.Deeplink, "session="+out.ID)
	assert.Contains(t, out.Deeplink, "intent=use_card")
	assert.False(t, out.ExpiresAt.IsZero())

	s, ok := store.Snapshot(out.ID)
	require.True(t, ok)
	require.NotNil(t, s.Request)
	assert.Nil(t, s.Offer)
	assert.Equal(t, []string{"name"}, s.Request.Attributes.Required)

	rec := do(t, h, http.MethodGet, "/sessions/"+out.ID+"/intent", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `"use_card"`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/sessions/"+out.ID+"/offer", nil)
	assert.JSONEq(t, `null`, rec.Body.String())
}

func TestSessionCreateOfferCarriesPayload(t *testing.T) {
	store := remote.NewMemory()
	h := sessionRouter(NewSessionHandler(store, "http://wallet.test/", nil))

	out := createSession(t, h, model.CreateSessionRequest{
		Intent:  model.IntentAddCard,
		Type:    "PID",
		Issuer:  "Gemeente",
		Payload: map[string]any{"name": "A"},
	})

	rec := do(t, h, http.MethodGet, "/sessions/"+out.ID+"/offer", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var offer model.SessionMeta
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&offer))
	assert.Equal(t, "Gemeente", offer.Issuer)
	assert.Equal(t, "A", offer.Payload["name"])
}

func TestSessionCreateRejectsInvalid(t *testing.T) {
	h := sessionRouter(NewSessionHandler(remote.NewMemory(), "http://wallet.test/", nil))

	rec := do(t, h, http.MethodPost, "/sessions", model.CreateSessionRequest{Intent: "burn_card"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/sessions", model.CreateSessionRequest{Intent: model.IntentAddCard})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader("{"))
	raw := httptest.NewRecorder()
	h.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestSessionFieldOfMissingSessionIsNull(t *testing.T) {
	h := sessionRouter(NewSessionHandler(remote.NewMemory(), "http://wallet.test/", nil))

	rec := do(t, h, http.MethodGet, "/sessions/nope/status", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `null`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/sessions/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/sessions/nope/scan", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionWritesAfterCompletionConflict(t *testing.T) {
	store := remote.NewMemory()
	h := sessionRouter(NewSessionHandler(store, "http://wallet.test/", nil))
	out := createSession(t, h, model.CreateSessionRequest{Intent: model.IntentUseCard, Type: "PID"})

	shared := model.SharedRecord{Type: "PID", Payload: map[string]any{"name": "A"}, Version: model.RecordVersion}
	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodPut, "/sessions/"+out.ID+"/shared", shared).Code)
	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodPut, "/sessions/"+out.ID+"/response",
		model.ShareResponse{Outcome: model.OutcomeOK, Version: model.RecordVersion}).Code)
	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodPost, "/sessions/"+out.ID+"/complete", nil).Code)

	rec := do(t, h, http.MethodPut, "/sessions/"+out.ID+"/shared", shared)
	assert.Equal(t, http.StatusConflict, rec.Code)
	var e model.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&e))
	assert.Equal(t, model.CodeSessionCompleted, e.Code)

	// completing twice is safe
	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodPost, "/sessions/"+out.ID+"/complete", nil).Code)

	s, _ := store.Snapshot(out.ID)
	assert.Equal(t, model.OutcomeOK, s.Response.Outcome)
	assert.False(t, s.Status.CompletedAt.IsZero())
}

func TestSessionWritesAfterExpiryGone(t *testing.T) {
	store := remote.NewMemory()
	h := sessionRouter(NewSessionHandler(store, "http://wallet.test/", nil))
	out := createSession(t, h, model.CreateSessionRequest{Intent: model.IntentUseCard, Type: "PID"})

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodPost, "/sessions/"+out.ID+"/expire", nil).Code)

	rec := do(t, h, http.MethodPut, "/sessions/"+out.ID+"/response", model.ShareResponse{Outcome: model.OutcomeOK})
	assert.Equal(t, http.StatusGone, rec.Code)

	rec = do(t, h, http.MethodGet, "/sessions/"+out.ID+"/status", nil)
	var st model.SessionStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	assert.False(t, st.ExpiredAt.IsZero())
}

func TestSessionQR(t *testing.T) {
	h := sessionRouter(NewSessionHandler(remote.NewMemory(), "http://wallet.test/", nil))
	out := createSession(t, h, model.CreateSessionRequest{Intent: model.IntentUseCard, Type: "PID"})

	rec := do(t, h, http.MethodGet, "/sessions/"+out.ID+"/qr", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = do(t, h, http.MethodGet, "/sessions/nope/qr", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionUnknownField(t *testing.T) {
	store := remote.NewMemory()
	store.Put(remote.Session{ID: "s1", Intent: model.IntentUseCard})
	h := sessionRouter(NewSessionHandler(store, "http://wallet.test/", nil))

	rec := do(t, h, http.MethodGet, "/sessions/s1/secret", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
