package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/AlexZinkM/card-wallet/internal/deeplink"
	"github.com/AlexZinkM/card-wallet/internal/model"
	"github.com/AlexZinkM/card-wallet/internal/remote"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// DefaultSessionTTL is the lifetime of a session created without ttlSeconds.
const DefaultSessionTTL = 5 * time.Minute

// SessionHandler serves the session-record store over HTTP.
type SessionHandler struct {
	store     *remote.Memory
	walletURL string
	log       *zap.Logger
	now       func() time.Time
}

// NewSessionHandler creates a SessionHandler. walletURL is the base of the
// deeplinks encoded into session QR codes.
func NewSessionHandler(store *remote.Memory, walletURL string, log *zap.Logger) *SessionHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionHandler{store: store, walletURL: walletURL, log: log.Named("sessiond"), now: time.Now}
}

// Create handles POST /sessions
// @Summary      Create session
// @Description  Creates a share request (use_card) or offer (add_card) session
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        request  body      model.CreateSessionRequest  true  "Session data"
// @Success      201      {object}  model.CreateSessionResponse
// @Failure      400      {object}  model.ErrorResponse
// @Router       /sessions [post]
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.CodeBadRequest, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, model.CodeBadRequest, err)
		return
	}

	ttl := DefaultSessionTTL
	if req.TTLSeconds > 0 {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}
	id := uuid.NewString()
	meta := &model.SessionMeta{
		Intent:     req.Intent,
		Type:       req.Type,
		Issuer:     req.Issuer,
		Scenario:   req.Scenario,
		Title:      req.Title,
		Attributes: req.Attributes,
	}
	s := remote.Session{
		ID:        id,
		Intent:    req.Intent,
		Type:      req.Type,
		ExpiresAt: model.NewTimestamp(h.now().Add(ttl)),
	}
	if req.Intent == model.IntentUseCard {
		s.Request = meta
	} else {
		meta.Payload = req.Payload
		s.Offer = meta
	}

	link, err := deeplink.Build(h.walletURL, id, req.Intent, "qr")
	if err != nil {
		writeError(w, http.StatusInternalServerError, model.CodeInternal, err)
		return
	}
	h.store.Put(s)
	h.log.Info("session created", zap.String("session", id), zap.String("intent", req.Intent), zap.String("type", req.Type))

	writeJSON(w, http.StatusCreated, model.CreateSessionResponse{ID: id, Deeplink: link, ExpiresAt: s.ExpiresAt})
}

// Get handles GET /sessions/{id}
// @Summary      Get session
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "Session id"
// @Success      200  {object}  remote.Session
// @Failure      404  {object}  model.ErrorResponse
// @Router       /sessions/{id} [get]
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store.Snapshot(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, model.CodeNotFound, remote.ErrSessionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Field handles GET /sessions/{id}/{field}. Absent values are answered with null.
// @Summary      Get session field
// @Description  field is one of intent, type, request, offer, shared, response, status, expiresAt
// @Tags         sessions
// @Produce      json
// @Param        id     path  string  true  "Session id"
// @Param        field  path  string  true  "Field name"
// @Success      200
// @Router       /sessions/{id}/{field} [get]
func (h *SessionHandler) Field(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	s, ok := h.store.Snapshot(vars["id"])
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	var v any
	switch vars["field"] {
	case "intent":
		v = s.Intent
	case "type":
		v = s.Type
	case "request":
		v = s.Request
	case "offer":
		v = s.Offer
	case "shared":
		v = s.Shared
	case "response":
		v = s.Response
	case "status":
		v = s.Status
	case "expiresAt":
		v = s.ExpiresAt
	default:
		writeError(w, http.StatusNotFound, model.CodeNotFound, fmt.Errorf("unknown field %q", vars["field"]))
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// PutShared handles PUT /sessions/{id}/shared
// @Summary      Write shared record
// @Tags         sessions
// @Accept       json
// @Param        id       path  string              true  "Session id"
// @Param        request  body  model.SharedRecord  true  "Shared record"
// @Success      204
// @Failure      409  {object}  model.ErrorResponse
// @Failure      410  {object}  model.ErrorResponse
// @Router       /sessions/{id}/shared [put]
func (h *SessionHandler) PutShared(w http.ResponseWriter, r *http.Request) {
	var rec model.SharedRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, model.CodeBadRequest, err)
		return
	}
	h.finish(w, h.store.SetShared(r.Context(), mux.Vars(r)["id"], &rec))
}

// PutResponse handles PUT /sessions/{id}/response
// @Summary      Write response record
// @Tags         sessions
// @Accept       json
// @Param        id       path  string               true  "Session id"
// @Param        request  body  model.ShareResponse  true  "Response record"
// @Success      204
// @Failure      409  {object}  model.ErrorResponse
// @Failure      410  {object}  model.ErrorResponse
// @Router       /sessions/{id}/response [put]
func (h *SessionHandler) PutResponse(w http.ResponseWriter, r *http.Request) {
	var resp model.ShareResponse
	if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
		writeError(w, http.StatusBadRequest, model.CodeBadRequest, err)
		return
	}
	id := mux.Vars(r)["id"]
	err := h.store.SetResponse(r.Context(), id, &resp)
	if err == nil {
		h.log.Info("response written", zap.String("session", id), zap.String("outcome", resp.Outcome))
	}
	h.finish(w, err)
}

// Complete handles POST /sessions/{id}/complete
// @Summary      Mark session completed
// @Tags         sessions
// @Param        id  path  string  true  "Session id"
// @Success      204
// @Router       /sessions/{id}/complete [post]
func (h *SessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.finish(w, h.store.MarkCompleted(r.Context(), mux.Vars(r)["id"]))
}

// Scan handles POST /sessions/{id}/scan
// @Summary      Mark session scanned
// @Tags         sessions
// @Param        id  path  string  true  "Session id"
// @Success      204
// @Router       /sessions/{id}/scan [post]
func (h *SessionHandler) Scan(w http.ResponseWriter, r *http.Request) {
	h.finish(w, h.store.MarkScanned(r.Context(), mux.Vars(r)["id"]))
}

// Expire handles POST /sessions/{id}/expire
// @Summary      Expire session
// @Tags         sessions
// @Param        id  path  string  true  "Session id"
// @Success      204
// @Router       /sessions/{id}/expire [post]
func (h *SessionHandler) Expire(w http.ResponseWriter, r *http.Request) {
	h.finish(w, h.store.Expire(mux.Vars(r)["id"]))
}

// QR handles GET /sessions/{id}/qr
// @Summary      Session QR code
// @Description  PNG QR code of the session deeplink
// @Tags         sessions
// @Produce      png
// @Param        id  path  string  true  "Session id"
// @Success      200
// @Router       /sessions/{id}/qr [get]
func (h *SessionHandler) QR(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store.Snapshot(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, model.CodeNotFound, remote.ErrSessionNotFound)
		return
	}
	link, err := deeplink.Build(h.walletURL, s.ID, s.Intent, "qr")
	if err != nil {
		writeError(w, http.StatusInternalServerError, model.CodeInternal, err)
		return
	}
	png, err := SessionQR(link)
	if err != nil {
		writeError(w, http.StatusInternalServerError, model.CodeInternal, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// SessionQR renders link as a 256px PNG QR code.
func SessionQR(link string) ([]byte, error) {
	qr, err := qrcode.New(link, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}
	png, err := qr.PNG(256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PNG: %w", err)
	}
	return png, nil
}

func (h *SessionHandler) finish(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, remote.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, model.CodeNotFound, err)
	case errors.Is(err, remote.ErrSessionCompleted):
		writeError(w, http.StatusConflict, model.CodeSessionCompleted, err)
	case errors.Is(err, remote.ErrSessionExpired):
		writeError(w, http.StatusGone, model.CodeSessionExpired, err)
	default:
		writeError(w, http.StatusInternalServerError, model.CodeInternal, err)
	}
}
