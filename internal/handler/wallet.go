package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/AlexZinkM/card-wallet/internal/model"
	"github.com/AlexZinkM/card-wallet/internal/store"
	"github.com/AlexZinkM/card-wallet/wallet"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// WalletHandler serves the wallet API over one application context
type WalletHandler struct {
	app *wallet.App
	log *zap.Logger
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(app *wallet.App, log *zap.Logger) *WalletHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WalletHandler{app: app, log: log.Named("api")}
}

// ListCards handles GET /cards
// @Summary      List cards
// @Tags         cards
// @Produce      json
// @Success      200  {array}  model.CardView
// @Router       /cards [get]
func (h *WalletHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	cards := h.app.Store.Cards()
	out := make([]model.CardView, len(cards))
	for i, c := range cards {
		out[i] = h.app.View(c)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetCard handles GET /cards/{id}
// @Summary      Get card
// @Tags         cards
// @Produce      json
// @Param        id   path      string  true  "Card id"
// @Success      200  {object}  model.CardView
// @Failure      404  {object}  model.ErrorResponse
// @Router       /cards/{id} [get]
func (h *WalletHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	c, ok := h.app.Store.Card(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, model.CodeNotFound, store.ErrCardNotFound)
		return
	}
	writeJSON(w, http.StatusOK, h.app.View(c))
}

// RemoveCard handles DELETE /cards/{id}
// @Summary      Remove card
// @Tags         cards
// @Param        id   path  string  true  "Card id"
// @Success      204
// @Failure      404  {object}  model.ErrorResponse
// @Router       /cards/{id} [delete]
func (h *WalletHandler) RemoveCard(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Store.Remove(mux.Vars(r)["id"]); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenewCard handles POST /cards/{id}/renew
// @Summary      Renew card
// @Description  Resets issue date to now and expiry to one year from now
// @Tags         cards
// @Produce      json
// @Param        id   path      string  true  "Card id"
// @Success      200  {object}  model.CardView
// @Failure      404  {object}  model.ErrorResponse
// @Router       /cards/{id}/renew [post]
func (h *WalletHandler) RenewCard(w http.ResponseWriter, r *http.Request) {
	c, err := h.app.Store.Renew(mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.app.View(c))
}

// ToggleCard handles POST /cards/{id}/expand
// @Summary      Toggle card details
// @Tags         cards
// @Produce      json
// @Param        id   path      string  true  "Card id"
// @Success      200  {object}  model.CardView
// @Failure      404  {object}  model.ErrorResponse
// @Router       /cards/{id}/expand [post]
func (h *WalletHandler) ToggleCard(w http.ResponseWriter, r *http.Request) {
	c, err := h.app.Store.ToggleExpanded(mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.app.View(c))
}

// ClearCards handles DELETE /cards
// @Summary      Clear wallet
// @Description  Removes every card, the inbox and any pending share
// @Tags         cards
// @Success      204
// @Router       /cards [delete]
func (h *WalletHandler) ClearCards(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Clear(); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SeedCards handles POST /cards/seed
// @Summary      Seed demo cards
// @Tags         cards
// @Accept       json
// @Produce      json
// @Param        request  body      model.SeedRequest  false  "Seed set"
// @Success      200      {array}   model.CardView
// @Failure      400      {object}  model.ErrorResponse
// @Router       /cards/seed [post]
func (h *WalletHandler) SeedCards(w http.ResponseWriter, r *http.Request) {
	var req model.SeedRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	cards, err := h.app.Seed(req.Set)
	if err != nil {
		h.fail(w, err)
		return
	}
	out := make([]model.CardView, len(cards))
	for i, c := range cards {
		out[i] = h.app.View(c)
	}
	writeJSON(w, http.StatusOK, out)
}

// ListInbox handles GET /inbox
// @Summary      List inbox
// @Tags         inbox
// @Produce      json
// @Param        status  query     string  false  "Status code"
// @Param        intent  query     string  false  "use_card or add_card"
// @Param        unread  query     bool    false  "Unread only"
// @Success      200     {array}   model.InboxEntry
// @Failure      400     {object}  model.ErrorResponse
// @Router       /inbox [get]
func (h *WalletHandler) ListInbox(w http.ResponseWriter, r *http.Request) {
	q, err := parseInboxQuery(r)
	if err == nil {
		err = q.Validate()
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, model.CodeBadRequest, err)
		return
	}
	out := []model.InboxEntry{}
	for _, e := range h.app.Inbox.Entries() {
		if q.Match(e) {
			out = append(out, e)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func parseInboxQuery(r *http.Request) (model.InboxQuery, error) {
	var q model.InboxQuery
	values := r.URL.Query()
	if v := values.Get("status"); v != "" {
		q.Status = &v
	}
	if v := values.Get("intent"); v != "" {
		q.Intent = &v
	}
	if v := values.Get("unread"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return q, fmt.Errorf("invalid unread: %w", err)
		}
		q.Unread = &b
	}
	return q, nil
}

// Capture handles POST /inbox/capture
// @Summary      Capture deeplink
// @Description  Records the session named in a wallet URL as an unread inbox entry
// @Tags         inbox
// @Accept       json
// @Produce      json
// @Param        request  body      model.CaptureRequest  true  "Deeplink"
// @Success      200      {object}  model.CaptureResponse
// @Failure      400      {object}  model.ErrorResponse
// @Router       /inbox/capture [post]
func (h *WalletHandler) Capture(w http.ResponseWriter, r *http.Request) {
	var req model.CaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.CodeBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, h.app.Flow.CaptureDeeplink(r.Context(), req.URL))
}

// RemoveInbox handles DELETE /inbox/{id}
// @Summary      Dismiss inbox entry
// @Tags         inbox
// @Param        id  path  string  true  "Session id"
// @Success      204
// @Router       /inbox/{id} [delete]
func (h *WalletHandler) RemoveInbox(w http.ResponseWriter, r *http.Request) {
	h.app.Inbox.Remove(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

// OpenInbox handles POST /inbox/{id}/open
// @Summary      Open inbox session
// @Description  Opens the share request, or adds the offered card after PIN confirmation
// @Tags         inbox
// @Accept       json
// @Produce      json
// @Param        id       path      string                true   "Session id"
// @Param        request  body      model.ConfirmRequest  false  "PIN for offers"
// @Success      200      {object}  model.FlowResponse
// @Failure      403      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Router       /inbox/{id}/open [post]
func (h *WalletHandler) OpenInbox(w http.ResponseWriter, r *http.Request) {
	var req model.ConfirmRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	confirm := wallet.StaticPIN{Want: h.app.PIN(), Entered: req.PIN}
	out, err := h.app.Flow.OpenInboxSession(r.Context(), mux.Vars(r)["id"], confirm)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Scan handles POST /scan
// @Summary      Scan session
// @Description  Handles a scanned session id: opens a share request or adds an offered card
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        request  body      model.ScanRequest  true  "Session"
// @Success      200      {object}  model.FlowResponse
// @Failure      404      {object}  model.ErrorResponse
// @Router       /scan [post]
func (h *WalletHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req model.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.CodeBadRequest, err)
		return
	}
	out, err := h.app.Flow.Scan(r.Context(), req.SessionID)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GetShare handles GET /share
// @Summary      Pending share
// @Tags         share
// @Produce      json
// @Success      200  {object}  model.ShareView
// @Failure      404  {object}  model.ErrorResponse
// @Router       /share [get]
func (h *WalletHandler) GetShare(w http.ResponseWriter, r *http.Request) {
	view, err := h.app.Flow.ShareView(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// LeaveShare handles DELETE /share
// @Summary      Leave share
// @Tags         share
// @Success      204
// @Router       /share [delete]
func (h *WalletHandler) LeaveShare(w http.ResponseWriter, r *http.Request) {
	h.app.Flow.Leave()
	w.WriteHeader(http.StatusNoContent)
}

// SelectCard handles PUT /share/card
// @Summary      Select candidate card
// @Tags         share
// @Accept       json
// @Produce      json
// @Param        request  body      model.SelectCardRequest  true  "Card index"
// @Success      200      {object}  model.ShareView
// @Failure      400      {object}  model.ErrorResponse
// @Router       /share/card [put]
func (h *WalletHandler) SelectCard(w http.ResponseWriter, r *http.Request) {
	var req model.SelectCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.CodeBadRequest, err)
		return
	}
	view, err := h.app.Flow.SelectCard(r.Context(), req.Index)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SetField handles PUT /share/fields
// @Summary      Toggle field
// @Description  Required fields stay selected
// @Tags         share
// @Accept       json
// @Produce      json
// @Param        request  body      model.SetFieldRequest  true  "Field"
// @Success      200      {object}  model.ShareView
// @Failure      410      {object}  model.ErrorResponse
// @Router       /share/fields [put]
func (h *WalletHandler) SetField(w http.ResponseWriter, r *http.Request) {
	var req model.SetFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.CodeBadRequest, err)
		return
	}
	view, err := h.app.Flow.SetField(r.Context(), req.Field, req.Selected)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ConfirmShare handles POST /share/confirm
// @Summary      Confirm share
// @Description  Sends the selected fields to the requester after PIN check
// @Tags         share
// @Accept       json
// @Produce      json
// @Param        request  body      model.ConfirmRequest  true  "PIN"
// @Success      200      {object}  model.FlowResponse
// @Failure      403      {object}  model.ErrorResponse
// @Failure      410      {object}  model.ErrorResponse
// @Failure      422      {object}  model.ErrorResponse
// @Router       /share/confirm [post]
func (h *WalletHandler) ConfirmShare(w http.ResponseWriter, r *http.Request) {
	var req model.ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.CodeBadRequest, err)
		return
	}
	confirm := wallet.StaticPIN{Want: h.app.PIN(), Entered: req.PIN}
	out, err := h.app.Flow.ConfirmShare(r.Context(), confirm)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// decodeOptional decodes an optional JSON body. An empty body is fine.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeError(w, http.StatusBadRequest, model.CodeBadRequest, err)
	return false
}

// fail maps flow and store errors to HTTP statuses.
func (h *WalletHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, wallet.ErrNoSession):
		writeError(w, http.StatusNotFound, model.CodeNoSession, err)
	case errors.Is(err, wallet.ErrNoShare):
		writeError(w, http.StatusNotFound, model.CodeNoShare, err)
	case errors.Is(err, wallet.ErrNoCandidates), errors.Is(err, store.ErrCardNotFound):
		writeError(w, http.StatusNotFound, model.CodeNotFound, err)
	case errors.Is(err, wallet.ErrSessionExpired):
		writeError(w, http.StatusGone, model.CodeSessionExpired, err)
	case errors.Is(err, wallet.ErrSessionFinalized):
		writeError(w, http.StatusConflict, model.CodeSessionFinalized, err)
	case errors.Is(err, wallet.ErrNoFieldsSelected):
		writeError(w, http.StatusUnprocessableEntity, model.CodeNoFields, err)
	case errors.Is(err, wallet.ErrMissingRequired):
		writeError(w, http.StatusUnprocessableEntity, model.CodeMissingRequired, err)
	case errors.Is(err, wallet.ErrPINRejected):
		writeError(w, http.StatusForbidden, model.CodePINRejected, err)
	case errors.Is(err, wallet.ErrCancelled), errors.Is(err, wallet.ErrInvalidCard), errors.Is(err, store.ErrEmptySeed):
		writeError(w, http.StatusBadRequest, model.CodeBadRequest, err)
	default:
		h.log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, model.CodeInternal, err)
	}
}
