package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/AlexZinkM/card-wallet/internal/common"
	"github.com/AlexZinkM/card-wallet/internal/deeplink"
	"github.com/AlexZinkM/card-wallet/internal/meta"
	"github.com/AlexZinkM/card-wallet/internal/model"
	"github.com/AlexZinkM/card-wallet/internal/planner"
	"github.com/AlexZinkM/card-wallet/internal/remote"
	"go.uber.org/zap"
)

// State is the position of the controller in the share/add flow.
type State string

const (
	StateIdle              State = "idle"
	StateResolving         State = "meta-resolving"
	StateMatched           State = "matched"
	StateUnmatched         State = "unmatched"
	StateAwaitingSelection State = "awaiting-selection"
	StatePINPending        State = "pin-pending"
	StateSubmitted         State = "submitted"
	StateCompleted         State = "completed"
	StateExpired           State = "expired"
)

// pendingShare lives from opening a share request until the flow is left.
type pendingShare struct {
	id            string
	meta          *model.SessionMeta
	requestedType string
	candidates    []model.Card
	selected      int
	fallback      bool
	selections    *planner.Selections

	// expired is set from the expiry subscription.
	expired  atomic.Bool
	reported bool
	outcome  string
}

func (p *pendingShare) card() *model.Card {
	if p.selected < 0 || p.selected >= len(p.candidates) {
		return nil
	}
	return &p.candidates[p.selected]
}

// Controller runs the share and add flows. Operations are serialized; at
// most one share is pending and at most one expiry subscription is open.
type Controller struct {
	app *App
	log *zap.Logger

	mu      sync.Mutex
	state   State
	pending *pendingShare
	sub     remote.Subscription
}

func newController(app *App) *Controller {
	return &Controller{app: app, log: app.log.Named("flow"), state: StateIdle}
}

// State returns the current flow state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	if c.pending != nil && c.pending.expired.Load() &&
		c.state != StateSubmitted && c.state != StateCompleted {
		return StateExpired
	}
	return c.state
}

func (c *Controller) metaOptions(preferRequest bool) meta.Options {
	s := c.app.settings
	opts := meta.Options{PreferRequest: preferRequest, Retries: s.MetaRetries, Delay: s.MetaDelay}
	if !preferRequest {
		opts.Retries = s.OfferRetries
	}
	return opts
}

// remoteIntent reads the root intent field. Failures count as absent.
func (c *Controller) remoteIntent(ctx context.Context, id string) string {
	intent, err := c.app.Remote.GetIntent(ctx, id)
	if err != nil {
		c.log.Debug("failed to read intent", zap.String("session", id), zap.Error(err))
		return ""
	}
	return strings.ToLower(strings.TrimSpace(intent))
}

func intentOf(m *model.SessionMeta) string {
	if m == nil {
		return ""
	}
	if m.Intent != "" {
		return strings.ToLower(m.Intent)
	}
	return strings.ToLower(m.PayloadIntent())
}

// track records a session the user acted on in the inbox.
func (c *Controller) track(id, intent, source string) {
	patch := model.InboxPatch{Unread: ptr(false)}
	if intent != "" {
		patch.Intent = &intent
	}
	if _, ok := c.app.Inbox.Find(id); !ok {
		patch.Source = &source
	}
	c.app.Inbox.Upsert(id, patch)
}

func (c *Controller) markScanned(ctx context.Context, id string) {
	if err := c.app.Remote.MarkScanned(ctx, id); err != nil {
		c.log.Debug("failed to mark scanned", zap.String("session", id), zap.Error(err))
	}
}

// Scan handles a session id read from a QR code. Share requests open the
// pending share; offers are added to the wallet right away.
func (c *Controller) Scan(ctx context.Context, id string) (model.FlowResponse, error) {
	id = common.NormalizeID(id)
	if id == "" {
		return model.FlowResponse{State: string(StateIdle)}, ErrNoSession
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.leaveLocked()
	c.state = StateResolving

	// Intent from the root field, else from the record
	intent := c.remoteIntent(ctx, id)
	m := c.app.Meta.Resolve(ctx, id, c.metaOptions(true))
	if intent == "" {
		intent = intentOf(m)
	}
	if m == nil && intent == "" {
		c.state = StateIdle
		return model.FlowResponse{SessionID: id, State: string(StateIdle)}, ErrNoSession
	}

	c.track(id, intent, "scan")
	c.markScanned(ctx, id)

	if intent != model.IntentUseCard {
		return c.acceptOfferLocked(ctx, id, nil)
	}

	c.app.Inbox.MarkRead(id)
	view, err := c.openShareLocked(ctx, id, m)
	c.app.Inbox.Refresh(ctx, id, false)
	if err != nil {
		return model.FlowResponse{SessionID: id, Intent: intent, State: string(c.stateLocked())}, err
	}
	return model.FlowResponse{
		SessionID: id,
		Intent:    intent,
		State:     view.State,
		Outcome:   view.Outcome,
		Share:     &view,
	}, nil
}

// OpenShare opens the share request of session id, replacing any pending
// share. A nil m is resolved from the remote store.
func (c *Controller) OpenShare(ctx context.Context, id string, m *model.SessionMeta) (model.ShareView, error) {
	id = common.NormalizeID(id)
	if id == "" {
		return model.ShareView{}, ErrNoSession
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leaveLocked()
	return c.openShareLocked(ctx, id, m)
}

func (c *Controller) openShareLocked(ctx context.Context, id string, m *model.SessionMeta) (model.ShareView, error) {
	c.state = StateResolving
	if m == nil {
		m = c.app.Meta.Resolve(ctx, id, c.metaOptions(true))
	}
	if m == nil {
		c.state = StateIdle
		return model.ShareView{}, ErrNoSession
	}

	requested := common.CanonicalType(m.Type)
	if requested == "" {
		t, err := c.app.Remote.GetType(ctx, id)
		if err != nil {
			c.log.Debug("failed to read type", zap.String("session", id), zap.Error(err))
		}
		requested = common.CanonicalType(t)
	}

	// Candidates by exact canonical type
	cards := c.app.Store.Cards()
	var candidates []model.Card
	if requested != "" {
		for _, card := range cards {
			if card.Type == requested {
				candidates = append(candidates, card)
			}
		}
	}
	fallback := false
	if len(candidates) == 0 && requested == "" && len(cards) == 1 {
		candidates = cards
		fallback = true
		c.log.Info("offering the only card to an untyped request", zap.String("session", id), zap.String("card", cards[0].ID))
	}

	p := &pendingShare{
		id:            id,
		meta:          m,
		requestedType: requested,
		candidates:    candidates,
		fallback:      fallback,
		selections:    planner.NewSelections(id),
	}
	c.pending = p

	sub, err := c.app.Remote.OnExpired(ctx, id, func() {
		p.expired.Store(true)
		c.log.Info("session expired", zap.String("session", id))
	})
	if err != nil {
		c.log.Debug("failed to watch expiry", zap.String("session", id), zap.Error(err))
	} else {
		c.sub = sub
	}

	if len(candidates) == 0 {
		c.state = StateUnmatched
	} else {
		c.state = StateMatched
	}
	return c.viewLocked(ctx), nil
}

// ShareView returns the pending share. A share without candidates reports
// not_found to the requester the first time it is viewed.
func (c *Controller) ShareView(ctx context.Context) (model.ShareView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return model.ShareView{}, ErrNoShare
	}
	return c.viewLocked(ctx), nil
}

func (c *Controller) viewLocked(ctx context.Context) model.ShareView {
	p := c.pending
	if len(p.candidates) == 0 {
		c.reportNotFoundLocked(ctx, p)
	}

	v := model.ShareView{
		SessionID:     p.id,
		Title:         c.title(p),
		RequestedType: p.requestedType,
		Candidates:    p.candidates,
		Selected:      p.selected,
		Fallback:      p.fallback,
		Expired:       p.expired.Load(),
		Outcome:       p.outcome,
	}
	if card := p.card(); card != nil {
		plan := c.app.Planner.BuildPlan(card, p.meta)
		sel := planner.EnsureSelection(p.selections, card, plan)
		if c.state == StateMatched {
			c.state = StateAwaitingSelection
		}
		for _, key := range plan.Available(card) {
			v.Fields = append(v.Fields, model.ShareField{
				FieldDisplay: c.app.Catalog.FormatField(card.Type, key, card.Payload),
				Required:     plan.Required.Has(key),
				Selected:     sel.Has(key),
			})
		}
		for _, key := range plan.MissingRequired(card) {
			v.MissingRequired = append(v.MissingRequired, c.app.Catalog.FieldLabel(card.Type, key))
		}
	}
	v.State = string(c.stateLocked())
	return v
}

func (c *Controller) title(p *pendingShare) string {
	if t := c.app.Catalog.ScenarioTitle(p.meta.Scenario); t != "" {
		return t
	}
	if p.meta.Title != "" {
		return p.meta.Title
	}
	if p.requestedType != "" {
		return c.app.Catalog.LabelForType(p.requestedType)
	}
	return "Request"
}

// reportNotFoundLocked tells the requester no card matched. It runs at most
// once per pending share and never after expiry.
func (c *Controller) reportNotFoundLocked(ctx context.Context, p *pendingShare) {
	if p.reported {
		return
	}
	p.reported = true
	if p.expired.Load() {
		c.log.Info("not reporting not_found on expired session", zap.String("session", p.id))
		return
	}

	shared := &model.SharedRecord{
		Error:         model.OutcomeNotFound,
		RequestedType: p.requestedType,
		Version:       model.RecordVersion,
	}
	if err := c.app.Remote.SetShared(ctx, p.id, shared); err != nil {
		c.log.Debug("failed to write shared", zap.String("session", p.id), zap.Error(err))
	}
	resp := &model.ShareResponse{
		Outcome:       model.OutcomeNotFound,
		RequestedType: p.requestedType,
		Version:       model.RecordVersion,
	}
	if err := c.app.Remote.SetResponse(ctx, p.id, resp); err != nil {
		c.log.Debug("failed to write response", zap.String("session", p.id), zap.Error(err))
	}
	if err := c.app.Remote.MarkCompleted(ctx, p.id); err != nil {
		c.log.Debug("failed to mark completed", zap.String("session", p.id), zap.Error(err))
	}

	p.outcome = model.OutcomeNotFound
	c.state = StateCompleted
	c.closeSubLocked()
	c.app.Inbox.Refresh(ctx, p.id, true)
	c.log.Info("reported not_found", zap.String("session", p.id), zap.String("type", p.requestedType))
}

// editable returns the pending share if the user may still change it.
func (c *Controller) editable() (*pendingShare, error) {
	p := c.pending
	switch {
	case p == nil:
		return nil, ErrNoShare
	case c.stateLocked() == StateExpired:
		return nil, ErrSessionExpired
	case c.state == StateSubmitted || c.state == StateCompleted:
		return nil, ErrSessionFinalized
	}
	return p, nil
}

// SelectCard picks the candidate card at index.
func (c *Controller) SelectCard(ctx context.Context, index int) (model.ShareView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, err := c.editable()
	if err != nil {
		return model.ShareView{}, err
	}
	if index < 0 || index >= len(p.candidates) {
		return c.viewLocked(ctx), ErrInvalidCard
	}
	p.selected = index
	return c.viewLocked(ctx), nil
}

// SetField selects or deselects a field of the selected card. Required
// fields stay selected.
func (c *Controller) SetField(ctx context.Context, field string, selected bool) (model.ShareView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, err := c.editable()
	if err != nil {
		return model.ShareView{}, err
	}
	card := p.card()
	if card == nil {
		return c.viewLocked(ctx), ErrNoCandidates
	}
	plan := c.app.Planner.BuildPlan(card, p.meta)
	planner.EnsureSelection(p.selections, card, plan).Set(field, selected)
	return c.viewLocked(ctx), nil
}

// ConfirmShare submits the selected fields after PIN confirmation. Nothing
// is written to the remote store unless every check passes.
func (c *Controller) ConfirmShare(ctx context.Context, confirm Confirmer) (model.FlowResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.editable()
	if err != nil {
		return c.flowLocked(), err
	}
	card := p.card()
	if card == nil {
		return c.flowLocked(), ErrNoCandidates
	}

	// Validate the selection before asking for the PIN
	plan := c.app.Planner.BuildPlan(card, p.meta)
	if missing := plan.MissingRequired(card); len(missing) > 0 {
		labels := make([]string, len(missing))
		for i, key := range missing {
			labels[i] = c.app.Catalog.FieldLabel(card.Type, key)
		}
		return c.flowLocked(), fmt.Errorf("%w: %s", ErrMissingRequired, common.HumanList(labels))
	}
	sel := planner.EnsureSelection(p.selections, card, plan)
	if sel.Len() == 0 {
		return c.flowLocked(), ErrNoFieldsSelected
	}
	fields := sel.Fields()
	labels := make([]string, len(fields))
	for i, key := range fields {
		labels[i] = c.app.Catalog.FieldLabel(card.Type, key)
	}

	c.state = StatePINPending
	if err := confirm.Confirm(ctx, Prompt{SessionID: p.id, Title: c.title(p), Fields: labels}); err != nil {
		c.state = StateAwaitingSelection
		return c.flowLocked(), err
	}
	if p.expired.Load() {
		c.state = StateExpired
		return c.flowLocked(), ErrSessionExpired
	}

	c.state = StateSubmitted
	payload := sel.Filter(card.Payload)
	shared := &model.SharedRecord{
		Outcome:       model.OutcomeOK,
		RequestedType: p.requestedType,
		Type:          card.Type,
		Issuer:        card.Issuer,
		Payload:       payload,
		Version:       model.RecordVersion,
	}
	if err := c.rejected(p, c.app.Remote.SetShared(ctx, p.id, shared), "shared"); err != nil {
		return c.flowLocked(), err
	}
	resp := &model.ShareResponse{
		Outcome:        model.OutcomeOK,
		RequestedType:  p.requestedType,
		Type:           card.Type,
		Issuer:         card.Issuer,
		Payload:        payload,
		SelectedFields: fields,
		Version:        model.RecordVersion,
	}
	if err := c.rejected(p, c.app.Remote.SetResponse(ctx, p.id, resp), "response"); err != nil {
		return c.flowLocked(), err
	}
	if err := c.app.Remote.MarkCompleted(ctx, p.id); err != nil {
		c.log.Debug("failed to mark completed", zap.String("session", p.id), zap.Error(err))
	}

	p.outcome = model.OutcomeOK
	c.state = StateCompleted
	c.closeSubLocked()
	c.app.Inbox.Refresh(ctx, p.id, false)
	c.log.Info("share submitted", zap.String("session", p.id), zap.String("card", card.ID), zap.Strings("fields", fields))

	out := c.flowLocked()
	out.SelectedFields = fields
	return out, nil
}

// rejected turns a store refusal into a terminal flow error. Other write
// failures are logged and the flow goes on.
func (c *Controller) rejected(p *pendingShare, err error, field string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, remote.ErrSessionExpired):
		p.expired.Store(true)
		c.state = StateExpired
		c.closeSubLocked()
		return ErrSessionExpired
	case errors.Is(err, remote.ErrSessionCompleted):
		c.state = StateCompleted
		c.closeSubLocked()
		return ErrSessionFinalized
	}
	c.log.Debug("failed to write "+field, zap.String("session", p.id), zap.Error(err))
	return nil
}

func (c *Controller) flowLocked() model.FlowResponse {
	out := model.FlowResponse{State: string(c.stateLocked())}
	if p := c.pending; p != nil {
		out.SessionID = p.id
		out.Intent = model.IntentUseCard
		out.Outcome = p.outcome
	}
	return out
}

// AcceptOffer adds the card offered by session id and completes the
// session. A non-nil confirm gates the add on the PIN. Completed or expired
// sessions are refused.
func (c *Controller) AcceptOffer(ctx context.Context, id string, confirm Confirmer) (model.FlowResponse, error) {
	id = common.NormalizeID(id)
	if id == "" {
		return model.FlowResponse{State: string(StateIdle)}, ErrNoSession
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leaveLocked()
	return c.acceptOfferLocked(ctx, id, confirm)
}

func (c *Controller) acceptOfferLocked(ctx context.Context, id string, confirm Confirmer) (model.FlowResponse, error) {
	out := model.FlowResponse{SessionID: id, Intent: model.IntentAddCard}

	c.state = StateResolving
	m := c.app.Meta.Resolve(ctx, id, c.metaOptions(false))
	if m == nil {
		c.state = StateIdle
		out.State = string(c.state)
		return out, ErrNoSession
	}

	if confirm != nil {
		c.state = StatePINPending
		title := c.app.Catalog.ScenarioTitle(m.Scenario)
		if title == "" {
			title = c.app.Catalog.LabelForType(m.Type)
		}
		if err := confirm.Confirm(ctx, Prompt{SessionID: id, Title: title}); err != nil {
			c.state = StateIdle
			out.State = string(c.state)
			return out, err
		}
	}

	fallbackType := ""
	if m.Type == "" {
		t, err := c.app.Remote.GetType(ctx, id)
		if err != nil {
			c.log.Debug("failed to read type", zap.String("session", id), zap.Error(err))
		}
		fallbackType = t
		if fallbackType == "" {
			fallbackType = c.app.Catalog.FirstType()
		}
	}

	// Refuse sessions that are already used up
	if err := c.finished(ctx, id); err != nil {
		c.state = StateCompleted
		if errors.Is(err, ErrSessionExpired) {
			c.state = StateExpired
		}
		out.State = string(c.state)
		return out, err
	}

	c.state = StateSubmitted
	card, err := c.app.Store.AddFromMeta(m, fallbackType)
	if err != nil {
		c.log.Warn("failed to persist card", zap.String("card", card.ID), zap.Error(err))
	}
	if err := c.app.Remote.MarkCompleted(ctx, id); err != nil {
		c.log.Debug("failed to mark completed", zap.String("session", id), zap.Error(err))
	}
	c.state = StateCompleted
	c.track(id, model.IntentAddCard, "scan")
	c.app.Inbox.Refresh(ctx, id, false)
	c.log.Info("card added", zap.String("session", id), zap.String("card", card.ID), zap.String("type", card.Type))

	out.State = string(c.state)
	out.Outcome = model.OutcomeOK
	out.Card = &card
	return out, nil
}

// finished returns ErrSessionFinalized or ErrSessionExpired when the remote
// status says the session can no longer be used. Unreadable status counts
// as open.
func (c *Controller) finished(ctx context.Context, id string) error {
	st, err := c.app.Remote.GetStatus(ctx, id)
	if err != nil {
		c.log.Debug("failed to read status", zap.String("session", id), zap.Error(err))
	}
	exp, err := c.app.Remote.GetExpiresAt(ctx, id)
	if err != nil {
		c.log.Debug("failed to read expiry", zap.String("session", id), zap.Error(err))
	}
	switch {
	case st != nil && !st.ExpiredAt.IsZero():
		return ErrSessionExpired
	case !exp.IsZero() && !exp.Time().After(c.app.now()):
		return ErrSessionExpired
	case st != nil && !st.CompletedAt.IsZero():
		return ErrSessionFinalized
	}
	return nil
}

// OpenInboxSession acts on an inbox entry: it refreshes and marks it read,
// refuses finished sessions, then opens the share or add flow.
func (c *Controller) OpenInboxSession(ctx context.Context, id string, confirm Confirmer) (model.FlowResponse, error) {
	id = common.NormalizeID(id)
	if id == "" {
		return model.FlowResponse{State: string(StateIdle)}, ErrNoSession
	}

	if _, ok := c.app.Inbox.Find(id); !ok {
		c.app.Inbox.Upsert(id, model.InboxPatch{Source: ptr("manual")})
	}
	entry, ok := c.app.Inbox.Refresh(ctx, id, false)
	if err := ctx.Err(); err != nil {
		return model.FlowResponse{SessionID: id, State: string(StateIdle)}, err
	}
	c.app.Inbox.MarkRead(id)

	if ok && entry.StatusInfo.Final() {
		msg := entry.StatusInfo.Description
		if msg == "" {
			msg = entry.StatusInfo.Label
		}
		out := model.FlowResponse{SessionID: id, Intent: entry.Intent, State: string(StateCompleted), Outcome: entry.StatusInfo.Code}
		return out, fmt.Errorf("%w: %s", ErrSessionFinalized, msg)
	}
	c.markScanned(ctx, id)

	intent := entry.Intent
	if intent == "" {
		intent = c.remoteIntent(ctx, id)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.leaveLocked()
	if intent != model.IntentUseCard {
		return c.acceptOfferLocked(ctx, id, confirm)
	}
	view, err := c.openShareLocked(ctx, id, nil)
	if err != nil {
		return model.FlowResponse{SessionID: id, Intent: intent, State: string(c.stateLocked())}, err
	}
	return model.FlowResponse{SessionID: id, Intent: intent, State: view.State, Outcome: view.Outcome, Share: &view}, nil
}

// CaptureDeeplink records the session named in a wallet URL as an unread
// inbox entry. The returned URL has the session parameters removed.
func (c *Controller) CaptureDeeplink(ctx context.Context, rawURL string) model.CaptureResponse {
	out := model.CaptureResponse{URL: deeplink.Scrub(rawURL)}
	link, ok := deeplink.Capture(rawURL)
	if !ok {
		return out
	}

	patch := model.InboxPatch{Source: &link.Source, Unread: ptr(true)}
	if link.Intent != "" {
		patch.Intent = &link.Intent
	}
	entry, _ := c.app.Inbox.Upsert(link.SessionID, patch)
	if refreshed, ok := c.app.Inbox.Refresh(ctx, link.SessionID, false); ok {
		entry = refreshed
	}
	c.log.Info("captured deeplink", zap.String("session", link.SessionID), zap.String("source", link.Source))

	out.Captured = true
	out.Entry = &entry
	return out
}

// Leave drops the pending share and its expiry subscription.
func (c *Controller) Leave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leaveLocked()
}

func (c *Controller) leaveLocked() {
	c.closeSubLocked()
	c.pending = nil
	c.state = StateIdle
}

func (c *Controller) closeSubLocked() {
	if c.sub == nil {
		return
	}
	if err := c.sub.Close(); err != nil {
		c.log.Debug("failed to close expiry subscription", zap.Error(err))
	}
	c.sub = nil
}

func ptr[T any](v T) *T { return &v }
