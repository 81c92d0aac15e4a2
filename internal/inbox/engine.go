// Package inbox keeps the bounded, recency-ordered list of known sessions and
// reconciles it with the remote session-record store.
package inbox

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/AlexZinkM/card-wallet/internal/common"
	"github.com/AlexZinkM/card-wallet/internal/model"
	"github.com/AlexZinkM/card-wallet/internal/remote"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	MaxEntries       = 12
	DefaultInterval  = 15 * time.Second
	DefaultRetention = 24 * time.Hour

	// refreshTimeout bounds one shared remote read. The read is detached
	// from the caller so coalesced callers never inherit its cancellation.
	refreshTimeout = 10 * time.Second
)

// Persister loads and saves the inbox list. *store.Store implements it.
type Persister interface {
	LoadInbox() []model.InboxEntry
	SaveInbox(entries []model.InboxEntry) error
}

// Labeler resolves display titles. *catalog.Catalog implements it.
type Labeler interface {
	ScenarioTitle(id string) string
	LabelForType(cardType string) string
}

// Engine is the inbox reconciliation engine.
type Engine struct {
	persist  Persister
	remote   remote.SessionStore
	labels   Labeler
	log      *zap.Logger
	now      func() time.Time
	interval time.Duration
	onChange func()

	flight singleflight.Group

	mu       sync.Mutex
	entries  []*model.InboxEntry
	stopPoll context.CancelFunc
	closed   bool
	pollers  sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func WithInterval(d time.Duration) Option { return func(e *Engine) { e.interval = d } }

func WithLogger(log *zap.Logger) Option { return func(e *Engine) { e.log = log } }

// WithOnChange registers a hook called after visible inbox changes.
func WithOnChange(fn func()) Option { return func(e *Engine) { e.onChange = fn } }

// New creates an engine over the persisted inbox list. Polling starts with
// the first mutation or with StartPolling.
func New(persist Persister, rs remote.SessionStore, labels Labeler, opts ...Option) *Engine {
	e := &Engine{
		persist:  persist,
		remote:   rs,
		labels:   labels,
		log:      zap.NewNop(),
		now:      time.Now,
		interval: DefaultInterval,
		onChange: func() {},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.Named("inbox")
	for _, item := range persist.LoadInbox() {
		e.entries = append(e.entries, &item)
	}
	if len(e.entries) > MaxEntries {
		e.entries = e.entries[:MaxEntries]
	}
	return e
}

func copyEntry(p *model.InboxEntry) model.InboxEntry {
	out := *p
	if p.StatusInfo != nil {
		si := *p.StatusInfo
		out.StatusInfo = &si
	}
	return out
}

// Entries returns a copy of the list, most recently touched first.
func (e *Engine) Entries() []model.InboxEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.InboxEntry, len(e.entries))
	for i, p := range e.entries {
		out[i] = copyEntry(p)
	}
	return out
}

// Find returns the entry with id.
func (e *Engine) Find(id string) (model.InboxEntry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p := e.find(common.NormalizeID(id)); p != nil {
		return copyEntry(p), true
	}
	return model.InboxEntry{}, false
}

// find returns the entry with id. Caller holds mu.
func (e *Engine) find(id string) *model.InboxEntry {
	if id == "" {
		return nil
	}
	for _, p := range e.entries {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// save persists the list. Caller holds mu.
func (e *Engine) save() {
	list := make([]model.InboxEntry, len(e.entries))
	for i, p := range e.entries {
		list[i] = copyEntry(p)
	}
	if err := e.persist.SaveInbox(list); err != nil {
		e.log.Warn("failed to save inbox", zap.Error(err))
	}
}

// Upsert merges patch into the entry with id, or inserts a new entry, and
// moves it to the head of the list. Nil patch fields leave values alone.
func (e *Engine) Upsert(id string, patch model.InboxPatch) (model.InboxEntry, bool) {
	id = common.NormalizeID(id)
	if id == "" {
		return model.InboxEntry{}, false
	}

	e.mu.Lock()
	now := model.NewTimestamp(e.now())
	entry := e.find(id)
	if entry == nil {
		entry = &model.InboxEntry{
			ID:         id,
			Intent:     deref(patch.Intent),
			Type:       deref(patch.Type),
			Source:     deref(patch.Source),
			Title:      deref(patch.Title),
			ScenarioID: deref(patch.ScenarioID),
			Issuer:     deref(patch.Issuer),
			AddedAt:    now,
			UpdatedAt:  now,
			Unread:     patch.Unread == nil || *patch.Unread,
			StatusInfo: patch.StatusInfo,
		}
		if entry.Source == "" {
			entry.Source = "deeplink"
		}
		e.entries = append([]*model.InboxEntry{entry}, e.entries...)
		if len(e.entries) > MaxEntries {
			e.entries = e.entries[:MaxEntries]
		}
	} else {
		merge(entry, patch)
		entry.UpdatedAt = now
		e.moveToHead(entry)
	}
	e.save()
	out := copyEntry(entry)
	e.mu.Unlock()

	e.restartPolling()
	e.onChange()
	return out, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func merge(entry *model.InboxEntry, p model.InboxPatch) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&entry.Intent, p.Intent)
	set(&entry.Type, p.Type)
	set(&entry.Source, p.Source)
	set(&entry.Title, p.Title)
	set(&entry.ScenarioID, p.ScenarioID)
	set(&entry.Issuer, p.Issuer)
	if p.StatusInfo != nil {
		si := *p.StatusInfo
		entry.StatusInfo = &si
	}
	if p.CompletedAt != nil {
		entry.CompletedAt = *p.CompletedAt
	}
	if p.ExpiredAt != nil {
		entry.ExpiredAt = *p.ExpiredAt
	}
	if p.Unread != nil {
		entry.Unread = *p.Unread
	}
}

// moveToHead moves entry to the front. Caller holds mu.
func (e *Engine) moveToHead(entry *model.InboxEntry) {
	for i, p := range e.entries {
		if p != entry {
			continue
		}
		if i > 0 {
			copy(e.entries[1:i+1], e.entries[:i])
			e.entries[0] = entry
		}
		return
	}
}

// Remove dismisses an entry.
func (e *Engine) Remove(id string) {
	id = common.NormalizeID(id)
	e.mu.Lock()
	before := len(e.entries)
	kept := e.entries[:0]
	for _, p := range e.entries {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	e.entries = kept
	changed := len(e.entries) != before
	if changed {
		e.save()
	}
	e.mu.Unlock()

	if changed {
		e.restartPolling()
		e.onChange()
	}
}

// MarkRead clears the unread flag of an entry.
func (e *Engine) MarkRead(id string) {
	e.mu.Lock()
	entry := e.find(common.NormalizeID(id))
	if entry == nil || !entry.Unread {
		e.mu.Unlock()
		return
	}
	entry.Unread = false
	entry.UpdatedAt = model.NewTimestamp(e.now())
	e.save()
	e.mu.Unlock()
	e.onChange()
}

// Prune drops entries whose last activity is older than ttl.
func (e *Engine) Prune(ttl time.Duration) int {
	if ttl < 0 {
		ttl = 0
	}
	cutoff := model.NewTimestamp(e.now().Add(-ttl))

	e.mu.Lock()
	before := len(e.entries)
	kept := e.entries[:0]
	for _, p := range e.entries {
		last := p.LastActivity()
		if last.IsZero() || last >= cutoff {
			kept = append(kept, p)
		}
	}
	e.entries = kept
	removed := before - len(e.entries)
	if removed > 0 {
		e.save()
	}
	e.mu.Unlock()

	if removed > 0 {
		e.restartPolling()
		e.onChange()
	}
	return removed
}

// Refresh re-reads the remote fields of a session and updates its entry.
// Concurrent calls for the same id share one remote round trip. Returns
// false when the entry is unknown or ctx is done before the read finishes.
func (e *Engine) Refresh(ctx context.Context, id string, silent bool) (model.InboxEntry, bool) {
	id = common.NormalizeID(id)
	if id == "" {
		return model.InboxEntry{}, false
	}
	ch := e.flight.DoChan(id, func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		entry, ok := e.refresh(rctx, id)
		if !ok {
			return nil, nil
		}
		return entry, nil
	})
	var v any
	select {
	case res := <-ch:
		v = res.Val
	case <-ctx.Done():
		return model.InboxEntry{}, false
	}
	entry, ok := v.(model.InboxEntry)
	if ok && !silent {
		e.onChange()
	}
	return entry, ok
}

// snapshot is the remote state of one session.
type snapshot struct {
	intent    string
	request   *model.SessionMeta
	offer     *model.SessionMeta
	shared    *model.SharedRecord
	status    *model.SessionStatus
	expiresAt model.Timestamp
}

// fetch reads every remote field of a session. Failed reads leave the field
// absent. The error is non-nil only when ctx ended during the read, in which
// case absent fields say nothing about the session.
func (e *Engine) fetch(ctx context.Context, id string) (snapshot, error) {
	var (
		s snapshot
		g errgroup.Group
	)
	absent := func(field string, err error) {
		if err != nil {
			e.log.Debug("remote read failed", zap.String("session", id), zap.String("field", field), zap.Error(err))
		}
	}
	g.Go(func() error {
		v, err := e.remote.GetIntent(ctx, id)
		absent("intent", err)
		s.intent = v
		return nil
	})
	g.Go(func() error {
		v, err := e.remote.GetRequest(ctx, id)
		absent("request", err)
		s.request = v
		return nil
	})
	g.Go(func() error {
		v, err := e.remote.GetOffer(ctx, id)
		absent("offer", err)
		s.offer = v
		return nil
	})
	g.Go(func() error {
		v, err := e.remote.GetShared(ctx, id)
		absent("shared", err)
		s.shared = v
		return nil
	})
	g.Go(func() error {
		v, err := e.remote.GetStatus(ctx, id)
		absent("status", err)
		s.status = v
		return nil
	})
	g.Go(func() error {
		v, err := e.remote.GetExpiresAt(ctx, id)
		absent("expiresAt", err)
		s.expiresAt = v
		return nil
	})
	_ = g.Wait()
	return s, ctx.Err()
}

func (e *Engine) refresh(ctx context.Context, id string) (model.InboxEntry, bool) {
	e.mu.Lock()
	known := e.find(id) != nil
	e.mu.Unlock()
	if !known {
		return model.InboxEntry{}, false
	}

	s, err := e.fetch(ctx, id)

	e.mu.Lock()
	defer e.mu.Unlock()
	entry := e.find(id)
	if entry == nil {
		return model.InboxEntry{}, false
	}
	if err != nil {
		e.log.Warn("refresh abandoned, keeping last known state", zap.String("session", id), zap.Error(err))
		return copyEntry(entry), true
	}

	meta := s.request
	if meta == nil {
		meta = s.offer
	}
	intent := strings.ToLower(s.intent)
	if intent == "" && meta != nil {
		intent = strings.ToLower(meta.Intent)
	}
	if intent != "" {
		entry.Intent = intent
	}

	switch {
	case meta != nil:
		if meta.Type != "" {
			entry.Type = meta.Type
		}
		if meta.Issuer != "" {
			entry.Issuer = meta.Issuer
		}
	case s.shared != nil:
		if s.shared.Type != "" {
			entry.Type = s.shared.Type
		}
		if s.shared.Issuer != "" {
			entry.Issuer = s.shared.Issuer
		}
	}
	if s.request != nil && s.request.Scenario != "" {
		entry.ScenarioID = strings.ToUpper(s.request.Scenario)
	}

	if title := e.scenarioTitle(entry.ScenarioID); title != "" {
		entry.Title = title
	} else if entry.Title == "" && entry.Type != "" && e.labels != nil {
		entry.Title = e.labels.LabelForType(entry.Type)
	}

	now := e.now()
	entry.UpdatedAt = model.NewTimestamp(now)
	info := DeriveStatus(Remote{Intent: entry.Intent, Status: s.status, Shared: s.shared, ExpiresAt: s.expiresAt}, now)
	entry.StatusInfo = &info
	if s.status != nil {
		if !s.status.CompletedAt.IsZero() {
			entry.CompletedAt = s.status.CompletedAt
		}
		if !s.status.ExpiredAt.IsZero() {
			entry.ExpiredAt = s.status.ExpiredAt
		}
	}
	if entry.ExpiredAt.IsZero() && !s.expiresAt.IsZero() {
		entry.ExpiredAt = s.expiresAt
	}
	e.save()
	return copyEntry(entry), true
}

func (e *Engine) scenarioTitle(id string) string {
	if id == "" || e.labels == nil {
		return ""
	}
	return e.labels.ScenarioTitle(id)
}

// RefreshAll refreshes every entry silently and calls the change hook once.
func (e *Engine) RefreshAll(ctx context.Context) {
	e.mu.Lock()
	ids := make([]string, len(e.entries))
	for i, p := range e.entries {
		ids[i] = p.ID
	}
	e.mu.Unlock()

	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		e.Refresh(ctx, id, true)
	}
	if len(ids) > 0 {
		e.onChange()
	}
}

// StartPolling arms the refresh timer if the list is not empty.
func (e *Engine) StartPolling() {
	e.restartPolling()
}

// Polling reports whether the refresh timer is armed.
func (e *Engine) Polling() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopPoll != nil
}

// restartPolling stops the current poller and starts a new one unless the
// list is empty or the engine is closed.
func (e *Engine) restartPolling() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopPoll != nil {
		e.stopPoll()
		e.stopPoll = nil
	}
	if e.closed || len(e.entries) == 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.stopPoll = cancel
	e.pollers.Add(1)
	go func() {
		defer e.pollers.Done()
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.RefreshAll(ctx)
			}
		}
	}()
}

// Close stops polling and waits for the poller to exit.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	if e.stopPoll != nil {
		e.stopPoll()
		e.stopPoll = nil
	}
	e.mu.Unlock()
	e.pollers.Wait()
}
