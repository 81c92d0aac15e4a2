package remote

import (
	"context"
	"sync"
	"time"

	"github.com/AlexZinkM/card-wallet/internal/model"
)

// Session is the full record kept by Memory.
type Session struct {
	ID        string               `json:"id"`
	Intent    string               `json:"intent,omitempty"`
	Type      string               `json:"type,omitempty"`
	Request   *model.SessionMeta   `json:"request,omitempty"`
	Offer     *model.SessionMeta   `json:"offer,omitempty"`
	Shared    *model.SharedRecord  `json:"shared,omitempty"`
	Response  *model.ShareResponse `json:"response,omitempty"`
	Status    model.SessionStatus  `json:"status"`
	ExpiresAt model.Timestamp      `json:"expiresAt,omitempty"`
}

// Memory is an in-process SessionStore. It enforces at-most-once
// consumption: once completed or expired, writes are rejected.
type Memory struct {
	mu       sync.Mutex
	sessions map[string]*Session
	watchers map[string]map[int]func()
	nextID   int
	now      func() time.Time
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string]*Session),
		watchers: make(map[string]map[int]func()),
		now:      time.Now,
	}
}

// Put creates or replaces a session record.
func (m *Memory) Put(s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := s
	m.sessions[s.ID] = &cp
}

// Snapshot returns a copy of a session record.
func (m *Memory) Snapshot(id string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Expire marks a session expired now and notifies subscribers.
func (m *Memory) Expire(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	if s.Status.ExpiredAt.IsZero() {
		s.Status.ExpiredAt = model.NewTimestamp(m.now())
	}
	fns := m.takeWatchers(id)
	m.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return nil
}

// ExpireDue expires every open session whose expiry time has passed and
// returns how many were expired.
func (m *Memory) ExpireDue() int {
	m.mu.Lock()
	now := m.now()
	var due []string
	for id, s := range m.sessions {
		if s.Status.ExpiredAt.IsZero() && s.Status.CompletedAt.IsZero() &&
			!s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt.Time()) {
			due = append(due, id)
		}
	}
	m.mu.Unlock()

	for _, id := range due {
		_ = m.Expire(id)
	}
	return len(due)
}

// takeWatchers removes and returns the watchers of id. Caller holds mu.
func (m *Memory) takeWatchers(id string) []func() {
	ws := m.watchers[id]
	delete(m.watchers, id)
	fns := make([]func(), 0, len(ws))
	for _, fn := range ws {
		fns = append(fns, fn)
	}
	return fns
}

func (m *Memory) get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil
	}
	cp := *s
	return &cp
}

func (m *Memory) GetIntent(_ context.Context, id string) (string, error) {
	if s := m.get(id); s != nil {
		return s.Intent, nil
	}
	return "", nil
}

func (m *Memory) GetType(_ context.Context, id string) (string, error) {
	if s := m.get(id); s != nil {
		return s.Type, nil
	}
	return "", nil
}

func (m *Memory) GetRequest(_ context.Context, id string) (*model.SessionMeta, error) {
	if s := m.get(id); s != nil {
		return s.Request, nil
	}
	return nil, nil
}

func (m *Memory) GetOffer(_ context.Context, id string) (*model.SessionMeta, error) {
	if s := m.get(id); s != nil {
		return s.Offer, nil
	}
	return nil, nil
}

func (m *Memory) GetShared(_ context.Context, id string) (*model.SharedRecord, error) {
	if s := m.get(id); s != nil {
		return s.Shared, nil
	}
	return nil, nil
}

func (m *Memory) GetStatus(_ context.Context, id string) (*model.SessionStatus, error) {
	if s := m.get(id); s != nil {
		st := s.Status
		return &st, nil
	}
	return nil, nil
}

func (m *Memory) GetExpiresAt(_ context.Context, id string) (model.Timestamp, error) {
	if s := m.get(id); s != nil {
		return s.ExpiresAt, nil
	}
	return 0, nil
}

// writable returns the session for a write. Caller holds mu.
func (m *Memory) writable(id string) (*Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if m.expired(s) {
		return nil, ErrSessionExpired
	}
	if !s.Status.CompletedAt.IsZero() {
		return nil, ErrSessionCompleted
	}
	return s, nil
}

func (m *Memory) expired(s *Session) bool {
	return !s.Status.ExpiredAt.IsZero() || (!s.ExpiresAt.IsZero() && !m.now().Before(s.ExpiresAt.Time()))
}

func (m *Memory) SetShared(_ context.Context, id string, rec *model.SharedRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.writable(id)
	if err != nil {
		return err
	}
	s.Shared = rec
	return nil
}

func (m *Memory) SetResponse(_ context.Context, id string, resp *model.ShareResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.writable(id)
	if err != nil {
		return err
	}
	s.Response = resp
	return nil
}

// MarkCompleted is idempotent; the first completion time is kept.
func (m *Memory) MarkCompleted(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if s.Status.CompletedAt.IsZero() {
		s.Status.CompletedAt = model.NewTimestamp(m.now())
	}
	return nil
}

// MarkScanned refuses expired sessions. Completed sessions stay scannable.
func (m *Memory) MarkScanned(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if m.expired(s) {
		return ErrSessionExpired
	}
	if s.Status.ScannedAt.IsZero() {
		s.Status.ScannedAt = model.NewTimestamp(m.now())
	}
	return nil
}

// OnExpired fires fn on Expire. An already expired session fires right away.
func (m *Memory) OnExpired(_ context.Context, id string, fn func()) (Subscription, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok && !s.Status.ExpiredAt.IsZero() {
		m.mu.Unlock()
		go fn()
		return SubscriptionFunc(func() error { return nil }), nil
	}
	m.nextID++
	key := m.nextID
	if m.watchers[id] == nil {
		m.watchers[id] = make(map[int]func())
	}
	m.watchers[id][key] = fn
	m.mu.Unlock()

	var once sync.Once
	return SubscriptionFunc(func() error {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.watchers[id], key)
			if len(m.watchers[id]) == 0 {
				delete(m.watchers, id)
			}
		})
		return nil
	}), nil
}

// Watchers returns the number of open expiry subscriptions for id.
func (m *Memory) Watchers(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.watchers[id])
}
