package remote

import (
	"context"
	"testing"
	"time"

	"github.com/AlexZinkM/card-wallet/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMemoryMissingSessionReadsAbsent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	intent, err := m.GetIntent(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, intent)

	req, err := m.GetRequest(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, req)

	assert.ErrorIs(t, m.MarkScanned(ctx, "nope"), ErrSessionNotFound)
}

func TestMemoryRejectsWritesAfterCompletion(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Put(Session{ID: "s1", Intent: model.IntentUseCard})

	require.NoError(t, m.SetShared(ctx, "s1", &model.SharedRecord{Type: "PID", Version: model.RecordVersion}))
	require.NoError(t, m.MarkCompleted(ctx, "s1"))

	st, err := m.GetStatus(ctx, "s1")
	require.NoError(t, err)
	first := st.CompletedAt
	assert.False(t, first.IsZero())

	// idempotent
	require.NoError(t, m.MarkCompleted(ctx, "s1"))
	st, _ = m.GetStatus(ctx, "s1")
	assert.Equal(t, first, st.CompletedAt)

	err = m.SetResponse(ctx, "s1", &model.ShareResponse{Outcome: model.OutcomeOK})
	assert.ErrorIs(t, err, ErrSessionCompleted)
}

func TestMemoryRejectsWritesAfterExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Put(Session{ID: "s1"})
	require.NoError(t, m.Expire("s1"))

	assert.ErrorIs(t, m.SetShared(ctx, "s1", &model.SharedRecord{}), ErrSessionExpired)
	assert.ErrorIs(t, m.MarkScanned(ctx, "s1"), ErrSessionExpired)

	m.Put(Session{ID: "s2", ExpiresAt: model.NewTimestamp(time.Now().Add(-time.Second))})
	assert.ErrorIs(t, m.SetShared(ctx, "s2", &model.SharedRecord{}), ErrSessionExpired)
	assert.ErrorIs(t, m.MarkScanned(ctx, "s2"), ErrSessionExpired)

	m.Put(Session{ID: "s3"})
	require.NoError(t, m.MarkCompleted(ctx, "s3"))
	assert.NoError(t, m.MarkScanned(ctx, "s3"))
}

func TestMemoryOnExpired(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Put(Session{ID: "s1"})

	fired := make(chan struct{}, 1)
	sub, err := m.OnExpired(ctx, "s1", func() { fired <- struct{}{} })
	require.NoError(t, err)
	assert.Equal(t, 1, m.Watchers("s1"))

	require.NoError(t, m.Expire("s1"))
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("expiry callback not called")
	}
	assert.Equal(t, 0, m.Watchers("s1"))
	require.NoError(t, sub.Close())
}

func TestMemoryOnExpiredClosedSubscriptionIsSilent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Put(Session{ID: "s1"})

	called := false
	sub, err := m.OnExpired(ctx, "s1", func() { called = true })
	require.NoError(t, err)
	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	require.NoError(t, m.Expire("s1"))
	assert.False(t, called)
}

func TestMemoryOnExpiredAlreadyExpired(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Put(Session{ID: "s1"})
	require.NoError(t, m.Expire("s1"))

	fired := make(chan struct{})
	sub, err := m.OnExpired(ctx, "s1", func() { close(fired) })
	require.NoError(t, err)
	defer sub.Close()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("expiry callback not called for expired session")
	}
}

func TestMemoryExpireDue(t *testing.T) {
	m := NewMemory()
	past := model.NewTimestamp(time.Now().Add(-time.Minute))
	m.Put(Session{ID: "due", ExpiresAt: past})
	m.Put(Session{ID: "done", ExpiresAt: past, Status: model.SessionStatus{CompletedAt: past}})
	m.Put(Session{ID: "open", ExpiresAt: model.NewTimestamp(time.Now().Add(time.Hour))})

	assert.Equal(t, 1, m.ExpireDue())
	s, _ := m.Snapshot("due")
	assert.False(t, s.Status.ExpiredAt.IsZero())
	s, _ = m.Snapshot("open")
	assert.True(t, s.Status.ExpiredAt.IsZero())
	assert.Equal(t, 0, m.ExpireDue())
}
