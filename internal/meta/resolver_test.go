package meta

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AlexZinkM/card-wallet/internal/model"
	"github.com/AlexZinkM/card-wallet/internal/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// countingStore counts request and offer reads and can fail them.
type countingStore struct {
	*remote.Memory
	requests atomic.Int32
	offers   atomic.Int32
	fail     bool
	// appearAfter makes the request visible only from this read on.
	appearAfter int32
	request     *model.SessionMeta
}

func (s *countingStore) GetRequest(ctx context.Context, id string) (*model.SessionMeta, error) {
	n := s.requests.Add(1)
	if s.fail {
		return nil, errors.New("unavailable")
	}
	if s.request != nil && n >= s.appearAfter {
		return s.request, nil
	}
	return s.Memory.GetRequest(ctx, id)
}

func (s *countingStore) GetOffer(ctx context.Context, id string) (*model.SessionMeta, error) {
	s.offers.Add(1)
	if s.fail {
		return nil, errors.New("unavailable")
	}
	return s.Memory.GetOffer(ctx, id)
}

var fast = Options{PreferRequest: true, Retries: 3, Delay: time.Millisecond}

func TestResolveCachesIdenticalRecord(t *testing.T) {
	mem := remote.NewMemory()
	mem.Put(remote.Session{ID: "s1", Request: &model.SessionMeta{Intent: model.IntentUseCard, Type: "PID"}})
	rs := &countingStore{Memory: mem}
	r := NewResolver(rs, nil)

	first := r.Resolve(context.Background(), "s1", fast)
	require.NotNil(t, first)
	reads := rs.requests.Load()

	second := r.Resolve(context.Background(), " s1 ", fast)
	assert.Same(t, first, second)
	assert.Equal(t, reads, rs.requests.Load(), "cached lookup must not read remotely")
}

func TestResolvePrefersOffer(t *testing.T) {
	mem := remote.NewMemory()
	offer := &model.SessionMeta{Type: "DIPLOMA"}
	mem.Put(remote.Session{ID: "s1", Request: &model.SessionMeta{Type: "PID"}, Offer: offer})
	r := NewResolver(mem, nil)

	got := r.Resolve(context.Background(), "s1", Options{Retries: 0, Delay: time.Millisecond})
	assert.Same(t, offer, got)
}

func TestResolveRetriesUntilRecordAppears(t *testing.T) {
	req := &model.SessionMeta{Type: "PID"}
	rs := &countingStore{Memory: remote.NewMemory(), request: req, appearAfter: 3}
	r := NewResolver(rs, nil)

	got := r.Resolve(context.Background(), "s1", fast)
	assert.Same(t, req, got)
	assert.Equal(t, int32(3), rs.requests.Load())
}

func TestResolveExhaustsToNil(t *testing.T) {
	rs := &countingStore{Memory: remote.NewMemory(), fail: true}
	r := NewResolver(rs, nil)

	assert.Nil(t, r.Resolve(context.Background(), "s1", fast))
	assert.Equal(t, int32(1+fast.Retries), rs.requests.Load())
	assert.Equal(t, int32(1+fast.Retries), rs.offers.Load())
	assert.Nil(t, r.Cached("s1"))
}

func TestResolveUsesRecordRememberedBetweenAttempts(t *testing.T) {
	rs := &countingStore{Memory: remote.NewMemory()}
	r := NewResolver(rs, nil)
	remembered := &model.SessionMeta{Type: "PID"}

	done := make(chan *model.SessionMeta)
	go func() {
		done <- r.Resolve(context.Background(), "s1", Options{PreferRequest: true, Retries: 50, Delay: 5 * time.Millisecond})
	}()
	time.Sleep(10 * time.Millisecond)
	r.Remember("s1", remembered)

	select {
	case got := <-done:
		assert.Same(t, remembered, got)
	case <-time.After(2 * time.Second):
		t.Fatal("resolve did not pick up the remembered record")
	}
}

func TestRememberFirstWriterWins(t *testing.T) {
	r := NewResolver(remote.NewMemory(), nil)
	a := &model.SessionMeta{Type: "A"}
	b := &model.SessionMeta{Type: "B"}

	assert.Same(t, a, r.Remember("s1", a))
	assert.Same(t, a, r.Remember("s1", b))
	assert.Same(t, a, r.Cached("s1"))
	assert.Nil(t, r.Cached(""))
}

func TestResolveEmptyID(t *testing.T) {
	r := NewResolver(remote.NewMemory(), nil)
	assert.Nil(t, r.Resolve(context.Background(), "  ", fast))
}

func TestResolveStopsOnCancel(t *testing.T) {
	r := NewResolver(remote.NewMemory(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Nil(t, r.Resolve(ctx, "s1", Options{Retries: 100, Delay: time.Hour}))
}
