// Package meta resolves the request or offer record of a session and caches it
// for the lifetime of the wallet process.
package meta

import (
	"context"
	"sync"
	"time"

	"github.com/AlexZinkM/card-wallet/internal/common"
	"github.com/AlexZinkM/card-wallet/internal/model"
	"github.com/AlexZinkM/card-wallet/internal/poll"
	"github.com/AlexZinkM/card-wallet/internal/remote"
	"go.uber.org/zap"
)

const (
	DefaultRetries = 10
	DefaultDelay   = 150 * time.Millisecond
)

// Options control a single resolution.
type Options struct {
	// PreferRequest queries the request record before the offer record.
	PreferRequest bool
	Retries       int
	Delay         time.Duration
}

// Resolver looks up session meta records with bounded retries.
type Resolver struct {
	remote remote.SessionStore
	log    *zap.Logger

	mu    sync.RWMutex
	cache map[string]*model.SessionMeta
}

// NewResolver creates a resolver reading from rs.
func NewResolver(rs remote.SessionStore, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		remote: rs,
		log:    log.Named("meta"),
		cache:  make(map[string]*model.SessionMeta),
	}
}

// Cached returns the cached record of id, if any.
func (r *Resolver) Cached(id string) *model.SessionMeta {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cache[common.NormalizeID(id)]
}

// Remember caches m for id unless a record is already cached, and returns
// the record that ends up cached.
func (r *Resolver) Remember(id string, m *model.SessionMeta) *model.SessionMeta {
	id = common.NormalizeID(id)
	if id == "" || m == nil {
		return m
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.cache[id]; ok {
		return cur
	}
	r.cache[id] = m
	return m
}

// Resolve returns the meta record of a session or nil when none appears
// within opts.Retries attempts. Remote failures count as absent records.
func (r *Resolver) Resolve(ctx context.Context, id string, opts Options) *model.SessionMeta {
	id = common.NormalizeID(id)
	if id == "" {
		return nil
	}
	if m := r.Cached(id); m != nil {
		return m
	}

	m, ok := poll.Until(ctx, poll.Options{Attempts: opts.Retries, Interval: opts.Delay},
		func(ctx context.Context) (*model.SessionMeta, bool) {
			m := r.fetchOnce(ctx, id, opts.PreferRequest)
			return m, m != nil
		})
	if !ok {
		r.log.Debug("no meta record", zap.String("session", id), zap.Int("retries", opts.Retries))
		return nil
	}
	return r.Remember(id, m)
}

func (r *Resolver) fetchOnce(ctx context.Context, id string, preferRequest bool) *model.SessionMeta {
	getters := []func(context.Context, string) (*model.SessionMeta, error){r.remote.GetRequest, r.remote.GetOffer}
	if !preferRequest {
		getters[0], getters[1] = getters[1], getters[0]
	}
	for _, get := range getters {
		m, err := get(ctx, id)
		if err != nil {
			r.log.Debug("meta read failed", zap.String("session", id), zap.Error(err))
			continue
		}
		if m != nil {
			return m
		}
	}
	return r.Cached(id)
}
