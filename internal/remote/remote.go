// Package remote defines the session-record store the wallet talks to.
//
// A session record holds an intent, a request (share) or offer (add) record,
// the shared/response records written back by the wallet, lifecycle
// timestamps and an expiry. Every operation is fallible; absent fields are
// reported as zero values with a nil error.
package remote

import (
	"context"
	"errors"

	"github.com/AlexZinkM/card-wallet/internal/model"
)

var (
	// ErrSessionNotFound is returned by writes to an unknown session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionCompleted is returned by writes to a consumed session.
	ErrSessionCompleted = errors.New("session already completed")
	// ErrSessionExpired is returned by writes to an expired session.
	ErrSessionExpired = errors.New("session expired")
)

// SessionStore is the remote session-record store.
type SessionStore interface {
	GetIntent(ctx context.Context, id string) (string, error)
	GetType(ctx context.Context, id string) (string, error)
	GetRequest(ctx context.Context, id string) (*model.SessionMeta, error)
	GetOffer(ctx context.Context, id string) (*model.SessionMeta, error)
	GetShared(ctx context.Context, id string) (*model.SharedRecord, error)
	GetStatus(ctx context.Context, id string) (*model.SessionStatus, error)
	GetExpiresAt(ctx context.Context, id string) (model.Timestamp, error)

	SetShared(ctx context.Context, id string, rec *model.SharedRecord) error
	SetResponse(ctx context.Context, id string, resp *model.ShareResponse) error
	MarkCompleted(ctx context.Context, id string) error
	MarkScanned(ctx context.Context, id string) error

	// OnExpired calls fn once when the session expires. The subscription
	// must be closed by the caller.
	OnExpired(ctx context.Context, id string, fn func()) (Subscription, error)
}

// Subscription is a cancellable event subscription.
type Subscription interface {
	Close() error
}

// SubscriptionFunc adapts a function to Subscription.
type SubscriptionFunc func() error

func (f SubscriptionFunc) Close() error { return f() }
