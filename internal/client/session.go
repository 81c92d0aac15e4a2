package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/AlexZinkM/card-wallet/internal/model"
	"github.com/AlexZinkM/card-wallet/internal/remote"
	"go.uber.org/zap"
)

// DefaultExpiryPoll is the status poll period of OnExpired subscriptions.
const DefaultExpiryPoll = 2 * time.Second

// SessionClient is a remote.SessionStore over the session daemon HTTP API
type SessionClient struct {
	baseURL    string
	client     *http.Client
	expiryPoll time.Duration
	log        *zap.Logger
}

var _ remote.SessionStore = (*SessionClient)(nil)

// NewSessionClient creates a new session store client
func NewSessionClient(baseURL string, expiryPoll time.Duration, log *zap.Logger) *SessionClient {
	if expiryPoll <= 0 {
		expiryPoll = DefaultExpiryPoll
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		expiryPoll: expiryPoll,
		log:        log.Named("session-client"),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *SessionClient) url(id string, parts ...string) string {
	u := c.baseURL + "/sessions/" + url.PathEscape(id)
	for _, p := range parts {
		u += "/" + p
	}
	return u
}

// getField reads one field. A JSON null leaves out untouched.
func (c *SessionClient) getField(ctx context.Context, id, field string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(id, field), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", field, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to get %s: status %d", field, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", field, err)
	}
	return nil
}

// send issues a write and maps error statuses to remote errors.
func (c *SessionClient) send(ctx context.Context, method, target string, body any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusCreated:
		return nil
	case http.StatusNotFound:
		return remote.ErrSessionNotFound
	case http.StatusConflict:
		return remote.ErrSessionCompleted
	case http.StatusGone:
		return remote.ErrSessionExpired
	}
	var e model.ErrorResponse
	if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
		return fmt.Errorf("request failed: status %d: %s", resp.StatusCode, e.Error)
	}
	return fmt.Errorf("request failed: status %d", resp.StatusCode)
}

func (c *SessionClient) GetIntent(ctx context.Context, id string) (string, error) {
	var v string
	err := c.getField(ctx, id, "intent", &v)
	return v, err
}

func (c *SessionClient) GetType(ctx context.Context, id string) (string, error) {
	var v string
	err := c.getField(ctx, id, "type", &v)
	return v, err
}

func (c *SessionClient) GetRequest(ctx context.Context, id string) (*model.SessionMeta, error) {
	var v *model.SessionMeta
	err := c.getField(ctx, id, "request", &v)
	return v, err
}

func (c *SessionClient) GetOffer(ctx context.Context, id string) (*model.SessionMeta, error) {
	var v *model.SessionMeta
	err := c.getField(ctx, id, "offer", &v)
	return v, err
}

func (c *SessionClient) GetShared(ctx context.Context, id string) (*model.SharedRecord, error) {
	var v *model.SharedRecord
	err := c.getField(ctx, id, "shared", &v)
	return v, err
}

func (c *SessionClient) GetStatus(ctx context.Context, id string) (*model.SessionStatus, error) {
	var v *model.SessionStatus
	err := c.getField(ctx, id, "status", &v)
	return v, err
}

func (c *SessionClient) GetExpiresAt(ctx context.Context, id string) (model.Timestamp, error) {
	var v model.Timestamp
	err := c.getField(ctx, id, "expiresAt", &v)
	return v, err
}

func (c *SessionClient) SetShared(ctx context.Context, id string, rec *model.SharedRecord) error {
	return c.send(ctx, http.MethodPut, c.url(id, "shared"), rec)
}

func (c *SessionClient) SetResponse(ctx context.Context, id string, resp *model.ShareResponse) error {
	return c.send(ctx, http.MethodPut, c.url(id, "response"), resp)
}

func (c *SessionClient) MarkCompleted(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodPost, c.url(id, "complete"), nil)
}

func (c *SessionClient) MarkScanned(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodPost, c.url(id, "scan"), nil)
}

// Expire asks the daemon to expire a session.
func (c *SessionClient) Expire(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodPost, c.url(id, "expire"), nil)
}

// CreateSession creates a session on the daemon.
func (c *SessionClient) CreateSession(ctx context.Context, in model.CreateSessionRequest) (model.CreateSessionResponse, error) {
	var out model.CreateSessionResponse
	raw, err := json.Marshal(in)
	if err != nil {
		return out, fmt.Errorf("failed to encode session: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sessions", bytes.NewReader(raw))
	if err != nil {
		return out, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return out, fmt.Errorf("failed to create session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return out, fmt.Errorf("failed to create session: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("failed to decode session: %w", err)
	}
	return out, nil
}

// OnExpired polls the session status and calls fn once it has expired.
// Polling stops after fn runs or when the subscription is closed.
func (c *SessionClient) OnExpired(ctx context.Context, id string, fn func()) (remote.Subscription, error) {
	pollCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(c.expiryPoll)
		defer ticker.Stop()
		for {
			if c.expired(pollCtx, id) {
				fn()
				return
			}
			select {
			case <-pollCtx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	var once sync.Once
	return remote.SubscriptionFunc(func() error {
		once.Do(func() {
			cancel()
			<-done
		})
		return nil
	}), nil
}

func (c *SessionClient) expired(ctx context.Context, id string) bool {
	st, err := c.GetStatus(ctx, id)
	if err != nil {
		if ctx.Err() == nil {
			c.log.Debug("status poll failed", zap.String("session", id), zap.Error(err))
		}
		return false
	}
	return st != nil && !st.ExpiredAt.IsZero()
}
