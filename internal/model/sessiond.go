package model

import (
	"errors"
	"strings"
)

// CreateSessionRequest represents request for POST /sessions
type CreateSessionRequest struct {
	Intent     string         `json:"intent" example:"use_card"`
	Type       string         `json:"type" example:"PID"`
	Issuer     string         `json:"issuer,omitempty"`
	Scenario   string         `json:"scenario,omitempty"`
	Title      string         `json:"title,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	Attributes *AttributeSet  `json:"attributes,omitempty"`
	TTLSeconds int            `json:"ttlSeconds,omitempty" example:"300"`
}

// Validate checks the request and normalizes the intent.
func (r *CreateSessionRequest) Validate() error {
	r.Intent = strings.ToLower(strings.TrimSpace(r.Intent))
	switch r.Intent {
	case IntentUseCard:
	case IntentAddCard:
		if strings.TrimSpace(r.Type) == "" {
			return errors.New("type is required for add_card sessions")
		}
	default:
		return errors.New("intent must be use_card or add_card")
	}
	if r.TTLSeconds < 0 {
		return errors.New("ttlSeconds must not be negative")
	}
	return nil
}

// CreateSessionResponse represents response for POST /sessions
type CreateSessionResponse struct {
	ID        string    `json:"id"`
	Deeplink  string    `json:"deeplink"`
	ExpiresAt Timestamp `json:"expiresAt"`
}
