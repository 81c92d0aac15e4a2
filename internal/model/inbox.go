package model

// Status codes of an inbox entry.
const (
	StatusExpired      = "expired"
	StatusNotFound     = "not_found"
	StatusShared       = "shared"
	StatusAdded        = "added"
	StatusScanned      = "scanned"
	StatusPendingShare = "pending-share"
	StatusPendingOffer = "pending-offer"
)

// StatusInfo is derived from remote fields on every refresh.
type StatusInfo struct {
	Code        string `json:"code"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// Final reports whether the session can no longer be acted on.
func (s *StatusInfo) Final() bool {
	if s == nil {
		return false
	}
	switch s.Code {
	case StatusAdded, StatusShared, StatusNotFound, StatusExpired:
		return true
	}
	return false
}

// InboxEntry is the local summary of a known session.
type InboxEntry struct {
	ID          string      `json:"id"`
	Intent      string      `json:"intent"`
	Type        string      `json:"type"`
	Source      string      `json:"source"`
	Title       string      `json:"title"`
	ScenarioID  string      `json:"scenarioId"`
	Issuer      string      `json:"issuer"`
	AddedAt     Timestamp   `json:"addedAt"`
	UpdatedAt   Timestamp   `json:"updatedAt"`
	CompletedAt Timestamp   `json:"completedAt,omitempty"`
	ExpiredAt   Timestamp   `json:"expiredAt,omitempty"`
	Unread      bool        `json:"unread"`
	StatusInfo  *StatusInfo `json:"statusInfo,omitempty"`
}

// LastActivity is the completion time, else update time, else creation time.
func (e *InboxEntry) LastActivity() Timestamp {
	if !e.CompletedAt.IsZero() {
		return e.CompletedAt
	}
	if !e.UpdatedAt.IsZero() {
		return e.UpdatedAt
	}
	return e.AddedAt
}

// InboxPatch carries the fields to merge into an entry. Nil fields are left alone.
type InboxPatch struct {
	Intent      *string
	Type        *string
	Source      *string
	Title       *string
	ScenarioID  *string
	Issuer      *string
	CompletedAt *Timestamp
	ExpiredAt   *Timestamp
	Unread      *bool
	StatusInfo  *StatusInfo
}
