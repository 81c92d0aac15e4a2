package model

import (
	"fmt"
	"strings"
)

// InboxQuery represents filter parameters for GET /inbox
type InboxQuery struct {
	Status *string `form:"status"`
	Intent *string `form:"intent"`
	Unread *bool   `form:"unread"`
}

// Validate validates InboxQuery filter parameters.
func (q *InboxQuery) Validate() error {
	if q.Status != nil {
		switch *q.Status {
		case StatusExpired, StatusNotFound, StatusShared, StatusAdded,
			StatusScanned, StatusPendingShare, StatusPendingOffer:
		default:
			return fmt.Errorf("unknown status %q", *q.Status)
		}
	}
	if q.Intent != nil {
		v := strings.ToLower(*q.Intent)
		if v != IntentUseCard && v != IntentAddCard {
			return fmt.Errorf("intent must be use_card or add_card")
		}
		q.Intent = &v
	}
	return nil
}

// Match reports whether e passes the filter.
func (q *InboxQuery) Match(e InboxEntry) bool {
	if q.Status != nil && (e.StatusInfo == nil || e.StatusInfo.Code != *q.Status) {
		return false
	}
	if q.Intent != nil && e.Intent != *q.Intent {
		return false
	}
	if q.Unread != nil && e.Unread != *q.Unread {
		return false
	}
	return true
}
