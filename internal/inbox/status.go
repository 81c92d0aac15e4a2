package inbox

import (
	"strings"
	"time"

	"github.com/AlexZinkM/card-wallet/internal/model"
)

// Remote is the raw remote view of a session used to derive its status.
type Remote struct {
	Intent    string
	Status    *model.SessionStatus
	Shared    *model.SharedRecord
	ExpiresAt model.Timestamp
}

// DeriveStatus maps remote fields to a status, first match wins:
// expired, not_found, shared/added, scanned, pending.
func DeriveStatus(r Remote, now time.Time) model.StatusInfo {
	useCard := strings.ToLower(r.Intent) == model.IntentUseCard

	var st model.SessionStatus
	if r.Status != nil {
		st = *r.Status
	}
	expiredAt := st.ExpiredAt
	if expiredAt.IsZero() {
		expiredAt = r.ExpiresAt
	}
	outcome := r.Shared.ResultOutcome()

	switch {
	case !expiredAt.IsZero() && !expiredAt.Time().After(now):
		return model.StatusInfo{Code: model.StatusExpired, Label: "Expired",
			Description: "Request expired; ask for a new QR code."}
	case outcome == model.OutcomeNotFound:
		return model.StatusInfo{Code: model.StatusNotFound, Label: "Not shared",
			Description: "No data shared; the session code no longer works."}
	case outcome == model.OutcomeOK || !st.CompletedAt.IsZero():
		if useCard {
			return model.StatusInfo{Code: model.StatusShared, Label: "Shared",
				Description: "Request processed; the session code is now invalid."}
		}
		return model.StatusInfo{Code: model.StatusAdded, Label: "Added",
			Description: "Request used; the session code no longer works."}
	case !st.ScannedAt.IsZero():
		if useCard {
			return model.StatusInfo{Code: model.StatusScanned, Label: "Sharing in progress"}
		}
		return model.StatusInfo{Code: model.StatusScanned, Label: "Adding in progress"}
	case useCard:
		return model.StatusInfo{Code: model.StatusPendingShare, Label: "Request waiting for you"}
	}
	return model.StatusInfo{Code: model.StatusPendingOffer, Label: "Data ready"}
}
