package model

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest       = "bad_request"
	CodeNotFound         = "not_found"
	CodeSessionCompleted = "session_completed"
	CodeSessionExpired   = "session_expired"
	CodeSessionFinalized = "session_finalized"
	CodeNoFields         = "no_fields_selected"
	CodeMissingRequired  = "missing_required"
	CodeNoShare          = "no_pending_share"
	CodeNoSession        = "no_session"
	CodePINRejected      = "pin_rejected"
	CodeInternal         = "internal"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
