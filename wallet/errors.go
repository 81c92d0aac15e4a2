package wallet

import "errors"

var (
	ErrNoSession        = errors.New("no actionable session")
	ErrNoShare          = errors.New("no pending share")
	ErrSessionExpired   = errors.New("session expired, ask for a new QR code")
	ErrSessionFinalized = errors.New("session already finished")
	ErrNoFieldsSelected = errors.New("select at least one field to share")
	ErrMissingRequired  = errors.New("missing required")
	ErrNoCandidates     = errors.New("no matching card")
	ErrInvalidCard      = errors.New("invalid card selection")
	ErrCancelled        = errors.New("cancelled")
	ErrPINRejected      = errors.New("wrong PIN")
)
