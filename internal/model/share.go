package model

// ShareField is one payload field of the selected candidate card.
type ShareField struct {
	FieldDisplay
	Required bool `json:"required"`
	Selected bool `json:"selected"`
}

// ShareView represents the pending share as shown to the user
type ShareView struct {
	SessionID     string `json:"sessionId"`
	State         string `json:"state"`
	Title         string `json:"title"`
	RequestedType string `json:"requestedType,omitempty"`
	Candidates    []Card `json:"candidates"`
	Selected      int    `json:"selected"`
	// Fallback is set when the only card was offered without a type match.
	Fallback        bool         `json:"fallback,omitempty"`
	Fields          []ShareField `json:"fields"`
	MissingRequired []string     `json:"missingRequired,omitempty"`
	Expired         bool         `json:"expired"`
	Outcome         string       `json:"outcome,omitempty"`
}

// FlowResponse represents the result of a scan, open or confirm action
type FlowResponse struct {
	SessionID      string     `json:"sessionId"`
	Intent         string     `json:"intent,omitempty"`
	State          string     `json:"state"`
	Outcome        string     `json:"outcome,omitempty"`
	SelectedFields []string   `json:"selectedFields,omitempty"`
	Card           *Card      `json:"card,omitempty"`
	Share          *ShareView `json:"share,omitempty"`
}

// SelectCardRequest represents request for PUT /share/card
type SelectCardRequest struct {
	Index int `json:"index" example:"0"`
}

// SetFieldRequest represents request for PUT /share/fields
type SetFieldRequest struct {
	Field    string `json:"field" example:"bsn"`
	Selected bool   `json:"selected"`
}

// ConfirmRequest represents request for POST /share/confirm and POST /inbox/{id}/open
type ConfirmRequest struct {
	PIN string `json:"pin" example:"123456"`
}
