package model

// CardView represents a card with its display fields
type CardView struct {
	Card
	Title    string         `json:"title"`
	Validity CardValidity   `json:"validity"`
	Fields   []FieldDisplay `json:"fields"`
}

// SeedRequest represents request for POST /cards/seed
type SeedRequest struct {
	Set string `json:"set,omitempty" example:"default"`
}

// CaptureRequest represents request for POST /inbox/capture
type CaptureRequest struct {
	URL string `json:"url" example:"http://localhost:8080/?session=abc&intent=use_card"`
}

// CaptureResponse represents response for POST /inbox/capture
type CaptureResponse struct {
	Captured bool        `json:"captured"`
	URL      string      `json:"url"` // the URL without session parameters
	Entry    *InboxEntry `json:"entry,omitempty"`
}

// ScanRequest represents request for POST /scan
type ScanRequest struct {
	SessionID string `json:"sessionId" example:"0b6f8c1e-4f5e-4c53-9d8e-2f1f0f1a6c2d"`
}
