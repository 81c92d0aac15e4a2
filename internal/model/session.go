package model

// Session intents as written by the relying party.
const (
	IntentUseCard = "use_card"
	IntentAddCard = "add_card"
)

// Share outcomes written to the response record.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
)

// RecordVersion is the version stamped on every shared/response record.
const RecordVersion = 1

// AttributeSet declares which fields a requester needs.
type AttributeSet struct {
	Required []string `json:"required,omitempty" yaml:"required,omitempty" toml:"required,omitempty"`
	Optional []string `json:"optional,omitempty" yaml:"optional,omitempty" toml:"optional,omitempty"`
}

// Empty reports whether no field is declared.
func (a *AttributeSet) Empty() bool {
	return a == nil || (len(a.Required) == 0 && len(a.Optional) == 0)
}

// Scope wraps attributes in request records that nest them.
type Scope struct {
	Attributes *AttributeSet `json:"attributes,omitempty"`
}

// SessionMeta is a request (share) or offer (add) record.
type SessionMeta struct {
	Intent     string         `json:"intent,omitempty"`
	Type       string         `json:"type,omitempty"`
	Issuer     string         `json:"issuer,omitempty"`
	Scenario   string         `json:"scenario,omitempty"`
	Title      string         `json:"title,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	Attributes *AttributeSet  `json:"attributes,omitempty"`
	Scope      *Scope         `json:"scope,omitempty"`
}

// DeclaredAttributes returns attributes set directly on the record, if any.
func (m *SessionMeta) DeclaredAttributes() *AttributeSet {
	if m == nil {
		return nil
	}
	if m.Attributes != nil {
		return m.Attributes
	}
	if m.Scope != nil && m.Scope.Attributes != nil {
		return m.Scope.Attributes
	}
	return nil
}

// PayloadIntent returns an intent embedded in the payload, if present.
func (m *SessionMeta) PayloadIntent() string {
	if m == nil || m.Payload == nil {
		return ""
	}
	s, _ := m.Payload["intent"].(string)
	return s
}

// SessionStatus holds the lifecycle timestamps of a remote session.
type SessionStatus struct {
	ScannedAt   Timestamp `json:"scannedAt,omitempty"`
	CompletedAt Timestamp `json:"completedAt,omitempty"`
	ExpiredAt   Timestamp `json:"expiredAt,omitempty"`
}

// SharedRecord is the raw data handed to the relying party.
type SharedRecord struct {
	Outcome       string         `json:"outcome,omitempty"`
	Error         string         `json:"error,omitempty"`
	RequestedType string         `json:"requestedType,omitempty"`
	Type          string         `json:"type,omitempty"`
	Issuer        string         `json:"issuer,omitempty"`
	Payload       map[string]any `json:"payload,omitempty"`
	Version       int            `json:"version"`
}

// ResultOutcome returns the outcome the record represents.
// Records written for a missing card carry it as error.
func (r *SharedRecord) ResultOutcome() string {
	if r == nil {
		return ""
	}
	if r.Outcome != "" {
		return r.Outcome
	}
	if r.Error == OutcomeNotFound {
		return OutcomeNotFound
	}
	return ""
}

// ShareResponse is the structured response envelope.
type ShareResponse struct {
	Outcome        string         `json:"outcome"`
	RequestedType  string         `json:"requestedType,omitempty"`
	Type           string         `json:"type,omitempty"`
	Issuer         string         `json:"issuer,omitempty"`
	Payload        map[string]any `json:"payload,omitempty"`
	SelectedFields []string       `json:"selectedFields,omitempty"`
	Version        int            `json:"version"`
}
