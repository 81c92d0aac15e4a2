package model

// Card is a locally stored unit of credential data.
type Card struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"` // canonical, see common.CanonicalType
	Issuer    string         `json:"issuer"`
	IssuedAt  Timestamp      `json:"issuedAt,omitempty"`
	ExpiresAt Timestamp      `json:"expiresAt,omitempty"`
	Expanded  bool           `json:"expanded"`
	Payload   map[string]any `json:"payload"`
}

// HasField reports whether the payload carries key.
func (c *Card) HasField(key string) bool {
	if c == nil || c.Payload == nil {
		return false
	}
	_, ok := c.Payload[key]
	return ok
}

// CardValidity is the derived validity of a card.
type CardValidity string

const (
	CardValid   CardValidity = "valid"
	CardExpired CardValidity = "expired"
)

// WalletState is the persisted wallet blob.
type WalletState struct {
	Cards []Card `json:"cards"`
}

// Settings is the persisted app settings blob.
type Settings struct {
	HideSeedPrompt      bool `json:"hideSeedPrompt"`
	AdvancedSeedOptions bool `json:"advancedSeedOptions"`
}
