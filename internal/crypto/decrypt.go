package crypto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidPassphrase is returned when an envelope does not open with the derived key.
var ErrInvalidPassphrase = errors.New("invalid passphrase")

// Open decrypts an envelope produced by Seal with the same additional data.
func (s *Sealer) Open(envelope string, additional []byte) ([]byte, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(envelope), &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}

	nonce, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to decode nonce: %w", err)
	}
	if len(nonce) != s.aead.NonceSize() {
		return nil, errors.New("invalid nonce length")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(env.CipherText)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	plaintext, err := s.aead.Open(nil, nonce, ciphertext, additional)
	if err != nil {
		return nil, ErrInvalidPassphrase
	}
	return plaintext, nil
}
