package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

const (
	// scrypt parameters for the local wallet state
	// Security is prioritized over performance
	//
	// N=2^18 (~256MB RAM, 0.5-2s) is paid once per process: the key is derived
	// when the store is opened, not per blob write.
	scryptN      = 1 << 18
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	SaltLen      = 32
	nonceLen     = 12
)

// Params are the scrypt cost parameters.
type Params struct {
	N int
	R int
	P int
}

// DefaultParams returns the production scrypt parameters.
func DefaultParams() Params {
	return Params{N: scryptN, R: scryptR, P: scryptP}
}

// Envelope is the sealed form of a blob.
type Envelope struct {
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipherText"`
}

// Sealer encrypts and decrypts blobs with a key derived from a passphrase.
type Sealer struct {
	aead cipher.AEAD
}

// NewSalt returns a fresh random salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// NewSealer derives the key from passphrase and salt.
// passphrase should be zeroed by the caller after use
func NewSealer(passphrase, salt []byte, params Params) (*Sealer, error) {
	if len(passphrase) == 0 {
		return nil, errors.New("passphrase cannot be empty")
	}
	if len(salt) == 0 {
		return nil, errors.New("salt cannot be empty")
	}

	// Derive key from passphrase
	key, err := scrypt.Key(passphrase, salt, params.N, params.R, params.P, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	// Create AES cipher
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	// Create GCM
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Sealer{aead: aesGCM}, nil
}

// Seal encrypts plaintext into a JSON envelope string.
// additional binds the envelope to its storage key.
func (s *Sealer) Seal(plaintext, additional []byte) (string, error) {
	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := s.aead.Seal(nil, nonce, plaintext, additional)

	data, err := json.Marshal(Envelope{
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(ciphertext),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return string(data), nil
}
