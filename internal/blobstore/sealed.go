package blobstore

import (
	"encoding/base64"
	"fmt"

	"github.com/AlexZinkM/card-wallet/internal/crypto"
)

const (
	saltKey  = "walletSalt"
	checkKey = "walletKeyCheck"
	checkVal = "card-wallet"
)

// Sealed encrypts every value before handing it to the inner store.
// Values are bound to their key, so blobs cannot be swapped between keys.
type Sealed struct {
	inner  Store
	sealer *crypto.Sealer
}

// NewSealed wraps inner. The salt is created on first use and stored in the
// clear; a check blob detects a wrong passphrase before any state is read.
// passphrase should be zeroed by the caller after use
func NewSealed(inner Store, passphrase []byte, params crypto.Params) (*Sealed, error) {
	salt, err := loadOrCreateSalt(inner)
	if err != nil {
		return nil, err
	}

	sealer, err := crypto.NewSealer(passphrase, salt, params)
	if err != nil {
		return nil, err
	}
	s := &Sealed{inner: inner, sealer: sealer}

	check, ok, err := inner.Get(checkKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		if err := s.Set(checkKey, checkVal); err != nil {
			return nil, fmt.Errorf("failed to write key check: %w", err)
		}
		return s, nil
	}
	plain, err := sealer.Open(check, []byte(checkKey))
	if err != nil || string(plain) != checkVal {
		return nil, crypto.ErrInvalidPassphrase
	}
	return s, nil
}

func loadOrCreateSalt(inner Store) ([]byte, error) {
	raw, ok, err := inner.Get(saltKey)
	if err != nil {
		return nil, err
	}
	if ok {
		salt, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode salt: %w", err)
		}
		return salt, nil
	}
	salt, err := crypto.NewSalt()
	if err != nil {
		return nil, err
	}
	if err := inner.Set(saltKey, base64.StdEncoding.EncodeToString(salt)); err != nil {
		return nil, fmt.Errorf("failed to write salt: %w", err)
	}
	return salt, nil
}

func (s *Sealed) Get(key string) (string, bool, error) {
	env, ok, err := s.inner.Get(key)
	if err != nil || !ok {
		return "", ok, err
	}
	plain, err := s.sealer.Open(env, []byte(key))
	if err != nil {
		return "", false, fmt.Errorf("failed to open %s: %w", key, err)
	}
	return string(plain), true, nil
}

func (s *Sealed) Set(key, value string) error {
	env, err := s.sealer.Seal([]byte(value), []byte(key))
	if err != nil {
		return err
	}
	return s.inner.Set(key, env)
}
