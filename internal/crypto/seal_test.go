package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testParams keep scrypt cheap in tests.
var testParams = Params{N: 1 << 4, R: 8, P: 1}

func TestSealOpen(t *testing.T) {
	salt, err := NewSalt()
	require.NoError(t, err)

	s, err := NewSealer([]byte("correct horse"), salt, testParams)
	require.NoError(t, err)

	env, err := s.Seal([]byte(`{"cards":[]}`), []byte("walletState"))
	require.NoError(t, err)
	assert.NotContains(t, env, "cards")

	plain, err := s.Open(env, []byte("walletState"))
	require.NoError(t, err)
	assert.Equal(t, `{"cards":[]}`, string(plain))
}

func TestOpenWrongPassphrase(t *testing.T) {
	salt, err := NewSalt()
	require.NoError(t, err)

	good, err := NewSealer([]byte("one"), salt, testParams)
	require.NoError(t, err)
	bad, err := NewSealer([]byte("two"), salt, testParams)
	require.NoError(t, err)

	env, err := good.Seal([]byte("secret"), nil)
	require.NoError(t, err)

	_, err = bad.Open(env, nil)
	assert.ErrorIs(t, err, ErrInvalidPassphrase)
}

func TestOpenWrongKeyBinding(t *testing.T) {
	salt, err := NewSalt()
	require.NoError(t, err)
	s, err := NewSealer([]byte("pw"), salt, testParams)
	require.NoError(t, err)

	env, err := s.Seal([]byte("secret"), []byte("walletState"))
	require.NoError(t, err)

	_, err = s.Open(env, []byte("walletSettings"))
	assert.ErrorIs(t, err, ErrInvalidPassphrase)
}

func TestOpenMalformed(t *testing.T) {
	salt, err := NewSalt()
	require.NoError(t, err)
	s, err := NewSealer([]byte("pw"), salt, testParams)
	require.NoError(t, err)

	_, err = s.Open("not json", nil)
	assert.Error(t, err)
	_, err = s.Open(`{"nonce":"AAAA","cipherText":"AAAA"}`, nil)
	assert.Error(t, err)
}

func TestNewSealerRejectsEmpty(t *testing.T) {
	_, err := NewSealer(nil, []byte("salt"), testParams)
	assert.Error(t, err)
	_, err = NewSealer([]byte("pw"), nil, testParams)
	assert.Error(t, err)
}
