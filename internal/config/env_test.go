package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, 15*time.Second, c.InboxPollInterval)
	assert.Equal(t, 24*time.Hour, c.InboxRetention)
	assert.Equal(t, 10, c.MetaRetries)
	assert.Equal(t, 150*time.Millisecond, c.MetaDelay)
	assert.Equal(t, 12, c.OfferRetries)
	assert.Equal(t, "123456", c.PIN)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("INBOX_POLL_INTERVAL", "3s")
	t.Setenv("OFFER_RETRIES", "4")
	t.Setenv("WALLET_ENCRYPT_STATE", "true")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, c.InboxPollInterval)
	assert.Equal(t, 4, c.OfferRetries)
	assert.True(t, c.EncryptState)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("INBOX_POLL_INTERVAL", "0s")
	_, err := Load()
	assert.Error(t, err)
}

func TestGetPanicsBeforeInit(t *testing.T) {
	cfg = nil
	assert.Panics(t, func() { Get() })

	require.NoError(t, Init())
	assert.Equal(t, "8090", GetSessiondPort())
}

func TestGetStatePassphraseUnset(t *testing.T) {
	passphraseBytes = nil
	_, err := GetStatePassphrase()
	assert.Error(t, err)
}
