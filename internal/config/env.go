package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Config contains all configuration parameters for the wallet and the session daemon.
// Note: the state passphrase is prompted at runtime and kept in memory - use GetStatePassphrase()
type Config struct {
	Port         string `envconfig:"PORT" default:"8080"`
	SessiondPort string `envconfig:"SESSIOND_PORT" default:"8090"`
	WalletURL    string `envconfig:"WALLET_URL" default:"http://localhost:8080/"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`

	SessionStoreURL    string        `envconfig:"SESSION_STORE_URL" default:"http://localhost:8090"`
	ExpiryPollInterval time.Duration `envconfig:"EXPIRY_POLL_INTERVAL" default:"2s"`

	StatePath    string `envconfig:"WALLET_STATE_PATH" default:"wallet.db"`
	EncryptState bool   `envconfig:"WALLET_ENCRYPT_STATE" default:"false"`
	PIN          string `envconfig:"WALLET_PIN" default:"123456"`

	ScenariosPath   string `envconfig:"SCENARIOS_PATH" default:"data/use-scenarios.json"`
	CardTypesPath   string `envconfig:"CARD_TYPES_PATH" default:"data/card-types.yaml"`
	SeedPath        string `envconfig:"SEED_PATH" default:"data/cards-seed.json"`
	CardContentPath string `envconfig:"CARD_CONTENT_PATH" default:"data/card-content.json"`

	InboxPollInterval time.Duration `envconfig:"INBOX_POLL_INTERVAL" default:"15s"`
	InboxRetention    time.Duration `envconfig:"INBOX_RETENTION" default:"24h"`
	MetaRetries       int           `envconfig:"META_RETRIES" default:"10"`
	MetaDelay         time.Duration `envconfig:"META_DELAY" default:"150ms"`
	OfferRetries      int           `envconfig:"OFFER_RETRIES" default:"12"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	c, err := Load()
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

// Load processes the environment into a fresh Config without touching the global one.
func Load() (*Config, error) {
	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate rejects values the wallet cannot run with.
func (c *Config) Validate() error {
	if c.StatePath == "" {
		return errors.New("WALLET_STATE_PATH must not be empty")
	}
	if c.InboxPollInterval <= 0 {
		return errors.New("INBOX_POLL_INTERVAL must be positive")
	}
	if c.MetaRetries < 0 || c.OfferRetries < 0 {
		return errors.New("META_RETRIES and OFFER_RETRIES must not be negative")
	}
	if c.MetaDelay <= 0 {
		return errors.New("META_DELAY must be positive")
	}
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// GetPort returns port from configuration
func GetPort() string {
	return Get().Port
}

// GetSessiondPort returns the session daemon port from configuration
func GetSessiondPort() string {
	return Get().SessiondPort
}

// GetSessionStoreURL returns the remote session-record store URL from configuration
func GetSessionStoreURL() string {
	return Get().SessionStoreURL
}

var passphraseBytes []byte

// PromptForPassword prompts the user for the state passphrase in the terminal.
// The passphrase is read without echoing (hidden input) and stored in memory.
// Call this at startup, before the wallet state is opened.
func PromptForPassword() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("stdin is not a terminal: run the app interactively to enter the state passphrase")
	}
	fmt.Fprint(os.Stderr, "Enter wallet state passphrase: ")
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("failed to read passphrase: %w", err)
	}
	if len(raw) == 0 {
		return errors.New("passphrase cannot be empty")
	}

	passphraseBytes = make([]byte, len(raw))
	copy(passphraseBytes, raw)
	clear(raw)
	return nil
}

// GetStatePassphrase returns the passphrase stored in memory (from PromptForPassword).
// Returns an error if the passphrase was not set.
// Caller must zero the returned slice after use.
func GetStatePassphrase() ([]byte, error) {
	if len(passphraseBytes) == 0 {
		return nil, errors.New("passphrase not set: call PromptForPassword at startup")
	}
	out := make([]byte, len(passphraseBytes))
	copy(out, passphraseBytes)
	return out, nil
}
