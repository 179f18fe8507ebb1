package integrity

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config is the journal signing configuration.
type Config struct {
	// Keys is a comma separated list of id=secret pairs.
	Keys string `env:"STOCKRAIL_JOURNAL_HMAC_KEYS"`
	// Key is a single secret used under KeyID when Keys is empty.
	Key   string `env:"STOCKRAIL_JOURNAL_HMAC_KEY"`
	KeyID string `env:"STOCKRAIL_JOURNAL_HMAC_KEY_ID" envDefault:"v1"`
}

// KeyringFromEnv loads the journal keyring from the environment. It returns
// nil without error when no key is configured; the journal is then hashed
// but not signed.
func KeyringFromEnv() (*Keyring, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse journal key env: %w", err)
	}
	return cfg.Keyring()
}

// Keyring builds the keyring described by the config.
func (c Config) Keyring() (*Keyring, error) {
	keyID := strings.TrimSpace(c.KeyID)
	if keyID == "" {
		keyID = "v1"
	}
	spec := strings.TrimSpace(c.Keys)
	if spec == "" {
		raw := strings.TrimSpace(c.Key)
		if raw == "" {
			return nil, nil
		}
		return NewKeyring(map[string][]byte{keyID: []byte(raw)}, keyID)
	}

	keys := make(map[string][]byte)
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, value, ok := strings.Cut(entry, "=")
		id, value = strings.TrimSpace(id), strings.TrimSpace(value)
		if !ok || id == "" || value == "" {
			return nil, fmt.Errorf("invalid STOCKRAIL_JOURNAL_HMAC_KEYS entry %q", entry)
		}
		keys[id] = []byte(value)
	}
	return NewKeyring(keys, keyID)
}
