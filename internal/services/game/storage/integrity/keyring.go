package integrity

import (
	"crypto/hkdf"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrNoKeyring is returned when signing is attempted without keys.
	ErrNoKeyring = errors.New("journal keyring is not configured")
	// ErrUnknownKey is returned for a signature made with a key the ring does not hold.
	ErrUnknownKey = errors.New("journal signing key is unknown")
	// ErrSignatureMismatch is returned when a journal entry was altered after signing.
	ErrSignatureMismatch = errors.New("journal signature mismatch")
)

// journalKeyInfo scopes derived keys to one game's journal.
const journalKeyInfo = "stockrail/journal/"

// Signature is an HMAC over a journal chain hash plus the id of the root key
// that produced it. Old key ids stay verifiable after the active key rotates.
type Signature struct {
	Value string
	KeyID string
}

// Keyring holds root keys for journal signatures. Only the active key signs;
// every held key verifies.
type Keyring struct {
	keys   map[string][]byte
	active string
}

// NewKeyring builds a keyring. The map is copied.
func NewKeyring(keys map[string][]byte, activeKeyID string) (*Keyring, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("journal keyring: at least one key is required")
	}
	activeKeyID = strings.TrimSpace(activeKeyID)
	if activeKeyID == "" {
		return nil, fmt.Errorf("journal keyring: active key id is required")
	}
	held := make(map[string][]byte, len(keys))
	for id, key := range keys {
		if len(key) == 0 {
			return nil, fmt.Errorf("journal keyring: key %q is empty", id)
		}
		held[id] = slices.Clone(key)
	}
	if _, ok := held[activeKeyID]; !ok {
		return nil, fmt.Errorf("journal keyring: active key %q is not held", activeKeyID)
	}
	return &Keyring{keys: held, active: activeKeyID}, nil
}

// ActiveKeyID returns the id of the signing key, or "" for a nil keyring.
func (k *Keyring) ActiveKeyID() string {
	if k == nil {
		return ""
	}
	return k.active
}

// KeyIDs lists every held key id in sorted order.
func (k *Keyring) KeyIDs() []string {
	if k == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(k.keys))
}

// Sign signs a game's chain hash with the active key.
func (k *Keyring) Sign(gameID, chainHash string) (Signature, error) {
	if k == nil {
		return Signature{}, ErrNoKeyring
	}
	value, err := k.mac(k.active, gameID, chainHash)
	if err != nil {
		return Signature{}, err
	}
	return Signature{Value: value, KeyID: k.active}, nil
}

// Verify checks a signature made by any held key.
func (k *Keyring) Verify(gameID, chainHash string, sig Signature) error {
	if k == nil {
		return ErrNoKeyring
	}
	keyID := strings.TrimSpace(sig.KeyID)
	if keyID == "" {
		return fmt.Errorf("%w: signature carries no key id", ErrUnknownKey)
	}
	want, err := k.mac(keyID, gameID, chainHash)
	if err != nil {
		return err
	}
	if !hmac.Equal([]byte(want), []byte(sig.Value)) {
		return ErrSignatureMismatch
	}
	return nil
}

func (k *Keyring) mac(keyID, gameID, chainHash string) (string, error) {
	root, ok := k.keys[keyID]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, keyID)
	}
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return "", fmt.Errorf("journal keyring: game id is required")
	}
	derived, err := hkdf.Key(sha256.New, root, nil, journalKeyInfo+gameID, sha256.Size)
	if err != nil {
		return "", fmt.Errorf("derive journal key: %w", err)
	}
	h := hmac.New(sha256.New, derived)
	h.Write([]byte(chainHash))
	return hex.EncodeToString(h.Sum(nil)), nil
}
