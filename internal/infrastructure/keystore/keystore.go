// Package keystore loads the audit signing keys from the environment. Keys
// rotate by id; entries signed under an old key stay verifiable as long as
// the key remains in the set.
package keystore

import (
	"context"
	"encoding/hex"
	"errors"
	"os"
	"strings"
)

// StaticKeyStore is a simple in-memory keystore.
type StaticKeyStore struct {
	keys         map[string][]byte
	defaultKeyID string
}

// NewFromEnv builds a keystore from environment variables.
// AUDIT_SIGNING_KEYS format: "keyId:hex,keyId2:hex".
// AUDIT_SIGNING_KEY_ID selects the key used for new entries.
func NewFromEnv() (*StaticKeyStore, error) {
	keys := make(map[string][]byte)
	raw := os.Getenv("AUDIT_SIGNING_KEYS")
	if raw != "" {
		pairs := strings.Split(raw, ",")
		for _, p := range pairs {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			parts := strings.SplitN(p, ":", 2)
			if len(parts) != 2 {
				return nil, errors.New("invalid AUDIT_SIGNING_KEYS format")
			}
			bytes, err := hex.DecodeString(parts[1])
			if err != nil {
				return nil, err
			}
			keys[parts[0]] = bytes
		}
	}

	defaultKeyID := os.Getenv("AUDIT_SIGNING_KEY_ID")
	if defaultKeyID == "" && len(keys) == 1 {
		for id := range keys {
			defaultKeyID = id
		}
	}

	return &StaticKeyStore{keys: keys, defaultKeyID: defaultKeyID}, nil
}

// GetKey returns the key for an id.
func (s *StaticKeyStore) GetKey(ctx context.Context, keyID string) ([]byte, error) {
	_ = ctx
	key, ok := s.keys[keyID]
	if !ok {
		return nil, errors.New("key not found")
	}
	return key, nil
}

// SigningKey returns the key used to sign new audit entries, or nil when no
// keys are configured. Unsigned mode is valid for local development.
func (s *StaticKeyStore) SigningKey() []byte {
	if s == nil || s.defaultKeyID == "" {
		return nil
	}
	return s.keys[s.defaultKeyID]
}
