// Package idempotency deduplicates retried mutation requests. A record is
// claimed atomically as a "processing" sentinel before the real operation
// runs, then updated with the final response; concurrent holders of the same
// key either replay the cached response or receive an in-progress conflict.
package idempotency

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// MaxKeyLength bounds the client-supplied key.
const MaxKeyLength = 128

// StatusProcessing marks a claimed record whose operation has not finished.
// No real HTTP status is 0, so the zero value doubles as the sentinel.
const StatusProcessing = 0

var (
	ErrKeyTooLong = errors.New("idempotency key exceeds 128 characters")
	// ErrInProgress means another holder of the key is still executing.
	ErrInProgress = errors.New("request with this idempotency key is still processing")
	// ErrFingerprintMismatch means the key was reused with a different
	// request payload.
	ErrFingerprintMismatch = errors.New("idempotency key reused with a different request")
)

// Record is one cached mutation outcome.
type Record struct {
	CompositeKey string    `json:"compositeKey"`
	Fingerprint  []byte    `json:"fingerprint"`
	Status       int       `json:"status"`
	Body         []byte    `json:"body,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Processing reports whether the record is still a claim sentinel.
func (r *Record) Processing() bool { return r.Status == StatusProcessing }

// Expired reports whether the record's expiry has passed.
func (r *Record) Expired(now time.Time) bool { return now.After(r.ExpiresAt) }

// CompositeKey scopes a client key to its actor so two actors reusing the
// same opaque key never collide.
func CompositeKey(actorID uuid.UUID, clientKey string) (string, error) {
	if len(clientKey) > MaxKeyLength {
		return "", ErrKeyTooLong
	}
	return actorID.String() + ":" + clientKey, nil
}

// Fingerprint digests the request so a reused key with a different payload
// can be rejected instead of replayed.
func Fingerprint(method, path string, body []byte) []byte {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return h.Sum(nil)
}
