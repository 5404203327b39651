package audit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"time"
)

type signaturePayload struct {
	AuditID    string `json:"auditId"`
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
	ActorID    string `json:"actorId"`
	Action     string `json:"action"`
	Event      string `json:"event,omitempty"`
	FromStatus string `json:"fromStatus,omitempty"`
	ToStatus   string `json:"toStatus,omitempty"`
	Detail     string `json:"detail,omitempty"`
	CreatedAt  string `json:"createdAt"`
}

func buildSignaturePayload(e *Entry) signaturePayload {
	return signaturePayload{
		AuditID:    e.AuditID.String(),
		EntityType: e.EntityType,
		EntityID:   e.EntityID.String(),
		ActorID:    e.ActorID.String(),
		Action:     string(e.Action),
		Event:      e.Event,
		FromStatus: e.FromStatus,
		ToStatus:   e.ToStatus,
		Detail:     e.Detail,
		CreatedAt:  e.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// Sign generates an HMAC-SHA256 signature over the entry's canonical payload.
func Sign(e *Entry, key []byte) ([]byte, error) {
	data, err := json.Marshal(buildSignaturePayload(e))
	if err != nil {
		return nil, err
	}
	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write(data)
	return mac.Sum(nil), nil
}

// VerifySignature checks the entry's signature against the key.
func VerifySignature(e *Entry, key []byte) bool {
	expected, err := Sign(e, key)
	if err != nil {
		return false
	}
	return hmac.Equal(e.Signature, expected)
}
