package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

const SignatureHeader = "monnify-signature"

// WebhookEvent is the body of a gateway notification.
type WebhookEvent struct {
	EventType string      `json:"eventType"`
	EventData Transaction `json:"eventData"`
}

// ComputeSignature returns hex(HMAC-SHA512(secret, body)).
func ComputeSignature(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares in constant time; an empty secret never verifies.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := ComputeSignature(secret, body)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}

// TrustedIP reports whether ip is one of the allow-listed gateway addresses.
func TrustedIP(allowed []string, ip string) bool {
	for _, a := range allowed {
		if strings.TrimSpace(a) == ip {
			return true
		}
	}
	return false
}
