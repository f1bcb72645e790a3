// internal/webhook/verify.go
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign computes the signature header value for body: an HMAC-SHA256 over
// the exact raw bytes, hex encoded and prefixed with "sha256=".
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches the HMAC-SHA256 of
// body under secret. An empty signature fails without computing the HMAC.
// The comparison is constant-time; do not replace it with ==.
func VerifySignature(secret []byte, signature string, body []byte) bool {
	if signature == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(secret, body)), []byte(signature))
}
